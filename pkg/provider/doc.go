// Package provider runs the consumer-side mock provider: an HTTP(S)
// listener that turns every inbound call into a model.Request, asks a
// model.Generator for the response and writes it back.
//
// Two requests bypass the generator. A bootstrap probe (OPTIONS carrying
// the X-Pact-Bootcheck header) is answered with 200 so test harnesses can
// wait for the listener to come up. Any failure while decoding the
// request, generating the response or serializing it becomes a 500 with a
// JSON body of the form {"error": "<message>"}.
package provider
