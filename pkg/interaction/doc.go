// Package interaction is a reference response generator for the mock
// provider. It answers requests from a list of expected interactions
// loaded from YAML and compares request bodies with the content matcher
// registry. Requests that match no interaction fail, so the provider
// reports them as faults.
package interaction
