// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// FaultBody renders the body of a fault response: {"error": "<message>"}.
// The message is JSON-escaped rather than inserted verbatim, so a message
// containing quotes or backslashes still yields a valid JSON document.
// Plain messages are unaffected.
func FaultBody(message string) []byte {
	quoted, err := json.Marshal(message)
	if err != nil {
		quoted = []byte(strconv.Quote(message))
	}
	body := make([]byte, 0, len(quoted)+11)
	body = append(body, `{"error": `...)
	body = append(body, quoted...)
	return append(body, '}')
}

// WriteFault writes a 500 Internal Server Error carrying the error's message.
// Headers already staged on w are discarded so the fault is not mixed with
// a partially prepared response.
func WriteFault(w http.ResponseWriter, err error) {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	body := FaultBody(message)

	h := w.Header()
	for k := range h {
		delete(h, k)
	}
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}
