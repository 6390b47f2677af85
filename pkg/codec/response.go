package codec

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getmockd/contractmock/pkg/model"
)

var (
	// ErrNilResponse is returned when a generator produced no response.
	ErrNilResponse = errors.New("no response was generated")

	// ErrInvalidStatus is returned for status codes that cannot be sent as a
	// final response. Informational 1xx codes are rejected because net/http
	// follows them with an implicit 200.
	ErrInvalidStatus = errors.New("invalid response status code")
)

// WriteResponse serializes a canonical response. Each header value is
// appended on its own; values are never re-joined. The response is checked
// before anything is written, so a returned validation error leaves w
// untouched.
func WriteResponse(w http.ResponseWriter, resp *model.Response) error {
	if resp == nil {
		return ErrNilResponse
	}
	if resp.Status < 200 || resp.Status > 999 {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, resp.Status)
	}

	h := w.Header()
	for name, values := range resp.Headers {
		for _, v := range values {
			h.Add(name, v)
		}
	}

	if !resp.Body.IsPresent() {
		w.WriteHeader(resp.Status)
		return nil
	}

	if h.Get("Content-Type") == "" {
		if resp.Body.ContentType != "" {
			h.Set("Content-Type", resp.Body.ContentType)
		} else {
			// nil suppresses net/http content sniffing
			h["Content-Type"] = nil
		}
	}
	h.Set("Content-Length", strconv.Itoa(len(resp.Body.Content)))
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body.Content); err != nil {
		return fmt.Errorf("failed to write response body: %w", err)
	}
	return nil
}
