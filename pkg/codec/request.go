package codec

import (
	"net/http"

	"github.com/getmockd/contractmock/pkg/model"
)

// ToRequest builds the canonical request for an inbound HTTP call. The body
// is fully read and decoded before returning.
func ToRequest(r *http.Request) (*model.Request, error) {
	content, err := DecodeBody(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}

	headers := NormalizeHeaders(r.Header)
	if _, ok := headers["Host"]; !ok && r.Host != "" {
		headers["Host"] = []string{r.Host}
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[len(values)-1]
		}
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = model.DefaultContentType
	}

	return &model.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   query,
		Headers: headers,
		Body:    model.NewBody(content, contentType),
	}, nil
}
