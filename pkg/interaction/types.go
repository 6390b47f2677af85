package interaction

import (
	"net/http"
	"strings"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/contractmock/pkg/model"
)

// Content is a body in an interaction file. A YAML string is taken
// verbatim; any other value is written out as JSON.
type Content []byte

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Content) UnmarshalYAML(node *yaml.Node) error {
	switch {
	case node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		*c = nil
		return nil
	case node.Kind == yaml.ScalarNode && node.Tag == "!!str":
		*c = Content(node.Value)
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	*c = Content(oj.JSON(v))
	return nil
}

// Request is the expected shape of a request. Empty fields match anything.
type Request struct {
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Query   map[string]string `yaml:"query,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    Content           `yaml:"body,omitempty"`
}

// ContentType returns the declared content type, defaulting to JSON.
func (r *Request) ContentType() string {
	return contentType(r.Headers)
}

// Response is the canned response of an interaction.
type Response struct {
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    Content           `yaml:"body,omitempty"`
}

// Interaction pairs an expected request with its response.
type Interaction struct {
	Description string   `yaml:"description"`
	Request     Request  `yaml:"request"`
	Response    Response `yaml:"response"`
}

// File is the root of an interactions file.
type File struct {
	Interactions []Interaction `yaml:"interactions"`
}

// ToResponse converts the canned response into the canonical model.
func (r *Response) ToResponse() *model.Response {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string][]string, len(r.Headers))
	for name, value := range r.Headers {
		headers[http.CanonicalHeaderKey(name)] = []string{value}
	}
	var body model.Body
	if len(r.Body) > 0 {
		body = model.NewBody(r.Body, contentType(r.Headers))
	}
	return &model.Response{Status: status, Headers: headers, Body: body}
}

func contentType(headers map[string]string) string {
	for name, value := range headers {
		if strings.EqualFold(name, "Content-Type") {
			return value
		}
	}
	return model.DefaultContentType
}
