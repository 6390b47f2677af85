// Package model defines the canonical request and response shapes exchanged
// between the mock provider listener and the interaction-matching engine.
//
// The listener builds a Request for every inbound call, hands it to a
// Generator and writes the returned Response back onto the wire. Neither
// type carries transport state; a Request is owned by the pipeline
// invocation that created it and is discarded once the Generator returns.
package model

import (
	"context"
	"fmt"
	"strings"
)

// DefaultContentType is assumed for request bodies that arrive without a
// Content-Type header.
const DefaultContentType = "application/json"

// Body is an optional payload together with its declared content type.
// The zero value is an absent body.
type Body struct {
	Content     []byte
	ContentType string
}

// NewBody returns a present body, or an absent one when content is empty.
func NewBody(content []byte, contentType string) Body {
	if len(content) == 0 {
		return Body{}
	}
	return Body{Content: content, ContentType: contentType}
}

// IsPresent reports whether the body carries any bytes.
func (b Body) IsPresent() bool {
	return len(b.Content) > 0
}

// BaseContentType returns the media type without parameters, lower-cased.
func (b Body) BaseContentType() string {
	return BaseContentType(b.ContentType)
}

// BaseContentType strips parameters such as charset from a content type.
func BaseContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Request is the transport-independent view of an inbound HTTP call.
type Request struct {
	Method string
	Path   string

	// Query holds one value per parameter name. When a name repeats, the
	// last occurrence wins.
	Query map[string]string

	// Headers keeps every value of a header in arrival order, after
	// multi-value normalization.
	Headers map[string][]string

	Body Body
}

// Header returns the first value of the named header, matching the name
// case-insensitively.
func (r *Request) Header(name string) string {
	return firstValue(r.Headers, name)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s query=%v headers=%d body=%d bytes", r.Method, r.Path, r.Query, len(r.Headers), len(r.Body.Content))
}

// Response is the canonical response produced by a Generator.
type Response struct {
	Status  int
	Headers map[string][]string
	Body    Body
}

// Header returns the first value of the named header, matching the name
// case-insensitively.
func (r *Response) Header(name string) string {
	return firstValue(r.Headers, name)
}

func (r *Response) String() string {
	return fmt.Sprintf("status=%d headers=%d body=%d bytes", r.Status, len(r.Headers), len(r.Body.Content))
}

func firstValue(headers map[string][]string, name string) string {
	for k, values := range headers {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// Generator decides how to answer a canonical request. It is the boundary
// to the interaction-matching engine; any error it returns is reported to
// the caller as a fault response rather than a dropped connection.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req *Request) (*Response, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
