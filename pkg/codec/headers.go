package codec

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// multiValueHeaders lists (lower-cased) header names whose value is a
// comma separated list of tokens.
var multiValueHeaders = map[string]struct{}{
	"accept":                           {},
	"accept-ch":                        {},
	"accept-charset":                   {},
	"accept-encoding":                  {},
	"accept-language":                  {},
	"accept-patch":                     {},
	"accept-post":                      {},
	"accept-ranges":                    {},
	"access-control-allow-headers":     {},
	"access-control-allow-methods":     {},
	"access-control-expose-headers":    {},
	"access-control-request-headers":   {},
	"allow":                            {},
	"alt-svc":                          {},
	"cache-control":                    {},
	"clear-site-data":                  {},
	"connection":                       {},
	"content-encoding":                 {},
	"content-language":                 {},
	"forwarded":                        {},
	"if-match":                         {},
	"if-none-match":                    {},
	"keep-alive":                       {},
	"link":                             {},
	"pragma":                           {},
	"proxy-authenticate":               {},
	"server-timing":                    {},
	"te":                               {},
	"timing-allow-origin":              {},
	"trailer":                          {},
	"transfer-encoding":                {},
	"upgrade":                          {},
	"vary":                             {},
	"via":                              {},
	"warning":                          {},
	"www-authenticate":                 {},
	"x-forwarded-for":                  {},
}

// IsMultiValueHeader reports whether name is on the multi-value allow-list.
// The comparison is case-insensitive.
func IsMultiValueHeader(name string) bool {
	_, ok := multiValueHeaders[strings.ToLower(name)]
	return ok
}

// HeaderParam is a single name=value parameter of a header list item.
type HeaderParam struct {
	Name  string
	Value string
}

// HeaderValue is one item of a delimited header list, e.g. the
// "text/html;q=0.9" part of an Accept header.
type HeaderValue struct {
	Value  string
	Params []HeaderParam
}

// String renders the item as value;name=value;name=value.
func (v HeaderValue) String() string {
	if len(v.Params) == 0 {
		return v.Value
	}
	var b strings.Builder
	b.WriteString(v.Value)
	for _, p := range v.Params {
		b.WriteByte(';')
		b.WriteString(p.Name)
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
	}
	return b.String()
}

// ParseHeaderValue splits a raw header line into its comma separated items.
// Commas and semicolons inside double quotes are not treated as delimiters,
// and quoted parameter values are unquoted. Empty items are dropped.
func ParseHeaderValue(raw string) []HeaderValue {
	var values []HeaderValue
	for _, item := range splitQuoted(raw, ',') {
		parts := splitQuoted(item, ';')
		v := HeaderValue{Value: strings.TrimSpace(parts[0])}
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			name, value, _ := strings.Cut(p, "=")
			v.Params = append(v.Params, HeaderParam{
				Name:  strings.TrimSpace(name),
				Value: unquote(strings.TrimSpace(value)),
			})
		}
		if v.Value == "" && len(v.Params) == 0 {
			continue
		}
		values = append(values, v)
	}
	return values
}

// NormalizeHeaders converts transport headers into the canonical header map.
//
// A header on the multi-value allow-list that arrived as exactly one raw
// value is expanded into one canonical value per list item. Every other
// header passes through unchanged.
func NormalizeHeaders(raw http.Header) map[string][]string {
	headers := make(map[string][]string, len(raw))
	for name, values := range raw {
		if len(values) == 1 && IsMultiValueHeader(name) {
			headers[name] = lo.Map(ParseHeaderValue(values[0]), func(v HeaderValue, _ int) string {
				return v.String()
			})
			continue
		}
		headers[name] = append([]string(nil), values...)
	}
	return headers
}

func splitQuoted(s string, sep byte) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && quoted:
			escaped = true
		case c == '"':
			quoted = !quoted
		case c == sep && !quoted:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
