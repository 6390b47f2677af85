package matchers

import (
	"fmt"
	"slices"

	"github.com/getmockd/contractmock/pkg/model"
)

// Kind identifies a body matching algorithm.
type Kind string

// Built-in matcher kinds. KindPlugin marks matchers supplied through the
// plugin catalogue.
const (
	KindJSON            Kind = "json"
	KindText            Kind = "text"
	KindXML             Kind = "xml"
	KindMultipart       Kind = "multipart"
	KindForm            Kind = "form"
	KindKafkaJSONSchema Kind = "kafka-json-schema"
	KindPlugin          Kind = "plugin"
)

// Mismatch describes one difference between an expected and an actual body.
type Mismatch struct {
	// Path locates the difference, e.g. "$.items[2].id" or "/order/@id".
	Path    string
	Message string
}

func (m Mismatch) String() string {
	if m.Path == "" {
		return m.Message
	}
	return fmt.Sprintf("%s: %s", m.Path, m.Message)
}

// Matcher compares bodies of one family of content types. An absent
// expected body matches anything. Implementations are stateless and safe
// for concurrent use.
type Matcher interface {
	Kind() Kind
	Match(expected, actual model.Body) []Mismatch
}

// Factory creates a Matcher.
type Factory func() Matcher

var factories = map[Kind]Factory{
	KindJSON:            func() Matcher { return JSONMatcher{} },
	KindText:            func() Matcher { return TextMatcher{} },
	KindXML:             func() Matcher { return XMLMatcher{} },
	KindMultipart:       func() Matcher { return MultipartMatcher{} },
	KindForm:            func() Matcher { return FormMatcher{} },
	KindKafkaJSONSchema: func() Matcher { return KafkaJSONSchemaMatcher{} },
}

// New creates the built-in matcher of the given kind.
func New(kind Kind) (Matcher, bool) {
	factory, ok := factories[kind]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Kinds lists the built-in kinds in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// missingBody is the shared result for an expected body that never arrived.
func missingBody(expected, actual model.Body) ([]Mismatch, bool) {
	if !expected.IsPresent() {
		return nil, true
	}
	if !actual.IsPresent() {
		return []Mismatch{{Path: "$", Message: "expected a body but it was missing"}}, true
	}
	return nil, false
}
