package matchers

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/contractmock/pkg/model"
)

// JSONMatcher compares JSON documents structurally. Object key order is
// irrelevant; array order is significant.
type JSONMatcher struct {
	// AllowUnexpectedKeys ignores object keys present only in the actual body.
	AllowUnexpectedKeys bool
}

func (JSONMatcher) Kind() Kind { return KindJSON }

func (m JSONMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	return m.matchBytes(expected.Content, actual.Content)
}

func (m JSONMatcher) matchBytes(expected, actual []byte) []Mismatch {
	exp, err := oj.Parse(expected)
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("expected body is not valid JSON: %v", err)}}
	}
	act, err := oj.Parse(actual)
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("actual body is not valid JSON: %v", err)}}
	}
	return m.compare("$", exp, act)
}

func (m JSONMatcher) compare(path string, expected, actual any) []Mismatch {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []Mismatch{typeMismatch(path, expected, actual)}
		}
		var mismatches []Mismatch
		for _, key := range slices.Sorted(maps.Keys(exp)) {
			av, present := act[key]
			if !present {
				mismatches = append(mismatches, Mismatch{
					Path:    path,
					Message: fmt.Sprintf("expected key %q but it was missing", key),
				})
				continue
			}
			mismatches = append(mismatches, m.compare(path+"."+key, exp[key], av)...)
		}
		if !m.AllowUnexpectedKeys {
			for _, key := range slices.Sorted(maps.Keys(act)) {
				if _, present := exp[key]; !present {
					mismatches = append(mismatches, Mismatch{
						Path:    path,
						Message: fmt.Sprintf("unexpected key %q", key),
					})
				}
			}
		}
		return mismatches
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []Mismatch{typeMismatch(path, expected, actual)}
		}
		if len(exp) != len(act) {
			return []Mismatch{{
				Path:    path,
				Message: fmt.Sprintf("expected an array of %d elements but received %d", len(exp), len(act)),
			}}
		}
		var mismatches []Mismatch
		for i := range exp {
			mismatches = append(mismatches, m.compare(path+"["+strconv.Itoa(i)+"]", exp[i], act[i])...)
		}
		return mismatches
	default:
		if scalarEqual(expected, actual) {
			return nil
		}
		return []Mismatch{{
			Path:    path,
			Message: fmt.Sprintf("expected %s but received %s", oj.JSON(expected), oj.JSON(actual)),
		}}
	}
}

func typeMismatch(path string, expected, actual any) Mismatch {
	return Mismatch{
		Path:    path,
		Message: fmt.Sprintf("expected %s but received %s", jsonType(expected), oj.JSON(actual)),
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	default:
		return oj.JSON(v)
	}
}

// scalarEqual treats integers and floats with the same value as equal.
func scalarEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// KafkaJSONSchemaMatcher compares JSON payloads serialized with the schema
// registry wire format: a zero magic byte and a four byte schema id ahead
// of the JSON document. Payloads without the prefix are compared as is.
type KafkaJSONSchemaMatcher struct{}

func (KafkaJSONSchemaMatcher) Kind() Kind { return KindKafkaJSONSchema }

func (KafkaJSONSchemaMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	return JSONMatcher{}.matchBytes(stripSchemaPrefix(expected.Content), stripSchemaPrefix(actual.Content))
}

const schemaPrefixLen = 5

func stripSchemaPrefix(b []byte) []byte {
	if len(b) > schemaPrefixLen && b[0] == 0 {
		return b[schemaPrefixLen:]
	}
	return b
}
