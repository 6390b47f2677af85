package matchers

import (
	"bytes"
	"fmt"

	"github.com/getmockd/contractmock/pkg/model"
)

// TextMatcher requires the bodies to be byte-for-byte equal.
type TextMatcher struct{}

func (TextMatcher) Kind() Kind { return KindText }

func (TextMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	if bytes.Equal(expected.Content, actual.Content) {
		return nil
	}
	return []Mismatch{{
		Path:    "$",
		Message: fmt.Sprintf("expected body %q but received %q", abbreviate(expected.Content), abbreviate(actual.Content)),
	}}
}

const abbreviateAt = 120

func abbreviate(b []byte) string {
	if len(b) <= abbreviateAt {
		return string(b)
	}
	return string(b[:abbreviateAt]) + "..."
}
