package matchers

import (
	"fmt"
	"maps"
	"net/url"
	"slices"

	"github.com/getmockd/contractmock/pkg/model"
)

// FormMatcher compares application/x-www-form-urlencoded bodies parameter
// by parameter. Parameter order is irrelevant; the order of repeated values
// is significant.
type FormMatcher struct{}

func (FormMatcher) Kind() Kind { return KindForm }

func (FormMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	exp, err := url.ParseQuery(string(expected.Content))
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("expected body is not a valid form: %v", err)}}
	}
	act, err := url.ParseQuery(string(actual.Content))
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("actual body is not a valid form: %v", err)}}
	}

	var mismatches []Mismatch
	for _, name := range slices.Sorted(maps.Keys(exp)) {
		got, ok := act[name]
		switch {
		case !ok:
			mismatches = append(mismatches, Mismatch{Path: "$." + name, Message: "expected form parameter but it was missing"})
		case !slices.Equal(exp[name], got):
			mismatches = append(mismatches, Mismatch{
				Path:    "$." + name,
				Message: fmt.Sprintf("expected %q but received %q", exp[name], got),
			})
		}
	}
	for _, name := range slices.Sorted(maps.Keys(act)) {
		if _, ok := exp[name]; !ok {
			mismatches = append(mismatches, Mismatch{Path: "$." + name, Message: "unexpected form parameter"})
		}
	}
	return mismatches
}
