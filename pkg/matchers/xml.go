package matchers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/contractmock/pkg/model"
)

// XMLMatcher compares XML documents element by element: names, attributes
// (in any order), trimmed text and child elements (in order). Namespace
// declarations are not compared.
type XMLMatcher struct{}

func (XMLMatcher) Kind() Kind { return KindXML }

func (XMLMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	exp, err := parseXMLRoot(expected.Content)
	if err != nil {
		return []Mismatch{{Path: "/", Message: fmt.Sprintf("expected body is not valid XML: %v", err)}}
	}
	act, err := parseXMLRoot(actual.Content)
	if err != nil {
		return []Mismatch{{Path: "/", Message: fmt.Sprintf("actual body is not valid XML: %v", err)}}
	}
	return compareElements("/"+exp.FullTag(), exp, act)
}

func parseXMLRoot(b []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return root, nil
}

func compareElements(path string, exp, act *etree.Element) []Mismatch {
	if exp.FullTag() != act.FullTag() {
		return []Mismatch{{
			Path:    path,
			Message: fmt.Sprintf("expected element <%s> but received <%s>", exp.FullTag(), act.FullTag()),
		}}
	}

	var mismatches []Mismatch
	expAttrs, actAttrs := attributes(exp), attributes(act)
	for _, a := range exp.Attr {
		key := a.FullKey()
		if isNamespaceDecl(a) {
			continue
		}
		got, ok := actAttrs[key]
		switch {
		case !ok:
			mismatches = append(mismatches, Mismatch{Path: path + "/@" + key, Message: "expected attribute but it was missing"})
		case got != a.Value:
			mismatches = append(mismatches, Mismatch{
				Path:    path + "/@" + key,
				Message: fmt.Sprintf("expected %q but received %q", a.Value, got),
			})
		}
	}
	for _, a := range act.Attr {
		if _, ok := expAttrs[a.FullKey()]; !ok && !isNamespaceDecl(a) {
			mismatches = append(mismatches, Mismatch{Path: path + "/@" + a.FullKey(), Message: "unexpected attribute"})
		}
	}

	if e, a := strings.TrimSpace(exp.Text()), strings.TrimSpace(act.Text()); e != a {
		mismatches = append(mismatches, Mismatch{
			Path:    path + "/#text",
			Message: fmt.Sprintf("expected %q but received %q", e, a),
		})
	}

	expChildren, actChildren := exp.ChildElements(), act.ChildElements()
	if len(expChildren) != len(actChildren) {
		return append(mismatches, Mismatch{
			Path:    path,
			Message: fmt.Sprintf("expected %d child elements but received %d", len(expChildren), len(actChildren)),
		})
	}
	for i := range expChildren {
		childPath := path + "/" + expChildren[i].FullTag() + "[" + strconv.Itoa(i) + "]"
		mismatches = append(mismatches, compareElements(childPath, expChildren[i], actChildren[i])...)
	}
	return mismatches
}

func attributes(e *etree.Element) map[string]string {
	attrs := make(map[string]string, len(e.Attr))
	for _, a := range e.Attr {
		attrs[a.FullKey()] = a.Value
	}
	return attrs
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}
