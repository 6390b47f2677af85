package matchers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"

	"github.com/getmockd/contractmock/pkg/model"
)

// MultipartMatcher compares multipart bodies part by part: the number of
// parts, each part's form name, file name and content type, and the part
// content itself.
type MultipartMatcher struct{}

func (MultipartMatcher) Kind() Kind { return KindMultipart }

type bodyPart struct {
	name        string
	fileName    string
	contentType string
	content     []byte
}

func (MultipartMatcher) Match(expected, actual model.Body) []Mismatch {
	if mismatches, done := missingBody(expected, actual); done {
		return mismatches
	}
	exp, err := readParts(expected)
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("expected body is not valid multipart: %v", err)}}
	}
	act, err := readParts(actual)
	if err != nil {
		return []Mismatch{{Path: "$", Message: fmt.Sprintf("actual body is not valid multipart: %v", err)}}
	}
	if len(exp) != len(act) {
		return []Mismatch{{
			Path:    "$",
			Message: fmt.Sprintf("expected %d parts but received %d", len(exp), len(act)),
		}}
	}

	var mismatches []Mismatch
	for i := range exp {
		path := "$.parts[" + strconv.Itoa(i) + "]"
		e, a := exp[i], act[i]
		if e.name != a.name {
			mismatches = append(mismatches, Mismatch{Path: path + ".name", Message: fmt.Sprintf("expected %q but received %q", e.name, a.name)})
		}
		if e.fileName != a.fileName {
			mismatches = append(mismatches, Mismatch{Path: path + ".filename", Message: fmt.Sprintf("expected %q but received %q", e.fileName, a.fileName)})
		}
		if e.contentType != a.contentType {
			mismatches = append(mismatches, Mismatch{Path: path + ".contentType", Message: fmt.Sprintf("expected %q but received %q", e.contentType, a.contentType)})
		}
		if !bytes.Equal(e.content, a.content) {
			mismatches = append(mismatches, Mismatch{
				Path:    path + ".content",
				Message: fmt.Sprintf("expected %q but received %q", abbreviate(e.content), abbreviate(a.content)),
			})
		}
	}
	return mismatches
}

func readParts(body model.Body) ([]bodyPart, error) {
	_, params, err := mime.ParseMediaType(body.ContentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q: %w", body.ContentType, err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("content type has no boundary parameter")
	}

	var parts []bodyPart
	reader := multipart.NewReader(bytes.NewReader(body.Content), boundary)
	for {
		p, err := reader.NextRawPart()
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, bodyPart{
			name:        p.FormName(),
			fileName:    p.FileName(),
			contentType: model.BaseContentType(p.Header.Get("Content-Type")),
			content:     content,
		})
	}
}
