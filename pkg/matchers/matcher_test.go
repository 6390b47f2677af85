package matchers

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractmock/pkg/model"
)

func body(content, contentType string) model.Body {
	return model.NewBody([]byte(content), contentType)
}

func paths(mismatches []Mismatch) []string {
	out := make([]string, len(mismatches))
	for i, m := range mismatches {
		out[i] = m.Path
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds() {
		m, ok := New(kind)
		require.True(t, ok, kind)
		assert.Equal(t, kind, m.Kind())
	}
	_, ok := New(KindPlugin)
	assert.False(t, ok)
	_, ok = New("yaml")
	assert.False(t, ok)
}

func TestMatchers_AbsentBodies(t *testing.T) {
	t.Parallel()

	present := body("x", "text/plain")
	for _, kind := range Kinds() {
		m, _ := New(kind)
		assert.Empty(t, m.Match(model.Body{}, present), kind)
		assert.Empty(t, m.Match(model.Body{}, model.Body{}), kind)
		assert.Len(t, m.Match(present, model.Body{}), 1, kind)
	}
}

func TestJSONMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		actual   string
		paths    []string
	}{
		{"equal", `{"a":1,"b":[1,2]}`, `{"b":[1,2],"a":1}`, []string{}},
		{"int equals float", `{"a":1}`, `{"a":1.0}`, []string{}},
		{"value differs", `{"a":{"b":"x"}}`, `{"a":{"b":"y"}}`, []string{"$.a.b"}},
		{"missing key", `{"a":1,"b":2}`, `{"a":1}`, []string{"$"}},
		{"unexpected key", `{"a":1}`, `{"a":1,"c":3}`, []string{"$"}},
		{"array length", `[1,2]`, `[1]`, []string{"$"}},
		{"array element", `[1,{"x":true}]`, `[1,{"x":false}]`, []string{"$[1].x"}},
		{"type differs", `{"a":[]}`, `{"a":{}}`, []string{"$.a"}},
		{"invalid actual", `{}`, `{`, []string{"$"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := JSONMatcher{}.Match(body(tt.expected, "application/json"), body(tt.actual, "application/json"))
			assert.Equal(t, tt.paths, paths(got))
		})
	}
}

func TestJSONMatcher_AllowUnexpectedKeys(t *testing.T) {
	t.Parallel()

	m := JSONMatcher{AllowUnexpectedKeys: true}
	assert.Empty(t, m.Match(body(`{"a":1}`, ""), body(`{"a":1,"b":2}`, "")))
	assert.NotEmpty(t, m.Match(body(`{"a":1,"b":2}`, ""), body(`{"a":1}`, "")))
}

func TestKafkaJSONSchemaMatcher(t *testing.T) {
	t.Parallel()

	prefixed := append([]byte{0, 0, 0, 0, 7}, `{"id":1}`...)
	ct := "application/vnd.schemaregistry.v1+json"
	m := KafkaJSONSchemaMatcher{}

	assert.Empty(t, m.Match(model.NewBody(prefixed, ct), body(`{"id":1}`, ct)))
	assert.Empty(t, m.Match(body(`{"id":1}`, ct), model.NewBody(prefixed, ct)))
	assert.Equal(t, []string{"$.id"}, paths(m.Match(body(`{"id":2}`, ct), model.NewBody(prefixed, ct))))
}

func TestTextMatcher(t *testing.T) {
	t.Parallel()

	m := TextMatcher{}
	assert.Empty(t, m.Match(body("hello", "text/plain"), body("hello", "text/plain")))
	got := m.Match(body("hello", "text/plain"), body("Hello", "text/plain"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, `"Hello"`)
}

func TestFormMatcher(t *testing.T) {
	t.Parallel()

	ct := "application/x-www-form-urlencoded"
	m := FormMatcher{}
	assert.Empty(t, m.Match(body("a=1&b=2&b=3", ct), body("b=2&b=3&a=1", ct)))
	assert.Equal(t, []string{"$.b"}, paths(m.Match(body("a=1&b=2&b=3", ct), body("a=1&b=3&b=2", ct))))
	assert.Equal(t, []string{"$.b", "$.c"}, paths(m.Match(body("a=1&b=2", ct), body("a=1&c=2", ct))))
	assert.Equal(t, []string{"$"}, paths(m.Match(body("a=1", ct), body("a=%zz", ct))))
}

func TestXMLMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		actual   string
		paths    []string
	}{
		{
			"equal with reordered attributes",
			`<order id="1" state="new"><item>a</item></order>`,
			`<order state="new" id="1"> <item>a</item> </order>`,
			[]string{},
		},
		{
			"namespace declarations ignored",
			`<order xmlns="urn:a"/>`,
			`<order/>`,
			[]string{},
		},
		{"root differs", `<order/>`, `<invoice/>`, []string{"/order"}},
		{"attribute differs", `<order id="1"/>`, `<order id="2"/>`, []string{"/order/@id"}},
		{"attribute missing", `<order id="1"/>`, `<order/>`, []string{"/order/@id"}},
		{"unexpected attribute", `<order/>`, `<order id="1"/>`, []string{"/order/@id"}},
		{"text differs", `<a><b>x</b></a>`, `<a><b>y</b></a>`, []string{"/a/b[0]/#text"}},
		{"child count", `<a><b/><b/></a>`, `<a><b/></a>`, []string{"/a"}},
		{"invalid actual", `<a/>`, `not xml`, []string{"/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := XMLMatcher{}.Match(body(tt.expected, "application/xml"), body(tt.actual, "application/xml"))
			assert.Equal(t, tt.paths, paths(got))
		})
	}
}

type part struct {
	name, fileName, contentType, content string
}

func multipartBody(t *testing.T, parts ...part) model.Body {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		disposition := `form-data; name="` + p.name + `"`
		if p.fileName != "" {
			disposition += `; filename="` + p.fileName + `"`
		}
		h.Set("Content-Disposition", disposition)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return model.NewBody(buf.Bytes(), w.FormDataContentType())
}

func TestMultipartMatcher(t *testing.T) {
	t.Parallel()

	m := MultipartMatcher{}
	file := part{"file", "a.txt", "text/plain", "hello"}
	field := part{"field", "", "", "value"}

	// Bodies are written with different random boundaries.
	assert.Empty(t, m.Match(multipartBody(t, file, field), multipartBody(t, file, field)))

	changed := file
	changed.content = "bye"
	changed.fileName = "b.txt"
	assert.Equal(t,
		[]string{"$.parts[0].filename", "$.parts[0].content"},
		paths(m.Match(multipartBody(t, file, field), multipartBody(t, changed, field))))

	assert.Equal(t, []string{"$"}, paths(m.Match(multipartBody(t, file, field), multipartBody(t, file))))
	assert.Equal(t, []string{"$"}, paths(m.Match(multipartBody(t, file), body("x", "multipart/form-data"))))
}
