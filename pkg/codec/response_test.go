package codec

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractmock/pkg/model"
)

func TestWriteResponse(t *testing.T) {
	t.Parallel()

	t.Run("writes status headers and body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &model.Response{
			Status: http.StatusCreated,
			Headers: map[string][]string{
				"Content-Type": {"application/json"},
				"Set-Cookie":   {"a=1", "b=2"},
				"Vary":         {"Accept, Origin"},
			},
			Body: model.NewBody([]byte(`{"id":1}`), "application/json"),
		})
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []string{"application/json"}, rec.Header().Values("Content-Type"))
		assert.Equal(t, []string{"a=1", "b=2"}, rec.Header().Values("Set-Cookie"))
		assert.Equal(t, []string{"Accept, Origin"}, rec.Header().Values("Vary"))
		assert.Equal(t, "8", rec.Header().Get("Content-Length"))
		assert.Equal(t, `{"id":1}`, rec.Body.String())
	})

	t.Run("absent body writes only status and headers", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &model.Response{
			Status:  http.StatusNoContent,
			Headers: map[string][]string{"X-Id": {"7"}},
		})
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "7", rec.Header().Get("X-Id"))
		assert.Empty(t, rec.Body.Bytes())
		assert.Empty(t, rec.Header().Get("Content-Length"))
	})

	t.Run("body content type used when header missing", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &model.Response{
			Status: http.StatusOK,
			Body:   model.NewBody([]byte("<a/>"), "application/xml"),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		assert.ErrorIs(t, WriteResponse(rec, nil), ErrNilResponse)
	})

	t.Run("invalid status leaves writer untouched", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		err := WriteResponse(rec, &model.Response{
			Status:  42,
			Headers: map[string][]string{"X-Id": {"7"}},
		})
		require.ErrorIs(t, err, ErrInvalidStatus)
		assert.Empty(t, rec.Header().Get("X-Id"))
		assert.False(t, rec.Flushed)
	})

	t.Run("informational status is rejected", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusContinue, http.StatusSwitchingProtocols, http.StatusEarlyHints, 199} {
			rec := httptest.NewRecorder()
			err := WriteResponse(rec, &model.Response{
				Status: status,
				Body:   model.NewBody([]byte("hi"), "text/plain"),
			})
			require.ErrorIs(t, err, ErrInvalidStatus, "status %d", status)
			assert.Empty(t, rec.Body.Bytes())
			assert.False(t, rec.Flushed)
		}
	})
}
