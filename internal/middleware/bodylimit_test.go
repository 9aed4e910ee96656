package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyLimitMiddleware(t *testing.T) {
	t.Run("defaults to 1MB", func(t *testing.T) {
		m := NewBodyLimitMiddleware(0)
		assert.Equal(t, int64(DefaultMaxBodySize), m.maxSize)
	})

	t.Run("rejects declared oversize body", func(t *testing.T) {
		m := NewBodyLimitMiddleware(8)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
	})

	t.Run("caps undeclared body while reading", func(t *testing.T) {
		m := NewBodyLimitMiddleware(8)
		var readErr error
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		req.ContentLength = -1
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Error(t, readErr)
	})

	t.Run("passes small body", func(t *testing.T) {
		m := NewBodyLimitMiddleware(64)
		var body []byte
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ = io.ReadAll(r.Body)
		}))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "hello", string(body))
	})
}
