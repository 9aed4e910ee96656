package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/httputil"
)

const (
	DefaultMaxBodySize = 1 << 20 // 1MB
)

type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

// Handler rejects declared oversize bodies up front and caps the rest
// while they are read.
func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > m.maxSize {
			log.Warn().
				Int64("contentLength", r.ContentLength).
				Int64("limit", m.maxSize).
				Str("path", r.URL.Path).
				Msg("request body too large")
			httputil.WriteError(w, apperrors.PayloadTooLarge())
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		}
		next.ServeHTTP(w, r)
	})
}
