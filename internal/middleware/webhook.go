package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/audit"
	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/httputil"
	"github.com/memegen/memebot/internal/util"
)

// WebhookSecretParam is the chi URL parameter holding the path secret.
const WebhookSecretParam = "secret"

// WebhookSecretMiddleware admits only requests whose path carries the
// secret the webhook was registered with.
type WebhookSecretMiddleware struct {
	secret string
}

func NewWebhookSecretMiddleware(secret string) *WebhookSecretMiddleware {
	return &WebhookSecretMiddleware{secret: secret}
}

func (m *WebhookSecretMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			log.Error().Msg("webhook secret middleware: WEBHOOK_SECRET is not configured")
			httputil.WriteError(w, apperrors.Unavailable("Webhook is not configured"))
			return
		}

		provided := chi.URLParam(r, WebhookSecretParam)
		if !util.ConstantTimeEqual(provided, m.secret) {
			log.Warn().Str("ip", r.RemoteAddr).Msg("webhook secret middleware: invalid secret")
			audit.Log(r.Context(), audit.Event{
				Type: audit.EventWebhookAuthFailure,
				IP:   r.RemoteAddr,
			})
			httputil.WriteError(w, apperrors.Unauthorized("Invalid webhook secret"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
