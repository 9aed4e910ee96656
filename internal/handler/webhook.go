package handler

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/httputil"
)

// UpdateQueue is satisfied by *telegram.Queue.
type UpdateQueue interface {
	Enqueue(u tgbotapi.Update) bool
}

type WebhookHandler struct {
	queue UpdateQueue
}

func NewWebhookHandler(queue UpdateQueue) *WebhookHandler {
	return &WebhookHandler{queue: queue}
}

// Telegram acknowledges as soon as the update is queued. A full queue
// answers 503 so Telegram redelivers later.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("invalid telegram webhook request")
		httputil.WriteError(w, apperrors.InvalidInput("body", "not a telegram update"))
		return
	}

	if !h.queue.Enqueue(update) {
		log.Warn().Int("updateId", update.UpdateID).Msg("update queue full, asking telegram to retry")
		httputil.WriteError(w, apperrors.Unavailable("Update queue is full"))
		return
	}

	log.Debug().Int("updateId", update.UpdateID).Msg("received telegram webhook")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
