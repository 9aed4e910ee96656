package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Queue buffers webhook deliveries for the update loop.
type Queue struct {
	ch chan tgbotapi.Update
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan tgbotapi.Update, size)}
}

// Enqueue reports false when the buffer is full so the webhook can ask
// Telegram to redeliver.
func (q *Queue) Enqueue(u tgbotapi.Update) bool {
	select {
	case q.ch <- u:
		return true
	default:
		return false
	}
}

func (q *Queue) Updates() <-chan tgbotapi.Update {
	return q.ch
}
