package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memegen/memebot/internal/bot"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	updates []bot.Update
	err     error
	panicOn string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, u bot.Update) error {
	if d.panicOn != "" && u.Text == d.panicOn {
		panic("boom")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, u)
	return d.err
}

func (d *recordingDispatcher) seen() []bot.Update {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bot.Update(nil), d.updates...)
}

func messageUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{ID: chatID, UserName: "alice"},
			Text: text,
		},
	}
}

func TestToUpdate(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		u, ok := ToUpdate(messageUpdate(5, "/start"))
		require.True(t, ok)
		assert.Equal(t, bot.Update{ChatID: 5, Username: "alice", Text: "/start"}, u)
	})

	t.Run("callback uses message chat", func(t *testing.T) {
		u, ok := ToUpdate(tgbotapi.Update{
			CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb-9",
				From:    &tgbotapi.User{ID: 77, UserName: "bob"},
				Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: -300}},
				Data:    "phi",
			},
		})
		require.True(t, ok)
		assert.Equal(t, bot.Update{ChatID: -300, Username: "bob", CallbackID: "cb-9", CallbackData: "phi"}, u)
	})

	t.Run("callback without message falls back to sender", func(t *testing.T) {
		u, ok := ToUpdate(tgbotapi.Update{
			CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: &tgbotapi.User{ID: 77}, Data: "llava"},
		})
		require.True(t, ok)
		assert.Equal(t, int64(77), u.ChatID)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, ok := ToUpdate(tgbotapi.Update{UpdateID: 1})
		assert.False(t, ok)

		_, ok = ToUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Text: "no chat"}})
		assert.False(t, ok)
	})
}

func TestBot_Run(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("ignored")}
	b := NewBot(d)

	updates := make(chan tgbotapi.Update, 4)
	updates <- messageUpdate(1, "first")
	updates <- tgbotapi.Update{UpdateID: 2}
	updates <- messageUpdate(1, "second")
	close(updates)

	b.Run(context.Background(), updates)

	seen := d.seen()
	require.Len(t, seen, 2)
	assert.Equal(t, "first", seen[0].Text)
	assert.Equal(t, "second", seen[1].Text)
}

func TestBot_RunRecoversFromPanic(t *testing.T) {
	d := &recordingDispatcher{panicOn: "explode"}
	b := NewBot(d)

	updates := make(chan tgbotapi.Update, 2)
	updates <- messageUpdate(1, "explode")
	updates <- messageUpdate(1, "after")
	close(updates)

	b.Run(context.Background(), updates)

	seen := d.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, "after", seen[0].Text)
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	b := NewBot(&recordingDispatcher{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx, make(chan tgbotapi.Update))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestQueue(t *testing.T) {
	q := NewQueue(1)

	assert.True(t, q.Enqueue(messageUpdate(1, "a")))
	assert.False(t, q.Enqueue(messageUpdate(1, "b")))

	u := <-q.Updates()
	assert.Equal(t, "a", u.Message.Text)
	assert.True(t, q.Enqueue(messageUpdate(1, "c")))
}
