package bot

import (
	"context"
	"strconv"

	"github.com/memegen/memebot/internal/model"
)

// Update is one inbound chat event, either a message or a button press.
type Update struct {
	ChatID       int64
	Username     string
	Text         string
	CallbackID   string
	CallbackData string
}

// SessionID is the conversation key stored in the token table.
func (u Update) SessionID() string {
	return strconv.FormatInt(u.ChatID, 10)
}

func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

// Replier sends responses back through the chat transport.
type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendChoices(ctx context.Context, chatID int64, text string, choices []model.ModelChoice) error
	SendPhoto(ctx context.Context, chatID int64, path string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Sessions is satisfied by *service.SessionService.
type Sessions interface {
	IsClaimed(ctx context.Context, sessionID string) (bool, error)
	Authorize(ctx context.Context, sessionID, token string) error
	Logout(ctx context.Context, sessionID string) error
	GetModel(ctx context.Context, sessionID string) (string, error)
	SetModel(ctx context.Context, sessionID string, m model.Model) error
	DefaultModel() string
}

type Generator interface {
	Generate(ctx context.Context, modelName, text string) (string, error)
}

type Composer interface {
	Render(ctx context.Context, text, chatID string) (string, error)
}
