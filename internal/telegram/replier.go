package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/model"
)

// API is the subset of *tgbotapi.BotAPI used to reply.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Replier delivers dispatcher replies through the Bot API.
type Replier struct {
	api API
}

func NewReplier(api API) *Replier {
	return &Replier{api: api}
}

func (r *Replier) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return r.send(msg, "sendMessage")
}

// SendChoices sends text with one inline keyboard row holding every choice.
func (r *Replier) SendChoices(ctx context.Context, chatID int64, text string, choices []model.ModelChoice) error {
	buttons := lo.Map(choices, func(c model.ModelChoice, _ int) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(c.Label, string(c.Model))
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	return r.send(msg, "sendMessage")
}

func (r *Replier) SendPhoto(ctx context.Context, chatID int64, path string) error {
	return r.send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path)), "sendPhoto")
}

func (r *Replier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := r.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return apperrors.External("telegram", fmt.Errorf("answerCallbackQuery: %w", err))
	}
	return nil
}

func (r *Replier) send(c tgbotapi.Chattable, method string) error {
	if _, err := r.api.Send(c); err != nil {
		return apperrors.External("telegram", fmt.Errorf("%s: %w", method, err))
	}
	return nil
}
