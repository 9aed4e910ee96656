package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memegen/memebot/internal/bot"
)

// ToUpdate converts a Bot API update. Updates other than messages and
// callback queries report false.
func ToUpdate(u tgbotapi.Update) (bot.Update, bool) {
	if cq := u.CallbackQuery; cq != nil {
		out := bot.Update{
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.From != nil {
			out.ChatID = cq.From.ID
			out.Username = cq.From.UserName
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			out.ChatID = cq.Message.Chat.ID
		}
		return out, out.ChatID != 0
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return bot.Update{}, false
	}

	out := bot.Update{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}
	if msg.From != nil {
		out.Username = msg.From.UserName
	}
	return out, true
}
