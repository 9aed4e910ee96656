package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/bot"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, u bot.Update) error
}

// Bot feeds Bot API updates to the dispatcher one at a time.
type Bot struct {
	dispatcher Dispatcher
}

func NewBot(dispatcher Dispatcher) *Bot {
	return &Bot{dispatcher: dispatcher}
}

// Run consumes updates until ctx is canceled or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	log.Info().Msg("telegram update loop started")
	defer log.Info().Msg("telegram update loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.handle(ctx, u)
		}
	}
}

func (b *Bot) handle(ctx context.Context, raw tgbotapi.Update) {
	u, ok := ToUpdate(raw)
	if !ok {
		log.Debug().Int("updateId", raw.UpdateID).Msg("ignoring unsupported update")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Int("updateId", raw.UpdateID).
				Int64("chatId", u.ChatID).
				Msg("dispatcher panicked")
		}
	}()

	// Dispatcher already logged the failure; nothing is reported to the chat.
	_ = b.dispatcher.Dispatch(ctx, u)
}

// NewAPI connects to the Bot API and routes the library's logging through zerolog.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{}); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = debug

	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return api, nil
}

// StartPolling drops any webhook and pending updates, then long polls.
func StartPolling(api *tgbotapi.BotAPI, timeoutSeconds int) (tgbotapi.UpdatesChannel, error) {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return nil, fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	return api.GetUpdatesChan(cfg), nil
}

// RegisterWebhook points Telegram at baseURL/<secret>.
func RegisterWebhook(api API, baseURL, secret string) error {
	wh, err := tgbotapi.NewWebhook(WebhookURL(baseURL, secret))
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.DropPendingUpdates = true

	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func WebhookURL(baseURL, secret string) string {
	return strings.TrimRight(baseURL, "/") + "/" + secret
}

type botLogger struct{}

func (botLogger) Println(v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (botLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msgf(format, v...)
}
