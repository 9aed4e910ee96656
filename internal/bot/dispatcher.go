package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/model"
)

var rejectionMessages = map[apperrors.ErrorCode]string{
	apperrors.ErrCodeInvalidToken:      MsgInvalidToken,
	apperrors.ErrCodeAlreadyAuthorized: MsgAlreadyAuthorized,
	apperrors.ErrCodeTokenTaken:        MsgTokenTaken,
}

// Dispatcher routes updates for every conversation. It is not safe for
// concurrent use on the same conversation; the transport feeds it one
// update at a time.
type Dispatcher struct {
	sessions  Sessions
	generator Generator
	composer  Composer
	replier   Replier

	routes   map[CommandType]HandlerFunc
	callback HandlerFunc
}

func NewDispatcher(sessions Sessions, generator Generator, composer Composer, replier Replier) *Dispatcher {
	d := &Dispatcher{
		sessions:  sessions,
		generator: generator,
		composer:  composer,
		replier:   replier,
	}

	auth := RequireAuth(sessions, replier)
	d.routes = map[CommandType]HandlerFunc{
		CommandStart: d.handleStart,
		CommandStop:  auth(d.handleStop),
		CommandToken: d.handleToken,
		CommandModel: auth(d.handleModel),
		CommandText:  auth(d.handleText),
	}
	d.callback = auth(d.handleModelCallback)

	return d
}

// Dispatch handles one update. Failures are returned to the caller and
// nothing is sent to the chat for them.
func (d *Dispatcher) Dispatch(ctx context.Context, u Update) error {
	start := time.Now()

	handler := d.callback
	kind := "callback"
	if !u.IsCallback() {
		cmd := ParseCommand(u.Text)
		handler = d.routes[cmd]
		kind = cmd.String()
	}

	err := handler(ctx, u)

	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Int64("chatId", u.ChatID).
		Str("command", kind).
		Dur("elapsed", time.Since(start)).
		Msg("update handled")

	return err
}

func (d *Dispatcher) handleStart(ctx context.Context, u Update) error {
	claimed, err := d.sessions.IsClaimed(ctx, u.SessionID())
	if err != nil {
		return err
	}
	if claimed {
		return d.replier.SendText(ctx, u.ChatID, MsgAlreadyAuthorized)
	}
	return d.replier.SendText(ctx, u.ChatID, MsgGreeting)
}

func (d *Dispatcher) handleStop(ctx context.Context, u Update) error {
	if err := d.sessions.Logout(ctx, u.SessionID()); err != nil {
		return err
	}
	return d.replier.SendText(ctx, u.ChatID, MsgLoggedOut)
}

func (d *Dispatcher) handleToken(ctx context.Context, u Update) error {
	token := strings.TrimSpace(u.Text)

	err := d.sessions.Authorize(ctx, u.SessionID(), token)
	if err != nil {
		msg, ok := rejectionMessages[apperrors.GetCode(err)]
		if !ok {
			return err
		}
		return d.replier.SendText(ctx, u.ChatID, msg)
	}
	return d.replier.SendText(ctx, u.ChatID, MsgAuthorized)
}

func (d *Dispatcher) handleModel(ctx context.Context, u Update) error {
	return d.replier.SendChoices(ctx, u.ChatID, MsgChooseModel, model.ModelChoices)
}

func (d *Dispatcher) handleModelCallback(ctx context.Context, u Update) error {
	m, ok := model.ParseModel(u.CallbackData)
	if !ok {
		log.Warn().
			Int64("chatId", u.ChatID).
			Str("data", u.CallbackData).
			Msg("unknown callback data")
		return d.replier.AnswerCallback(ctx, u.CallbackID, "")
	}

	if err := d.sessions.SetModel(ctx, u.SessionID(), m); err != nil {
		return err
	}
	return d.replier.AnswerCallback(ctx, u.CallbackID, fmt.Sprintf(msgModelSelected, capitalize(string(m))))
}

func (d *Dispatcher) handleText(ctx context.Context, u Update) error {
	if strings.TrimSpace(u.Text) == "" {
		return nil
	}

	modelName, err := d.sessions.GetModel(ctx, u.SessionID())
	if err != nil {
		return err
	}
	if modelName == "" {
		modelName = d.sessions.DefaultModel()
	}

	joke, err := d.generator.Generate(ctx, modelName, u.Text)
	if err != nil {
		return err
	}

	path, err := d.composer.Render(ctx, joke, u.SessionID())
	if err != nil {
		return err
	}

	return d.replier.SendPhoto(ctx, u.ChatID, path)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
