package generator

import (
	"context"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"

	apperrors "github.com/memegen/memebot/internal/errors"
)

// ChatClient is the part of the ollama client the generator needs.
type ChatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

type Options struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	PivotLanguage string
	ReplyLanguage string
}

type Generator struct {
	chat       ChatClient
	translator Translator
	opts       Options
}

func New(chat ChatClient, translator Translator, opts Options) *Generator {
	return &Generator{
		chat:       chat,
		translator: translator,
		opts:       opts,
	}
}

// Generate turns a free-form request into a short joke in the reply language.
func (g *Generator) Generate(ctx context.Context, modelName, text string) (string, error) {
	prompt := Preprocess(text)

	translated, err := g.translator.Translate(ctx, prompt, g.opts.PivotLanguage)
	if err != nil {
		return "", apperrors.External("translator", err)
	}

	start := time.Now()
	stream := false
	req := &api.ChatRequest{
		Model: modelName,
		Messages: []api.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: translated},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": g.opts.Temperature,
			"top_p":       g.opts.TopP,
			"num_predict": g.opts.MaxTokens,
		},
	}

	var reply strings.Builder
	err = g.chat.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("model", modelName).Dur("elapsed", time.Since(start)).Msg("ollama chat failed")
		return "", apperrors.External("ollama", err)
	}

	joke := strings.TrimSpace(reply.String())
	log.Debug().
		Str("model", modelName).
		Str("joke", joke).
		Dur("elapsed", time.Since(start)).
		Msg("joke generated")

	result, err := g.translator.Translate(ctx, joke, g.opts.ReplyLanguage)
	if err != nil {
		return "", apperrors.External("translator", err)
	}
	return result, nil
}

// Preprocess lower-cases the request and swaps the meme synonym for "joke".
func Preprocess(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), memeWord, jokeWord)
}
