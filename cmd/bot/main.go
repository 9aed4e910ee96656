package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/cmd/bot/internal/commands"
	"github.com/memegen/memebot/internal/config"
)

var (
	version = "dev"
	cli     struct {
		Serve   commands.ServeCmd  `cmd:"" default:"1" help:"Run the bot (default)"`
		Seed    commands.SeedCmd   `cmd:"" help:"Fill the token pool"`
		Tokens  commands.TokensCmd `cmd:"" help:"Print unclaimed tokens"`
		Version kong.VersionFlag
	}
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("memebot"),
		kong.Description("Telegram bot that turns prompts into captioned memes."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setLogLevel(cfg.LogLevel)

	err = cmd.Run(&commands.Globals{Config: cfg, Version: version, Stdout: os.Stdout})
	cmd.FatalIfErrorf(err)
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
