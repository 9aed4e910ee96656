package commands

import (
	"context"
	"fmt"

	"github.com/memegen/memebot/internal/repository"
	"github.com/memegen/memebot/internal/service"
)

type TokensCmd struct {
	Limit int `help:"Maximum number of tokens to print" default:"10"`
}

func (t *TokensCmd) Run(ctx context.Context, globals *Globals) error {
	if t.Limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	cfg := globals.Config

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := service.NewPoolService(db, repository.NewTokenRepository(db.DB), cfg.TokenPoolSize, cfg.DefaultModel)
	free, err := pool.ListFree(ctx, t.Limit)
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	for _, s := range free {
		fmt.Fprintln(globals.Stdout, s.Token)
	}
	return nil
}
