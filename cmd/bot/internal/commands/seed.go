package commands

import (
	"context"
	"fmt"

	"github.com/memegen/memebot/internal/repository"
	"github.com/memegen/memebot/internal/service"
)

type SeedCmd struct {
	Force bool `help:"Drop every token, claimed ones included, and generate a new pool." default:"false"`
}

func (s *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	cfg := globals.Config

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := service.NewPoolService(db, repository.NewTokenRepository(db.DB), cfg.TokenPoolSize, cfg.DefaultModel)

	var n int
	if s.Force {
		n, err = pool.Recreate(ctx)
	} else {
		n, err = pool.EnsureSeeded(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to seed token pool: %w", err)
	}

	if n == 0 {
		fmt.Fprintln(globals.Stdout, "token pool already seeded; use --force to regenerate")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "generated %d tokens\n", n)
	return nil
}
