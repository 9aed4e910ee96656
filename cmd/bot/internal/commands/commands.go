package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/config"
	"github.com/memegen/memebot/internal/database"
)

type Globals struct {
	Config  *config.Config
	Version string
	Stdout  io.Writer
}

// openDatabase connects, pings and migrates the token store.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.DBPingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Msg("database connected")
	return db, nil
}
