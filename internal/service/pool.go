package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/thanhpk/randstr"

	"github.com/memegen/memebot/internal/audit"
	"github.com/memegen/memebot/internal/database"
	"github.com/memegen/memebot/internal/model"
	"github.com/memegen/memebot/internal/repository"
)

const (
	tokenPrefix   = "#"
	tokenBodySize = 12
)

// TxRunner is satisfied by *database.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// PoolService owns the fixed token pool: it is seeded once and only toggled afterwards.
type PoolService struct {
	db           TxRunner
	tokenRepo    repository.TokenRepository
	size         int
	defaultModel string
}

func NewPoolService(db TxRunner, tokenRepo repository.TokenRepository, size int, defaultModel string) *PoolService {
	return &PoolService{
		db:           db,
		tokenRepo:    tokenRepo,
		size:         size,
		defaultModel: defaultModel,
	}
}

// EnsureSeeded fills an empty table. A non-empty table is left untouched.
func (s *PoolService) EnsureSeeded(ctx context.Context) (int, error) {
	count, err := s.tokenRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	if count > 0 {
		log.Debug().Int("count", count).Msg("token pool already seeded")
		return 0, nil
	}
	return s.seed(ctx, false)
}

// Recreate drops every slot, including claimed ones, and seeds a fresh pool.
func (s *PoolService) Recreate(ctx context.Context) (int, error) {
	return s.seed(ctx, true)
}

func (s *PoolService) ListFree(ctx context.Context, limit int) ([]model.UserSession, error) {
	return s.tokenRepo.ListFree(ctx, limit)
}

func (s *PoolService) seed(ctx context.Context, wipe bool) (int, error) {
	tokens := GenerateTokens(s.size)

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.tokenRepo.WithTx(tx)
		if wipe {
			removed, err := repo.DeleteAll(ctx)
			if err != nil {
				return fmt.Errorf("delete tokens: %w", err)
			}
			log.Warn().Int64("removed", removed).Msg("token pool wiped")
		}
		if err := repo.InsertMany(ctx, tokens, s.defaultModel); err != nil {
			return fmt.Errorf("insert tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int("count", len(tokens)).Str("model", s.defaultModel).Msg("token pool seeded")
	audit.Log(ctx, audit.Event{
		Type:    audit.EventPoolSeed,
		Details: map[string]interface{}{"count": len(tokens), "wipe": wipe},
	})
	return len(tokens), nil
}

// GenerateTokens returns n distinct "#"-prefixed tokens.
func GenerateTokens(n int) []string {
	seen := make(map[string]struct{}, n)
	tokens := make([]string, 0, n)
	for len(tokens) < n {
		token := tokenPrefix + randstr.String(tokenBodySize)
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
