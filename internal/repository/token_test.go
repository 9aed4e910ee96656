package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memegen/memebot/internal/database"
	"github.com/memegen/memebot/internal/model"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Connect("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func seed(t *testing.T, repo TokenRepository, tokens ...string) {
	t.Helper()
	require.NoError(t, repo.InsertMany(context.Background(), tokens, "phi3"))
}

func TestTokenRepository_FindByToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTokenRepository(db.DB)
	ctx := context.Background()
	seed(t, repo, "#abc123")

	t.Run("finds seeded token as free slot", func(t *testing.T) {
		s, err := repo.FindByToken(ctx, "#abc123")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "#abc123", s.Token)
		assert.Equal(t, model.FreeSessionID, s.SessionID)
		assert.False(t, s.Authorized)
		assert.Equal(t, "phi3", s.Model)
	})

	t.Run("returns nil for unknown token", func(t *testing.T) {
		s, err := repo.FindByToken(ctx, "#nope")
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestTokenRepository_ClaimAndRelease(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTokenRepository(db.DB)
	ctx := context.Background()
	seed(t, repo, "#abc123", "#def456")

	claimed, err := repo.Claim(ctx, "#abc123", "1001")
	require.NoError(t, err)
	assert.True(t, claimed)

	t.Run("claimed token is bound to session", func(t *testing.T) {
		s, err := repo.FindAuthorizedBySessionID(ctx, "1001")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "#abc123", s.Token)
		assert.True(t, s.Authorized)

		count, err := repo.CountAuthorizedBySessionID(ctx, "1001")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("second claim of same token fails", func(t *testing.T) {
		claimed, err := repo.Claim(ctx, "#abc123", "2002")
		require.NoError(t, err)
		assert.False(t, claimed)

		s, err := repo.FindByToken(ctx, "#abc123")
		require.NoError(t, err)
		assert.Equal(t, "1001", s.SessionID)
	})

	t.Run("claim of unknown token fails", func(t *testing.T) {
		claimed, err := repo.Claim(ctx, "#missing", "2002")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("model update applies to authorized session only", func(t *testing.T) {
		n, err := repo.UpdateModel(ctx, "1001", "llava")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.UpdateModel(ctx, "9999", "llava")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		s, err := repo.FindAuthorizedBySessionID(ctx, "1001")
		require.NoError(t, err)
		assert.Equal(t, "llava", s.Model)
	})

	t.Run("release resets slot", func(t *testing.T) {
		require.NoError(t, repo.Release(ctx, "#abc123", "phi3"))

		s, err := repo.FindByToken(ctx, "#abc123")
		require.NoError(t, err)
		assert.False(t, s.Authorized)
		assert.Equal(t, model.FreeSessionID, s.SessionID)
		assert.Equal(t, "phi3", s.Model)

		found, err := repo.FindAuthorizedBySessionID(ctx, "1001")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("released token can be claimed again", func(t *testing.T) {
		claimed, err := repo.Claim(ctx, "#abc123", "2002")
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestTokenRepository_PoolMaintenance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTokenRepository(db.DB)
	ctx := context.Background()
	seed(t, repo, "#c", "#a", "#b")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = repo.Claim(ctx, "#a", "1")
	require.NoError(t, err)

	t.Run("ListFree skips claimed tokens", func(t *testing.T) {
		free, err := repo.ListFree(ctx, 10)
		require.NoError(t, err)
		require.Len(t, free, 2)
		assert.Equal(t, "#b", free[0].Token)
		assert.Equal(t, "#c", free[1].Token)
	})

	t.Run("ListFree honours limit", func(t *testing.T) {
		free, err := repo.ListFree(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, free, 1)
	})

	t.Run("duplicate insert fails", func(t *testing.T) {
		err := repo.InsertMany(ctx, []string{"#a"}, "phi3")
		assert.Error(t, err)
	})

	t.Run("WithTx rollback discards inserts", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			txRepo := repo.WithTx(tx)
			if err := txRepo.InsertMany(ctx, []string{"#d", "#e"}, "phi3"); err != nil {
				return err
			}
			return txRepo.InsertMany(ctx, []string{"#d"}, "phi3")
		})
		assert.Error(t, err)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("DeleteAll empties table", func(t *testing.T) {
		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}
