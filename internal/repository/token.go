package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/memegen/memebot/internal/database"
	"github.com/memegen/memebot/internal/model"
)

type TokenRepository interface {
	FindByToken(ctx context.Context, token string) (*model.UserSession, error)
	FindAuthorizedBySessionID(ctx context.Context, sessionID string) (*model.UserSession, error)
	CountAuthorizedBySessionID(ctx context.Context, sessionID string) (int, error)
	// Claim binds a free token to sessionID. It reports false when the
	// token is missing or already authorized.
	Claim(ctx context.Context, token string, sessionID string) (bool, error)
	Release(ctx context.Context, token string, defaultModel string) error
	UpdateModel(ctx context.Context, sessionID string, model string) (int64, error)
	Count(ctx context.Context) (int, error)
	ListFree(ctx context.Context, limit int) ([]model.UserSession, error)
	InsertMany(ctx context.Context, tokens []string, defaultModel string) error
	DeleteAll(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) TokenRepository
}

type tokenRepo struct {
	db database.DBTX
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) WithTx(tx *sqlx.Tx) TokenRepository {
	return &tokenRepo{db: tx}
}

func (r *tokenRepo) FindByToken(ctx context.Context, token string) (*model.UserSession, error) {
	var s model.UserSession
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT token, session_id, authorized, model FROM users WHERE token = ?
	`), token)
	return HandleNotFound(&s, err)
}

func (r *tokenRepo) FindAuthorizedBySessionID(ctx context.Context, sessionID string) (*model.UserSession, error) {
	var s model.UserSession
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT token, session_id, authorized, model FROM users
		WHERE session_id = ? AND authorized = ?
		LIMIT 1
	`), sessionID, true)
	return HandleNotFound(&s, err)
}

func (r *tokenRepo) CountAuthorizedBySessionID(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		SELECT COUNT(*) FROM users WHERE session_id = ? AND authorized = ?
	`), sessionID, true)
	return count, err
}

func (r *tokenRepo) Claim(ctx context.Context, token string, sessionID string) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET
			authorized = ?,
			session_id = ?
		WHERE token = ? AND authorized = ?
	`), true, sessionID, token, false))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *tokenRepo) Release(ctx context.Context, token string, defaultModel string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET
			authorized = ?,
			session_id = ?,
			model = ?
		WHERE token = ?
	`), false, model.FreeSessionID, defaultModel, token)
	return err
}

func (r *tokenRepo) UpdateModel(ctx context.Context, sessionID string, m string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET model = ? WHERE session_id = ? AND authorized = ?
	`), m, sessionID, true))
}

func (r *tokenRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (r *tokenRepo) ListFree(ctx context.Context, limit int) ([]model.UserSession, error) {
	var sessions []model.UserSession
	err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(`
		SELECT token, session_id, authorized, model FROM users
		WHERE authorized = ?
		ORDER BY token ASC
		LIMIT ?
	`), false, limit)
	return sessions, err
}

func (r *tokenRepo) InsertMany(ctx context.Context, tokens []string, defaultModel string) error {
	query := r.db.Rebind(`
		INSERT INTO users (token, session_id, authorized, model) VALUES (?, ?, ?, ?)
	`)
	for _, token := range tokens {
		if _, err := r.db.ExecContext(ctx, query, token, model.FreeSessionID, false, defaultModel); err != nil {
			return err
		}
	}
	return nil
}

func (r *tokenRepo) DeleteAll(ctx context.Context) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx, `DELETE FROM users`))
}
