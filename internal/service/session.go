package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/audit"
	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/model"
	"github.com/memegen/memebot/internal/repository"
	"github.com/memegen/memebot/internal/util"
)

// SessionService binds pool tokens to conversations. Every method runs a
// single statement; a missing row is reported as "not authorized", never as an error.
type SessionService struct {
	tokenRepo    repository.TokenRepository
	defaultModel string
}

func NewSessionService(tokenRepo repository.TokenRepository, defaultModel string) *SessionService {
	return &SessionService{
		tokenRepo:    tokenRepo,
		defaultModel: defaultModel,
	}
}

func (s *SessionService) DefaultModel() string {
	return s.defaultModel
}

// IsClaimed reports whether sessionID holds an authorized token.
func (s *SessionService) IsClaimed(ctx context.Context, sessionID string) (bool, error) {
	count, err := s.tokenRepo.CountAuthorizedBySessionID(ctx, sessionID)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return count > 0, nil
}

func (s *SessionService) IsKnownToken(ctx context.Context, token string) (bool, error) {
	row, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return row != nil, nil
}

func (s *SessionService) IsTokenClaimed(ctx context.Context, token string) (bool, error) {
	row, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return row != nil && row.Authorized, nil
}

// Claim binds token to sessionID. It fails with TOKEN_TAKEN when the token
// was claimed between the caller's checks and this update.
func (s *SessionService) Claim(ctx context.Context, sessionID, token string) error {
	claimed, err := s.tokenRepo.Claim(ctx, token, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !claimed {
		return apperrors.TokenTaken()
	}
	return nil
}

func (s *SessionService) Release(ctx context.Context, token string) error {
	if err := s.tokenRepo.Release(ctx, token, s.defaultModel); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// GetModel returns "" when sessionID is not authorized.
func (s *SessionService) GetModel(ctx context.Context, sessionID string) (string, error) {
	row, err := s.tokenRepo.FindAuthorizedBySessionID(ctx, sessionID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if row == nil {
		return "", nil
	}
	return row.Model, nil
}

func (s *SessionService) SetModel(ctx context.Context, sessionID string, m model.Model) error {
	n, err := s.tokenRepo.UpdateModel(ctx, sessionID, string(m))
	if err != nil {
		return apperrors.Database(err)
	}
	if n == 0 {
		return apperrors.NotAuthorized()
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventModelSelect,
		SessionID: sessionID,
		Details:   map[string]interface{}{"model": string(m)},
	})
	return nil
}

// GetToken returns "" when sessionID is not authorized.
func (s *SessionService) GetToken(ctx context.Context, sessionID string) (string, error) {
	row, err := s.tokenRepo.FindAuthorizedBySessionID(ctx, sessionID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if row == nil {
		return "", nil
	}
	return row.Token, nil
}

// Authorize runs the token submission checks in order: unknown token,
// conversation already authorized, token held by someone else.
func (s *SessionService) Authorize(ctx context.Context, sessionID, token string) error {
	known, err := s.IsKnownToken(ctx, token)
	if err != nil {
		return err
	}
	if !known {
		return s.reject(ctx, sessionID, token, apperrors.InvalidToken())
	}

	claimed, err := s.IsClaimed(ctx, sessionID)
	if err != nil {
		return err
	}
	if claimed {
		return s.reject(ctx, sessionID, token, apperrors.AlreadyAuthorized())
	}

	taken, err := s.IsTokenClaimed(ctx, token)
	if err != nil {
		return err
	}
	if taken {
		return s.reject(ctx, sessionID, token, apperrors.TokenTaken())
	}

	if err := s.Claim(ctx, sessionID, token); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeTokenTaken) {
			return s.reject(ctx, sessionID, token, err)
		}
		return err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("token", util.MaskToken(token)).
		Msg("conversation authorized")
	audit.Log(ctx, audit.Event{
		Type:      audit.EventAuthorize,
		SessionID: sessionID,
		Token:     util.MaskToken(token),
	})
	return nil
}

// Logout releases the token bound to sessionID.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	token, err := s.GetToken(ctx, sessionID)
	if err != nil {
		return err
	}
	if token == "" {
		return apperrors.NotAuthorized()
	}

	if err := s.Release(ctx, token); err != nil {
		return fmt.Errorf("release token: %w", err)
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("token", util.MaskToken(token)).
		Msg("conversation logged out")
	audit.Log(ctx, audit.Event{
		Type:      audit.EventLogout,
		SessionID: sessionID,
		Token:     util.MaskToken(token),
	})
	return nil
}

func (s *SessionService) reject(ctx context.Context, sessionID, token string, err error) error {
	audit.Log(ctx, audit.Event{
		Type:      audit.EventAuthorizeRejected,
		SessionID: sessionID,
		Token:     util.MaskToken(token),
		Details:   map[string]interface{}{"reason": string(apperrors.GetCode(err))},
	})
	return err
}
