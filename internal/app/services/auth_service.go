package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/repositories"
	"github.com/cagri/classroom/internal/pkg/apperrors"
	"github.com/cagri/classroom/internal/pkg/auth"
)

// Session is an issued access token plus the authenticated account.
type Session struct {
	Token     string
	ExpiresIn int
	Role      string
	Account   models.Record
}

// AuthService authenticates student and instructor accounts.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
}

type authServiceImpl struct {
	recordRepo *repositories.RecordRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new auth service instance.
func NewAuthService(recordRepo *repositories.RecordRepository, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		recordRepo: recordRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login verifies credentials against student accounts first, then
// instructor accounts, and issues an access token on success. Every failure
// mode reports the same invalid-credentials error so the response does not
// leak which address exists.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*Session, error) {
	for _, kind := range []models.Kind{models.KindStudent, models.KindInstructor} {
		record, hash, err := s.recordRepo.FindForAuth(ctx, kind, "email", email)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			s.logger.Error().Err(err).Str("kind", string(kind)).Msg("Auth lookup failed")
			return nil, apperrors.StorageFault(err)
		}

		if !auth.CheckPassword(hash, password) {
			return nil, apperrors.ErrInvalidCredentials
		}

		token, expiresIn, err := s.jwtService.GenerateToken(record.ID(), email, string(kind))
		if err != nil {
			s.logger.Error().Err(err).Msg("Token generation failed")
			return nil, err
		}

		s.logger.Info().Str("role", string(kind)).Int64("id", record.ID()).Msg("Login successful")
		return &Session{
			Token:     token,
			ExpiresIn: expiresIn,
			Role:      string(kind),
			Account:   record,
		}, nil
	}

	return nil, apperrors.ErrInvalidCredentials
}
