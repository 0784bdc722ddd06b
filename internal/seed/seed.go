package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/repositories"
	"github.com/cagri/classroom/internal/pkg/apperrors"
	"github.com/cagri/classroom/internal/pkg/auth"
)

const (
	defaultInstructorEmail    = "admin@classroom.local"
	defaultInstructorPassword = "ChangeMe123!"
)

// CreateDefaultData seeds a default instructor account so the API has a
// usable login out of the box. Safe to run repeatedly.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	recordRepo := repositories.NewRecordRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (instructor account)...")

	_, _, err := recordRepo.FindForAuth(ctx, models.KindInstructor, "email", defaultInstructorEmail)
	if err == nil {
		lgr.Debug().Msg("Default instructor already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		lgr.Error().Err(err).Msg("Error checking for default instructor")
		return err
	}

	hasher := &auth.BcryptHasher{}
	hash, err := hasher.Hash(defaultInstructorPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing default instructor password")
		return err
	}

	record, err := recordRepo.Insert(ctx, models.KindInstructor, map[string]interface{}{
		"name":          "Default Instructor",
		"email":         defaultInstructorEmail,
		"password_hash": hash,
		"department":    "Administration",
		"bio":           "Seeded administrator account.",
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			lgr.Debug().Msg("Default instructor created concurrently, skipping seed")
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating default instructor")
		return err
	}

	lgr.Info().Int64("id", record.ID()).Str("email", defaultInstructorEmail).Msg("Default instructor created")
	return nil
}
