package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/schema"
	"github.com/cagri/classroom/internal/pkg/apperrors"
)

// RecordStore is the storage collaborator the lifecycle layer delegates to.
// Insert, Update and Delete are single atomic operations; the store owns
// transaction semantics and constraint enforcement, including cascading
// deletes.
type RecordStore interface {
	Insert(ctx context.Context, kind models.Kind, columns map[string]interface{}) (models.Record, error)
	GetByID(ctx context.Context, kind models.Kind, id int64) (models.Record, error)
	List(ctx context.Context, kind models.Kind, offset uint64, limit int) ([]models.Record, int64, error)
	Update(ctx context.Context, kind models.Kind, id int64, columns map[string]interface{}) (models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
}

// PasswordHasher hashes secret fields before they reach storage. Injected
// so tests can substitute a fake.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// RecordService coordinates the record lifecycle: a record is either absent
// or fully valid, never stored in between. Invalidity is always a rejection
// at this boundary.
type RecordService interface {
	Create(ctx context.Context, kind models.Kind, fields models.Fields) (models.Record, error)
	Get(ctx context.Context, kind models.Kind, id int64) (models.Record, error)
	List(ctx context.Context, kind models.Kind, offset uint64, limit int) ([]models.Record, int64, error)
	Update(ctx context.Context, kind models.Kind, id int64, fields models.Fields) (models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
}

type recordServiceImpl struct {
	store     RecordStore
	validator *schema.Validator
	hasher    PasswordHasher
	logger    zerolog.Logger
}

// NewRecordService creates a record lifecycle service.
func NewRecordService(store RecordStore, validator *schema.Validator, hasher PasswordHasher, logger zerolog.Logger) RecordService {
	return &recordServiceImpl{
		store:     store,
		validator: validator,
		hasher:    hasher,
		logger:    logger,
	}
}

// Create runs full schema validation and, only on success, hands the
// normalized bundle to storage. A rejected bundle never touches storage.
// Constraint violations the database reports after validation passed (a
// lost uniqueness race) come back as typed conflicts.
func (s *recordServiceImpl) Create(ctx context.Context, kind models.Kind, fields models.Fields) (models.Record, error) {
	normalized, err := s.validator.Validate(ctx, kind, fields)
	if err != nil {
		return nil, err
	}

	columns, err := s.columnsFor(kind, normalized)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Insert(ctx, kind, columns)
	if err != nil {
		return nil, s.storeError(kind, err, "create")
	}

	s.logger.Info().Str("kind", string(kind)).Int64("id", record.ID()).Msg("Record created")
	return record, nil
}

// Get retrieves one record.
func (s *recordServiceImpl) Get(ctx context.Context, kind models.Kind, id int64) (models.Record, error) {
	if id <= 0 {
		return nil, apperrors.ErrNotFound
	}
	record, err := s.store.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.storeError(kind, err, "get")
	}
	return record, nil
}

// List retrieves a page of records plus the total count.
func (s *recordServiceImpl) List(ctx context.Context, kind models.Kind, offset uint64, limit int) ([]models.Record, int64, error) {
	records, total, err := s.store.List(ctx, kind, offset, limit)
	if err != nil {
		return nil, 0, s.storeError(kind, err, "list")
	}
	return records, total, nil
}

// Update validates only the touched fields, merges them into the existing
// record and delegates to storage. A failed validation leaves the stored
// record untouched. Concurrent updates to the same id are last-write-wins
// at the storage layer; this layer does not implement optimistic locking.
func (s *recordServiceImpl) Update(ctx context.Context, kind models.Kind, id int64, fields models.Fields) (models.Record, error) {
	if id <= 0 {
		return nil, apperrors.ErrNotFound
	}
	if _, err := s.store.GetByID(ctx, kind, id); err != nil {
		return nil, s.storeError(kind, err, "update")
	}

	normalized, err := s.validator.ValidatePartial(ctx, kind, id, fields)
	if err != nil {
		return nil, err
	}

	columns, err := s.columnsFor(kind, normalized)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return s.store.GetByID(ctx, kind, id)
	}

	record, err := s.store.Update(ctx, kind, id, columns)
	if err != nil {
		return nil, s.storeError(kind, err, "update")
	}

	s.logger.Info().Str("kind", string(kind)).Int64("id", id).Msg("Record updated")
	return record, nil
}

// Delete removes a record; the storage layer cascades to dependent child
// records per the relationship graph.
func (s *recordServiceImpl) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if id <= 0 {
		return apperrors.ErrNotFound
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return s.storeError(kind, err, "delete")
	}
	s.logger.Info().Str("kind", string(kind)).Int64("id", id).Msg("Record deleted")
	return nil
}

// columnsFor maps validated field names onto storage columns, hashing
// secret fields on the way through.
func (s *recordServiceImpl) columnsFor(kind models.Kind, fields models.Fields) (map[string]interface{}, error) {
	def, ok := schema.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, kind)
	}

	columns := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		field := def.Field(name)
		if field == nil {
			continue
		}
		if field.Secret {
			plaintext, _ := value.(string)
			hashed, err := s.hasher.Hash(plaintext)
			if err != nil {
				return nil, apperrors.StorageFault(fmt.Errorf("hashing %s: %w", name, err))
			}
			columns[field.Column()] = hashed
			continue
		}
		columns[field.Column()] = value
	}
	return columns, nil
}

// storeError classifies storage failures: not-found and conflicts pass
// through typed, anything else is a non-recoverable storage fault.
func (s *recordServiceImpl) storeError(kind models.Kind, err error, op string) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) {
		return err
	}
	if errors.Is(err, apperrors.ErrUnknownKind) {
		return err
	}
	s.logger.Error().Err(err).Str("kind", string(kind)).Str("op", op).Msg("Storage fault")
	return apperrors.StorageFault(err)
}
