package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/schema"
	"github.com/cagri/classroom/internal/pkg/apperrors"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory RecordStore that also serves as the validator's
// uniqueness and existence checker, so the two layers see the same data.
type fakeStore struct {
	records map[models.Kind]map[int64]models.Record
	nextID  int64
	failAll error // when set, every operation fails with this error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[models.Kind]map[int64]models.Record)}
}

func (s *fakeStore) Insert(_ context.Context, kind models.Kind, columns map[string]interface{}) (models.Record, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	s.nextID++
	record := models.Record{"id": s.nextID}
	for name, value := range columns {
		record[name] = value
	}
	if s.records[kind] == nil {
		s.records[kind] = make(map[int64]models.Record)
	}
	s.records[kind][s.nextID] = record
	return record, nil
}

func (s *fakeStore) GetByID(_ context.Context, kind models.Kind, id int64) (models.Record, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	record, ok := s.records[kind][id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) List(_ context.Context, kind models.Kind, offset uint64, limit int) ([]models.Record, int64, error) {
	if s.failAll != nil {
		return nil, 0, s.failAll
	}
	var all []models.Record
	for id := int64(1); id <= s.nextID; id++ {
		if record, ok := s.records[kind][id]; ok {
			all = append(all, record)
		}
	}
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *fakeStore) Update(_ context.Context, kind models.Kind, id int64, columns map[string]interface{}) (models.Record, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	record, ok := s.records[kind][id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for name, value := range columns {
		record[name] = value
	}
	return record, nil
}

func (s *fakeStore) Delete(_ context.Context, kind models.Kind, id int64) error {
	if s.failAll != nil {
		return s.failAll
	}
	if _, ok := s.records[kind][id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.records[kind], id)
	return nil
}

func (s *fakeStore) IsTaken(_ context.Context, kind models.Kind, field string, value interface{}, excludeID int64) (bool, error) {
	if s.failAll != nil {
		return false, s.failAll
	}
	def, _ := schema.Lookup(kind)
	column := field
	if f := def.Field(field); f != nil {
		column = f.Column()
	}
	for id, record := range s.records[kind] {
		if id == excludeID {
			continue
		}
		if record[column] == value {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Exists(_ context.Context, kind models.Kind, id int64) (bool, error) {
	if s.failAll != nil {
		return false, s.failAll
	}
	_, ok := s.records[kind][id]
	return ok, nil
}

type fakeHasher struct{ err error }

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func newTestService(store *fakeStore) RecordService {
	validator := schema.NewValidator(func() time.Time { return testNow }, store, store)
	return NewRecordService(store, validator, &fakeHasher{}, zerolog.Nop())
}

func studentFields() models.Fields {
	return models.Fields{
		"username":        "jsmith22",
		"first_name":      "Jane",
		"last_name":       "Smith",
		"email":           "jane@example.com",
		"password":        "hunter2hunter2",
		"profile_picture": "https://example.com/jane.png",
	}
}

func TestCreateStoresValidatedRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	record, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ID())
	assert.Equal(t, "jsmith22", record["username"])
}

func TestCreateHashesSecretFields(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	stored := store.records[models.KindStudent][1]
	assert.Equal(t, "hashed:hunter2hunter2", stored["password_hash"],
		"the plaintext is hashed into the storage column")
	_, hasPlaintext := stored["password"]
	assert.False(t, hasPlaintext)
}

func TestCreateInvalidBundleNeverReachesStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	fields := studentFields()
	fields["username"] = "abc"
	fields["email"] = "bad"

	_, err := svc.Create(context.Background(), models.KindStudent, fields)
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 2)
	assert.Empty(t, store.records[models.KindStudent], "a rejected bundle never touches storage")
}

func TestCreateDuplicateIsRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	fields := studentFields()
	fields["username"] = "other-user"
	_, err = svc.Create(context.Background(), models.KindStudent, fields)
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "email", ve.Errors[0].Field)
	assert.Equal(t, apperrors.RuleUniqueness, ve.Errors[0].Rule)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Get(context.Background(), models.KindStudent, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(context.Background(), models.KindStudent, -1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListReturnsPageAndTotal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	for i := 0; i < 3; i++ {
		fields := studentFields()
		fields["username"] = "student-" + string(rune('a'+i))
		fields["email"] = string(rune('a'+i)) + "@example.com"
		_, err := svc.Create(context.Background(), models.KindStudent, fields)
		require.NoError(t, err)
	}

	records, total, err := svc.List(context.Background(), models.KindStudent, 0, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(3), total)

	records, total, err = svc.List(context.Background(), models.KindStudent, 2, 2)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int64(3), total)
}

func TestUpdateAppliesOnlyTouchedFields(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), models.KindStudent, created.ID(), models.Fields{
		"first_name": "Janet",
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated["first_name"])
	assert.Equal(t, "jsmith22", updated["username"], "untouched fields keep their values")
}

func TestUpdateRejectionLeavesRecordUntouched(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), models.KindStudent, created.ID(), models.Fields{
		"username": "ab",
	})
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))

	current, err := svc.Get(context.Background(), models.KindStudent, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "jsmith22", current["username"])
}

func TestUpdateOwnUniqueValueDoesNotSelfCollide(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), models.KindStudent, created.ID(), models.Fields{
		"email": "jane@example.com",
	})
	assert.NoError(t, err, "resubmitting the record's own email is not a collision")
}

func TestUpdateMissingRecordIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Update(context.Background(), models.KindStudent, 7, models.Fields{
		"first_name": "Janet",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateHashesReplacementPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), models.KindStudent, created.ID(), models.Fields{
		"password": "newsecret99",
	})
	require.NoError(t, err)
	assert.Equal(t, "hashed:newsecret99", store.records[models.KindStudent][created.ID()]["password_hash"])
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), models.KindStudent, created.ID()))

	_, err = svc.Get(context.Background(), models.KindStudent, created.ID())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), models.KindStudent, created.ID()), apperrors.ErrNotFound,
		"deleting twice reports not found")
}

func TestStoreConflictPassesThroughTyped(t *testing.T) {
	store := newFakeStore()

	// Simulate a uniqueness race: validation passed, but the store reports a
	// constraint violation at commit time.
	conflict := apperrors.NewConflictError("email", "email already exists")
	racing := &conflictOnInsert{fakeStore: store, err: conflict}
	validator := schema.NewValidator(func() time.Time { return testNow }, store, store)
	svcRacing := NewRecordService(racing, validator, &fakeHasher{}, zerolog.Nop())

	_, err := svcRacing.Create(context.Background(), models.KindStudent, studentFields())
	var ce *apperrors.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "email", ce.Field)
}

type conflictOnInsert struct {
	*fakeStore
	err error
}

func (s *conflictOnInsert) Insert(context.Context, models.Kind, map[string]interface{}) (models.Record, error) {
	return nil, s.err
}

func TestStoreFailureIsStorageFault(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.KindStudent, studentFields())
	require.NoError(t, err)

	store.failAll = errors.New("connection reset")
	_, err = svc.Get(context.Background(), models.KindStudent, 1)
	assert.ErrorIs(t, err, apperrors.ErrStorageFault)

	_, _, err = svc.List(context.Background(), models.KindStudent, 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrStorageFault)
}

func TestCreateUnknownKind(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), models.Kind("widgets"), models.Fields{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownKind)
}
