package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/schema"
	"github.com/cagri/classroom/internal/pkg/apperrors"
	"github.com/cagri/classroom/internal/pkg/dberrors"
	"github.com/cagri/classroom/internal/pkg/logger"
)

// RecordRepository persists records of every kind through one schema-driven
// implementation. Table and column names come from the schema definitions,
// so adding a kind means adding a declaration, not another repository.
//
// Constraint violations detected here are the storage layer acting as the
// final authority: application-level checks may have passed and still lose
// the race, which is why 23505/23503 surface as conflicts rather than raw
// faults.
type RecordRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func definitionOf(kind models.Kind) (*schema.Definition, error) {
	def, ok := schema.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, kind)
	}
	return def, nil
}

// Insert stores a fully validated column map and returns the stored record
// with its generated id.
func (r *RecordRepository) Insert(ctx context.Context, kind models.Kind, columns map[string]interface{}) (models.Record, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Insert(def.Table).
		SetMap(columns).
		Suffix("RETURNING " + strings.Join(def.Columns(), ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query for %s: %w", def.Table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.translate(def, err, "inserting")
	}
	record, err := collectOne(rows)
	if err != nil {
		return nil, r.translate(def, err, "inserting")
	}
	return record, nil
}

// GetByID retrieves one record, without its secret columns.
func (r *RecordRepository) GetByID(ctx context.Context, kind models.Kind, id int64) (models.Record, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Select(def.Columns()...).
		From(def.Table).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query for %s: %w", def.Table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.translate(def, err, "getting")
	}
	record, err := collectOne(rows)
	if err != nil {
		return nil, r.translate(def, err, "getting")
	}
	return record, nil
}

// List retrieves a page of records ordered by id, plus the total count.
func (r *RecordRepository) List(ctx context.Context, kind models.Kind, offset uint64, limit int) ([]models.Record, int64, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From(def.Table).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query for %s: %w", def.Table, err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, r.translate(def, err, "counting")
	}

	sql, args, err := r.sb.Select(def.Columns()...).
		From(def.Table).
		OrderBy("id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query for %s: %w", def.Table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, r.translate(def, err, "listing")
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning %s row: %w", def.Table, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s rows: %w", def.Table, err)
	}
	return records, total, nil
}

// Update applies a validated partial column map and returns the new record.
func (r *RecordRepository) Update(ctx context.Context, kind models.Kind, id int64, columns map[string]interface{}) (models.Record, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Update(def.Table).
		SetMap(columns).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(def.Columns(), ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query for %s: %w", def.Table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.translate(def, err, "updating")
	}
	record, err := collectOne(rows)
	if err != nil {
		return nil, r.translate(def, err, "updating")
	}
	return record, nil
}

// Delete removes a record. Dependent child rows go with it through the
// ON DELETE CASCADE constraints declared in the migrations.
func (r *RecordRepository) Delete(ctx context.Context, kind models.Kind, id int64) error {
	def, err := definitionOf(kind)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Delete(def.Table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query for %s: %w", def.Table, err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return r.translate(def, err, "deleting")
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Exists implements schema.ExistenceChecker.
func (r *RecordRepository) Exists(ctx context.Context, kind models.Kind, id int64) (bool, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return false, err
	}

	sql, args, err := r.sb.Select("1").
		From(def.Table).
		Where(squirrel.Eq{"id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build existence query for %s: %w", def.Table, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("error checking %s existence: %w", def.Table, err)
	}
	return exists, nil
}

// IsTaken implements schema.UniquenessChecker. This check-then-insert probe
// is advisory; the unique constraint catches whatever it misses.
func (r *RecordRepository) IsTaken(ctx context.Context, kind models.Kind, field string, value interface{}, excludeID int64) (bool, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return false, err
	}

	where := squirrel.And{squirrel.Eq{field: value}}
	if excludeID > 0 {
		where = append(where, squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := r.sb.Select("1").
		From(def.Table).
		Where(where).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build uniqueness query for %s: %w", def.Table, err)
	}

	var taken bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&taken); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("error checking %s uniqueness: %w", def.Table, err)
	}
	return taken, nil
}

// FindForAuth retrieves one record by field match including its password
// hash. Only the authentication flow reads secret columns.
func (r *RecordRepository) FindForAuth(ctx context.Context, kind models.Kind, field string, value interface{}) (models.Record, string, error) {
	def, err := definitionOf(kind)
	if err != nil {
		return nil, "", err
	}

	cols := append(def.Columns(), "password_hash")
	sql, args, err := r.sb.Select(cols...).
		From(def.Table).
		Where(squirrel.Eq{field: value}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build auth query for %s: %w", def.Table, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, "", r.translate(def, err, "authenticating")
	}
	record, err := collectOne(rows)
	if err != nil {
		return nil, "", r.translate(def, err, "authenticating")
	}

	hash, _ := record["password_hash"].(string)
	delete(record, "password_hash")
	return record, hash, nil
}

// translate maps driver errors onto the repository's error contract:
// missing rows become ErrNotFound, constraint violations become typed
// conflicts attributed to a field where possible, and everything else is
// wrapped unchanged.
func (r *RecordRepository) translate(def *schema.Definition, err error, verb string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if constraint, ok := dberrors.UniqueViolation(err); ok {
		field := fieldFromConstraint(def, constraint)
		logger.Warn().Str("table", def.Table).Str("constraint", constraint).Msg("Unique constraint violation")
		return apperrors.NewConflictError(field, conflictMessage(field, "already exists"))
	}
	if constraint, ok := dberrors.ForeignKeyViolation(err); ok {
		field := fieldFromConstraint(def, constraint)
		logger.Warn().Str("table", def.Table).Str("constraint", constraint).Msg("Foreign key violation")
		return apperrors.NewConflictError(field, conflictMessage(field, "references a missing or still-referenced record"))
	}
	logger.Error().Err(err).Str("table", def.Table).Msg("Database error")
	return fmt.Errorf("error %s %s record: %w", verb, def.Table, err)
}

// fieldFromConstraint recovers the column a constraint protects from names
// like "students_username_key" or "courses_instructor_id_fkey".
func fieldFromConstraint(def *schema.Definition, constraint string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(constraint, "_fkey"), "_key")
	name = strings.TrimPrefix(name, def.Table+"_")
	if def.Field(name) != nil {
		return name
	}
	return ""
}

func conflictMessage(field, suffix string) string {
	if field == "" {
		return "record " + suffix
	}
	return field + " " + suffix
}

// collectOne drains a single-row result set into a record.
func collectOne(rows pgx.Rows) (models.Record, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	record, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return record, rows.Err()
}

// scanRecord builds a column-name-keyed record from the current row.
func scanRecord(rows pgx.Rows) (models.Record, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	record := make(models.Record, len(values))
	for i, fd := range rows.FieldDescriptions() {
		record[string(fd.Name)] = values[i]
	}
	return record, nil
}
