// Package schema declares, per record kind, which fields exist, which are
// required and which validation rules apply to each. Definitions are plain
// data tables; the same rule (for example "dates are never in the future")
// applies uniformly across every kind that declares it.
package schema

import (
	"context"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/pkg/validation"
)

// Field declares one column of an entity schema.
type Field struct {
	// Name is the field name as it appears in request bundles.
	Name string
	// Required marks the field mandatory on create.
	Required bool
	// Rules run in order; the first failure is reported for this field.
	Rules []validation.Rule
	// Unique fields are checked against existing records through the
	// injected uniqueness checker.
	Unique bool
	// Ref names the record kind a *_id field must reference.
	Ref models.Kind
	// Secret fields are hashed before storage and excluded from reads.
	Secret bool
	// StoreAs overrides the storage column name (password -> password_hash).
	StoreAs string
	// Temporal fields arrive as ISO-8601 strings and are parsed at the
	// boundary before rules run.
	Temporal bool
	// DefaultNow fields default to the current time when absent on create.
	DefaultNow bool
	// TouchOnUpdate fields are refreshed to the current time on update.
	TouchOnUpdate bool
}

// Column is the storage column backing this field.
func (f *Field) Column() string {
	if f.StoreAs != "" {
		return f.StoreAs
	}
	return f.Name
}

// Definition is the declarative schema of one record kind.
type Definition struct {
	Kind  models.Kind
	Table string
	// Path is the collection segment in the REST API ("students").
	Path   string
	Fields []Field
}

// Field returns the declaration for name, or nil when the kind has no such
// field.
func (d *Definition) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Columns returns the readable storage columns, id first. Secret columns
// are omitted so password hashes never leave the storage layer.
func (d *Definition) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, "id")
	for i := range d.Fields {
		if d.Fields[i].Secret {
			continue
		}
		cols = append(cols, d.Fields[i].Column())
	}
	return cols
}

// UniquenessChecker consults the storage boundary for value collisions on
// fields marked unique. excludeID ignores the record being updated so a
// record never collides with itself; it is zero on create. The
// application-level check is advisory; the storage constraint remains the
// authority of record.
type UniquenessChecker interface {
	IsTaken(ctx context.Context, kind models.Kind, field string, value interface{}, excludeID int64) (bool, error)
}

// ExistenceChecker consults the storage boundary for foreign-key presence.
type ExistenceChecker interface {
	Exists(ctx context.Context, kind models.Kind, id int64) (bool, error)
}
