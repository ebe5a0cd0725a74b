// Package adapter translates a backend-agnostic ORM protocol into MySQL
// statements and back. The host framework owns model definitions,
// validations and the public data-access API; this package supplies the
// persistence backend: SQL generation, row decoding and schema sync.
package adapter

import (
	"context"
	"log/slog"

	"github.com/keays/mysql-adapter/dialect"
	"github.com/keays/mysql-adapter/dialect/sql"
	sqlschema "github.com/keays/mysql-adapter/dialect/sql/schema"
	"github.com/keays/mysql-adapter/query"
	"github.com/keays/mysql-adapter/schema"
	"github.com/keays/mysql-adapter/schema/field"
)

// Skip marks a data value as absent: the field is left out of the generated
// statement entirely. It is distinct from nil, which renders SQL NULL.
var Skip = sql.Skip

// idField renders and decodes the implicit primary key.
var idField = &field.Descriptor{Name: schema.PrimaryKey, Type: field.TypeNumber}

// An Adapter is a MySQL persistence backend. Each instance owns its own
// model registry; there is no process-wide model state.
type Adapter struct {
	drv dialect.Driver
	reg *schema.Registry
	log *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used by the adapter and its schema sync.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// WithRegistry replaces the adapter's model registry. Useful when the host
// framework pre-builds the registry or shares it across adapters it owns.
func WithRegistry(reg *schema.Registry) Option {
	return func(a *Adapter) {
		a.reg = reg
	}
}

// New returns an Adapter over the given driver with an empty registry.
func New(drv dialect.Driver, opts ...Option) *Adapter {
	a := &Adapter{drv: drv, reg: schema.NewRegistry(), log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Define registers a model schema with the adapter.
func (a *Adapter) Define(m *schema.Model) error {
	return a.reg.Define(m)
}

// Registry returns the adapter's model registry.
func (a *Adapter) Registry() *schema.Registry {
	return a.reg
}

// Driver returns the adapter's driver.
func (a *Adapter) Driver() dialect.Driver {
	return a.drv
}

// Migrate returns a schema sync engine over the adapter's registry.
func (a *Adapter) Migrate(opts ...sqlschema.MigrateOption) *sqlschema.Migrate {
	opts = append([]sqlschema.MigrateOption{sqlschema.WithLogger(a.log)}, opts...)
	return sqlschema.NewMigrate(a.drv, a.reg, opts...)
}

// Create inserts a new row and returns its generated primary key.
func (a *Adapter) Create(ctx context.Context, model string, data map[string]any) (int64, error) {
	m, err := a.reg.Model(model)
	if err != nil {
		return 0, err
	}
	stmt, err := sql.BuildInsert(m, data)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if err := a.drv.Exec(ctx, stmt, []any{}, &res); err != nil {
		return 0, wrapError(model, "create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapError(model, "create", err)
	}
	return id, nil
}

// UpdateOrCreate inserts the row or updates it in place when its primary or
// a unique key already exists. A freshly generated primary key is written
// back into data under "id" and returned.
func (a *Adapter) UpdateOrCreate(ctx context.Context, model string, data map[string]any) (int64, error) {
	m, err := a.reg.Model(model)
	if err != nil {
		return 0, err
	}
	stmt, err := sql.BuildUpsert(m, data)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if err := a.drv.Exec(ctx, stmt, []any{}, &res); err != nil {
		return 0, wrapError(model, "upsert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapError(model, "upsert", err)
	}
	if id != 0 {
		data[schema.PrimaryKey] = id
	}
	return id, nil
}

// Update updates the row with the given primary key.
func (a *Adapter) Update(ctx context.Context, model string, id any, data map[string]any) error {
	m, err := a.reg.Model(model)
	if err != nil {
		return err
	}
	stmt, err := sql.BuildUpdate(m, id, data)
	if err != nil {
		return err
	}
	if err := a.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
		return wrapError(model, "update", err)
	}
	return nil
}

// UpdateAttributes updates a subset of the row's properties by primary key.
// Keys absent from data keep their stored values; it never clears fields
// that are simply not mentioned.
func (a *Adapter) UpdateAttributes(ctx context.Context, model string, id any, data map[string]any) error {
	return a.Update(ctx, model, id, data)
}

// Exists reports whether a row with the given primary key exists.
func (a *Adapter) Exists(ctx context.Context, model string, id any) (bool, error) {
	m, err := a.reg.Model(model)
	if err != nil {
		return false, err
	}
	stmt, err := sql.BuildExists(m, id)
	if err != nil {
		return false, err
	}
	rows := &sql.Rows{}
	if err := a.drv.Query(ctx, stmt, []any{}, rows); err != nil {
		return false, wrapError(model, "exists", err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// Find returns the row with the given primary key as a decoded field map.
func (a *Adapter) Find(ctx context.Context, model string, id any) (map[string]any, error) {
	m, err := a.reg.Model(model)
	if err != nil {
		return nil, err
	}
	stmt, err := sql.BuildFind(m, id)
	if err != nil {
		return nil, err
	}
	rows := &sql.Rows{}
	if err := a.drv.Query(ctx, stmt, []any{}, rows); err != nil {
		return nil, wrapError(model, "find", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapError(model, "find", err)
		}
		return nil, &NotFoundError{model: model, id: id}
	}
	return decodeRow(m, rows)
}

// All returns the rows matching the filter as decoded field maps. The
// returned slice is never nil, so callers can treat results and errors
// uniformly.
func (a *Adapter) All(ctx context.Context, model string, f *query.Filter) ([]map[string]any, error) {
	out := make([]map[string]any, 0)
	m, err := a.reg.Model(model)
	if err != nil {
		return out, err
	}
	stmt, err := sql.BuildSelect(m, f)
	if err != nil {
		return out, err
	}
	rows := &sql.Rows{}
	if err := a.drv.Query(ctx, stmt, []any{}, rows); err != nil {
		return out, wrapError(model, "all", err)
	}
	defer rows.Close()
	for rows.Next() {
		row, err := decodeRow(m, rows)
		if err != nil {
			return out, wrapError(model, "all", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return out, wrapError(model, "all", err)
	}
	return out, nil
}

// Count returns the number of rows matching the where-conditions.
func (a *Adapter) Count(ctx context.Context, model string, where map[string]query.Cond) (int64, error) {
	m, err := a.reg.Model(model)
	if err != nil {
		return 0, err
	}
	stmt, err := sql.BuildCount(m, where)
	if err != nil {
		return 0, err
	}
	rows := &sql.Rows{}
	if err := a.drv.Query(ctx, stmt, []any{}, rows); err != nil {
		return 0, wrapError(model, "count", err)
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, wrapError(model, "count", err)
		}
	}
	return n, rows.Err()
}

// Destroy deletes the row with the given primary key.
func (a *Adapter) Destroy(ctx context.Context, model string, id any) error {
	m, err := a.reg.Model(model)
	if err != nil {
		return err
	}
	stmt, err := sql.BuildDelete(m, id)
	if err != nil {
		return err
	}
	if err := a.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
		return wrapError(model, "destroy", err)
	}
	return nil
}

// DestroyAll deletes every row of the model's table.
func (a *Adapter) DestroyAll(ctx context.Context, model string) error {
	m, err := a.reg.Model(model)
	if err != nil {
		return err
	}
	if err := a.drv.Exec(ctx, sql.BuildDeleteAll(m), []any{}, nil); err != nil {
		return wrapError(model, "destroy all", err)
	}
	return nil
}

// decodeRow scans the current row and decodes each column through the
// value codec: dates become UTC time.Time, booleans strict bools, other
// types pass through.
func decodeRow(m *schema.Model, rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(cols))
	for i, name := range cols {
		d := m.Field(name)
		if name == schema.PrimaryKey {
			d = idField
		}
		v, err := sql.Decode(d, raw[i])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
