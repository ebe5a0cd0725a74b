package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/keays/mysql-adapter/dialect"
	"github.com/keays/mysql-adapter/dialect/sql"
	mschema "github.com/keays/mysql-adapter/schema"
)

// Migrate reconciles registered models against the live database schema.
// Models are processed independently and concurrently: a failure in one
// model's sync is recorded and logged but never aborts its siblings, and
// the aggregate report is produced only after all models finished.
type Migrate struct {
	drv         dialect.Driver
	reg         *mschema.Registry
	log         *slog.Logger
	concurrency int
	dryRun      bool
}

// MigrateOption configures a Migrate.
type MigrateOption func(*Migrate)

// WithLogger sets the logger used for per-model sync failures.
func WithLogger(log *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.log = log
	}
}

// WithConcurrency caps the number of models synced at the same time.
// Zero or negative means no cap.
func WithConcurrency(n int) MigrateOption {
	return func(m *Migrate) {
		m.concurrency = n
	}
}

// WithDryRun computes diffs without executing any statement, turning
// AutoUpdate into a drift check.
func WithDryRun() MigrateOption {
	return func(m *Migrate) {
		m.dryRun = true
	}
}

// NewMigrate returns a Migrate over the given driver and model registry.
func NewMigrate(drv dialect.Driver, reg *mschema.Registry, opts ...MigrateOption) *Migrate {
	m := &Migrate{drv: drv, reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// A Result is the outcome of one model's schema sync.
type Result struct {
	Model      string
	Statements []string // the statements executed, or that would be executed
	Err        error
}

// InSync reports whether the model's live schema already matched the
// declared one.
func (r Result) InSync() bool {
	return r.Err == nil && len(r.Statements) == 0
}

// A Report aggregates the per-model results of one sync pass.
type Report struct {
	Results []Result
}

// InSync reports whether every model's schema is in sync: no pending
// statements and no errors.
func (r *Report) InSync() bool {
	for _, res := range r.Results {
		if !res.InSync() {
			return false
		}
	}
	return true
}

// Err returns the joined per-model errors, or nil if all models synced
// cleanly.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Model, res.Err))
		}
	}
	return errors.Join(errs...)
}

// AutoUpdate introspects each model's table, computes the schema diff and
// issues the reconciling ALTER TABLE statement. With no names given, all
// registered models are synced. Per-model failures are logged and reported;
// the pass always runs to completion.
func (m *Migrate) AutoUpdate(ctx context.Context, names ...string) *Report {
	return m.forEach(ctx, names, func(ctx context.Context, model *mschema.Model) ([]string, error) {
		return m.updateTable(ctx, model, m.dryRun)
	})
}

// Check computes every model's diff without executing anything. The report's
// InSync answers whether any drift exists across all models.
func (m *Migrate) Check(ctx context.Context, names ...string) *Report {
	return m.forEach(ctx, names, func(ctx context.Context, model *mschema.Model) ([]string, error) {
		return m.updateTable(ctx, model, true)
	})
}

// AutoMigrate drops and recreates each model's table. Destructive: all data
// in the affected tables is lost.
func (m *Migrate) AutoMigrate(ctx context.Context, names ...string) *Report {
	return m.forEach(ctx, names, func(ctx context.Context, model *mschema.Model) ([]string, error) {
		stmts := []string{sql.BuildDropTable(model), sql.BuildCreateTable(model)}
		if m.dryRun {
			return stmts, nil
		}
		for _, stmt := range stmts {
			if err := m.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
				return stmts, err
			}
		}
		return stmts, nil
	})
}

func (m *Migrate) forEach(ctx context.Context, names []string, fn func(context.Context, *mschema.Model) ([]string, error)) *Report {
	if len(names) == 0 {
		names = m.reg.Names()
	}
	results := make([]Result, len(names))
	// The group is used for the join and the concurrency cap only; worker
	// errors are recorded per model, never returned, so one model's failure
	// cannot cancel its siblings.
	var g errgroup.Group
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res := Result{Model: name}
			model, err := m.reg.Model(name)
			if err == nil {
				res.Statements, res.Err = fn(ctx, model)
			} else {
				res.Err = err
			}
			if res.Err != nil {
				m.log.Error("schema sync failed", "model", name, "error", res.Err)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return &Report{Results: results}
}

func (m *Migrate) updateTable(ctx context.Context, model *mschema.Model, dry bool) ([]string, error) {
	cols, err := m.TableColumns(ctx, model)
	if err != nil {
		return nil, err
	}
	parts, err := m.TableIndexes(ctx, model)
	if err != nil {
		return nil, err
	}
	changes := Diff(model, cols, parts)
	if len(changes) == 0 {
		return nil, nil
	}
	stmt := "ALTER TABLE " + sql.Ident(model.Table()) + " " + strings.Join(changes, ",\n")
	if dry {
		return []string{stmt}, nil
	}
	if err := m.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
		return []string{stmt}, err
	}
	return []string{stmt}, nil
}

// TableColumns introspects the live columns of the model's table.
func (m *Migrate) TableColumns(ctx context.Context, model *mschema.Model) ([]Column, error) {
	rows := &sql.Rows{}
	if err := m.drv.Query(ctx, "SHOW FIELDS FROM "+sql.Ident(model.Table()), []any{}, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	pos, err := columnPositions(rows, "Field", "Type", "Null")
	if err != nil {
		return nil, err
	}
	var cols []Column
	for rows.Next() {
		vals, err := scanStrings(rows, len(pos.cols))
		if err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:     vals[pos.at["Field"]],
			Type:     vals[pos.at["Type"]],
			Nullable: strings.EqualFold(vals[pos.at["Null"]], "YES"),
		})
	}
	return cols, rows.Err()
}

// TableIndexes introspects the live indexes of the model's table as ordered
// (index, column, position) parts.
func (m *Migrate) TableIndexes(ctx context.Context, model *mschema.Model) ([]IndexPart, error) {
	rows := &sql.Rows{}
	if err := m.drv.Query(ctx, "SHOW INDEXES FROM "+sql.Ident(model.Table()), []any{}, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	pos, err := columnPositions(rows, "Key_name", "Column_name", "Seq_in_index")
	if err != nil {
		return nil, err
	}
	var parts []IndexPart
	for rows.Next() {
		vals, err := scanStrings(rows, len(pos.cols))
		if err != nil {
			return nil, err
		}
		seq, err := strconv.Atoi(vals[pos.at["Seq_in_index"]])
		if err != nil {
			return nil, fmt.Errorf("schema: invalid index sequence %q: %w", vals[pos.at["Seq_in_index"]], err)
		}
		parts = append(parts, IndexPart{
			Index:  vals[pos.at["Key_name"]],
			Column: vals[pos.at["Column_name"]],
			Seq:    seq,
		})
	}
	return parts, rows.Err()
}

// positions maps required column names to their position in the result set.
// SHOW FIELDS and SHOW INDEXES column layouts vary across server versions,
// so columns are located by name rather than by index.
type positions struct {
	cols []string
	at   map[string]int
}

func columnPositions(rows *sql.Rows, required ...string) (positions, error) {
	cols, err := rows.Columns()
	if err != nil {
		return positions{}, err
	}
	p := positions{cols: cols, at: make(map[string]int, len(required))}
	for i, c := range cols {
		p.at[c] = i
	}
	for _, r := range required {
		if _, ok := p.at[r]; !ok {
			return positions{}, fmt.Errorf("schema: introspection result misses column %q", r)
		}
	}
	return p, nil
}

func scanStrings(rows *sql.Rows, n int) ([]string, error) {
	null := make([]sql.NullString, n)
	dest := make([]any, n)
	for i := range dest {
		dest[i] = &null[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	vals := make([]string, n)
	for i := range null {
		vals[i] = null[i].String
	}
	return vals, nil
}
