// Package schema reconciles a model's declared schema with the live
// database schema. The diff is pure and idempotent: applying its output
// once and diffing again yields no further changes.
package schema

import (
	"sort"
	"strings"

	"github.com/keays/mysql-adapter/dialect/sql"
	mschema "github.com/keays/mysql-adapter/schema"
)

// A Column is an introspected live column.
type Column struct {
	Name     string
	Type     string // native type string, e.g. "varchar(255)"
	Nullable bool
}

// An IndexPart is one column of an introspected live index, with its
// 1-based position within that index.
type IndexPart struct {
	Index  string
	Column string
	Seq    int
}

// primaryIndex is the reserved name of the primary-key index, exempt from
// diffing.
const primaryIndex = "PRIMARY"

// Diff compares the declared model schema against the introspected live
// columns and indexes, and returns the ALTER fragments that reconcile them:
// column additions and changes first, then column drops, index drops and
// index additions. An empty result means the schemas already match.
//
// Composite indexes are compared positionally; a column-order mismatch
// drops the live index and re-adds it fresh, since in-place reordering is
// not supported.
func Diff(m *mschema.Model, cols []Column, parts []IndexPart) []string {
	var changes []string
	live := make(map[string]Column, len(cols))
	for _, c := range cols {
		live[c.Name] = c
	}

	for _, d := range m.Fields() {
		c, ok := live[d.Name]
		if !ok {
			changes = append(changes, "ADD COLUMN "+sql.Ident(d.Name)+" "+sql.ColumnDefinition(d))
			continue
		}
		if c.Nullable != d.Nullable || !strings.EqualFold(c.Type, sql.ColumnType(d)) {
			changes = append(changes, "CHANGE COLUMN "+sql.Ident(d.Name)+" "+sql.Ident(d.Name)+" "+sql.ColumnDefinition(d))
		}
	}
	for _, c := range cols {
		if c.Name == mschema.PrimaryKey {
			continue
		}
		if m.Field(c.Name) == nil {
			changes = append(changes, "DROP COLUMN "+sql.Ident(c.Name))
		}
	}

	names, byName := groupIndexes(parts)
	kept := make(map[string]bool, len(names))
	for _, name := range names {
		if name == primaryIndex {
			continue
		}
		liveCols := byName[name]
		if d := m.Field(name); d != nil && d.Index != nil &&
			len(liveCols) == 1 && liveCols[0] == d.Name {
			kept[name] = true
			continue
		}
		if ci := m.CompositeIndex(name); ci != nil && equalColumns(ci.Columns, liveCols) {
			kept[name] = true
			continue
		}
		changes = append(changes, "DROP INDEX "+sql.Ident(name))
	}

	for _, d := range m.Fields() {
		if d.Index != nil && !kept[d.Name] {
			changes = append(changes, "ADD "+sql.IndexDefinition(d))
		}
	}
	for _, ci := range m.Indexes() {
		if !kept[ci.Name] {
			changes = append(changes, "ADD "+sql.CompositeIndexDefinition(ci))
		}
	}
	return changes
}

// groupIndexes groups the introspected index parts into ordered column
// sequences, keyed by index name. Names keep their first-seen order so the
// emitted fragments are deterministic; within each index the columns are
// ordered by their sequence position, regardless of row order. Rows of
// different indexes may interleave in the result set.
func groupIndexes(parts []IndexPart) ([]string, map[string][]string) {
	var names []string
	grouped := make(map[string][]IndexPart)
	for _, p := range parts {
		if _, ok := grouped[p.Index]; !ok {
			names = append(names, p.Index)
		}
		grouped[p.Index] = append(grouped[p.Index], p)
	}
	byName := make(map[string][]string, len(grouped))
	for name, ps := range grouped {
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Seq < ps[j].Seq
		})
		cols := make([]string, len(ps))
		for i, p := range ps {
			cols[i] = p.Column
		}
		byName[name] = cols
	}
	return names, byName
}

func equalColumns(declared, live []string) bool {
	if len(declared) != len(live) {
		return false
	}
	for i := range declared {
		if declared[i] != live[i] {
			return false
		}
	}
	return true
}
