// Package schema holds the declared model schemas and the per-adapter
// registry that owns them. The adapter only reads schemas; the host
// framework declares them once at registration time.
package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-openapi/inflect"

	"github.com/keays/mysql-adapter/schema/field"
)

// PrimaryKey is the implicit auto-generated primary key column of every
// model. It is never part of the declared property set.
const PrimaryKey = "id"

// An Index is a named composite index over an ordered set of columns.
// Column order is significant and compared positionally against the live
// schema.
type Index struct {
	Name    string
	Columns []string
	Kind    string // optional modifier, e.g. "UNIQUE"
	Using   string // optional algorithm, e.g. "BTREE"
}

// A Model is the declared schema of one model: an ordered property set plus
// named composite indexes. The primary key is implicit and excluded.
type Model struct {
	name    string
	table   string
	order   []string
	fields  map[string]*field.Descriptor
	indexes []Index
}

// New returns a new model schema with the given properties, in declaration
// order. Declaring a property named "id" or declaring the same name twice
// panics: both are programming errors in the host's model definition.
func New(name string, fields ...*field.Descriptor) *Model {
	m := &Model{
		name:   name,
		table:  inflect.Underscore(name),
		fields: make(map[string]*field.Descriptor, len(fields)),
	}
	for _, f := range fields {
		if f.Name == PrimaryKey {
			panic(fmt.Sprintf("schema: model %s declares reserved property %q", name, PrimaryKey))
		}
		if _, ok := m.fields[f.Name]; ok {
			panic(fmt.Sprintf("schema: model %s declares property %q twice", name, f.Name))
		}
		m.fields[f.Name] = f
		m.order = append(m.order, f.Name)
	}
	return m
}

// AddIndex declares a named composite index. Index names other than the
// primary key's must be unique per table.
func (m *Model) AddIndex(idx Index) *Model {
	m.indexes = append(m.indexes, idx)
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Table returns the table name backing the model.
func (m *Model) Table() string { return m.table }

// Field returns the descriptor of the named property, or nil if the model
// does not declare it.
func (m *Model) Field(name string) *field.Descriptor {
	return m.fields[name]
}

// Fields returns the property descriptors in declaration order.
func (m *Model) Fields() []*field.Descriptor {
	fs := make([]*field.Descriptor, 0, len(m.order))
	for _, name := range m.order {
		fs = append(fs, m.fields[name])
	}
	return fs
}

// Indexes returns the declared composite indexes.
func (m *Model) Indexes() []Index {
	return m.indexes
}

// CompositeIndex returns the declared composite index with the given name,
// or nil if none is declared.
func (m *Model) CompositeIndex(name string) *Index {
	for i := range m.indexes {
		if m.indexes[i].Name == name {
			return &m.indexes[i]
		}
	}
	return nil
}

// A Registry maps model names to their declared schemas. Each adapter
// instance owns its own registry; there is no process-wide model state.
type Registry struct {
	mu        sync.RWMutex
	models    map[string]*Model
	pluralize bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// PluralizeTables derives table names by pluralizing the underscored model
// name ("OrderItem" becomes "order_items" instead of "order_item").
func PluralizeTables() RegistryOption {
	return func(r *Registry) {
		r.pluralize = true
	}
}

// NewRegistry returns an empty model registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{models: make(map[string]*Model)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define registers a model schema. Defining the same name twice is an error.
func (r *Registry) Define(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[m.name]; ok {
		return fmt.Errorf("schema: model %q already defined", m.name)
	}
	if r.pluralize {
		m.table = inflect.Pluralize(m.table)
	}
	r.models[m.name] = m
	return nil
}

// Model returns the schema registered under the given name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("schema: unknown model %q", name)
	}
	return m, nil
}

// Names returns the registered model names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
