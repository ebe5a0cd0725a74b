package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keays/mysql-adapter/schema/field"
)

func TestNew(t *testing.T) {
	m := New("OrderItem",
		field.String("sku"),
		field.Number("quantity"),
	)
	assert.Equal(t, "OrderItem", m.Name())
	assert.Equal(t, "order_item", m.Table())

	fs := m.Fields()
	require.Len(t, fs, 2)
	assert.Equal(t, "sku", fs[0].Name)
	assert.Equal(t, "quantity", fs[1].Name)

	assert.NotNil(t, m.Field("sku"))
	assert.Nil(t, m.Field("missing"))
	assert.Nil(t, m.Field(PrimaryKey))
}

func TestNewPanics(t *testing.T) {
	assert.Panics(t, func() {
		New("User", field.Number("id"))
	})
	assert.Panics(t, func() {
		New("User", field.String("name"), field.Text("name"))
	})
}

func TestCompositeIndex(t *testing.T) {
	m := New("Place", field.Number("lat"), field.Number("lng"))
	m.AddIndex(Index{Name: "geo", Columns: []string{"lat", "lng"}})

	require.Len(t, m.Indexes(), 1)
	idx := m.CompositeIndex("geo")
	require.NotNil(t, idx)
	assert.Equal(t, []string{"lat", "lng"}, idx.Columns)
	assert.Nil(t, m.CompositeIndex("missing"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define(New("User", field.String("name"))))
	require.NoError(t, r.Define(New("Post", field.String("title"))))

	err := r.Define(New("User"))
	require.EqualError(t, err, `schema: model "User" already defined`)

	m, err := r.Model("User")
	require.NoError(t, err)
	assert.Equal(t, "user", m.Table())

	_, err = r.Model("Comment")
	require.EqualError(t, err, `schema: unknown model "Comment"`)

	assert.Equal(t, []string{"Post", "User"}, r.Names())
}

func TestRegistryPluralize(t *testing.T) {
	r := NewRegistry(PluralizeTables())
	require.NoError(t, r.Define(New("OrderItem", field.String("sku"))))
	m, err := r.Model("OrderItem")
	require.NoError(t, err)
	assert.Equal(t, "order_items", m.Table())
}
