// Package field provides the property descriptors a host framework declares
// for each model field. The set of column types is a closed enumeration;
// adding a type is a compile-time change, never a runtime name comparison.
package field

// A Type represents the column type of a declared property.
type Type uint8

// Column types supported by the adapter.
const (
	TypeInvalid Type = iota
	TypeString
	TypeText
	TypeNumber
	TypeDate
	TypeBool
	TypeJSON
	TypePoint
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeString:  "string",
	TypeText:    "text",
	TypeNumber:  "number",
	TypeDate:    "date",
	TypeBool:    "bool",
	TypeJSON:    "json",
	TypePoint:   "point",
}

// String returns the string representation of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a valid column type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// An Index describes a single-column index attached to a property.
// Kind is an optional index modifier (e.g. "UNIQUE", "FULLTEXT") and
// Using an optional index algorithm (e.g. "BTREE", "HASH").
type Index struct {
	Kind  string
	Using string
}

// A Descriptor holds the type and constraint metadata of a single model
// property. Descriptors are declared once at model registration and are
// not mutated afterwards.
type Descriptor struct {
	Name     string // column name
	Type     Type   // column type
	Limit    int    // optional size (VARCHAR length, INT display width)
	Nullable bool   // NULL or NOT NULL
	Index    *Index // optional single-column index
}

// String returns a new string property descriptor.
func String(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeString}
}

// Text returns a new unbounded text property descriptor.
func Text(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeText}
}

// Number returns a new numeric property descriptor.
func Number(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeNumber}
}

// Date returns a new date-time property descriptor.
func Date(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeDate}
}

// Bool returns a new boolean property descriptor.
func Bool(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeBool}
}

// JSON returns a new JSON property descriptor. JSON columns are stored as
// variable-length strings.
func JSON(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypeJSON}
}

// Point returns a new geometric point property descriptor.
func Point(name string) *Descriptor {
	return &Descriptor{Name: name, Type: TypePoint}
}

// MaxLen sets the size limit of the column (VARCHAR length or INT display
// width, depending on the type).
func (d *Descriptor) MaxLen(n int) *Descriptor {
	d.Limit = n
	return d
}

// Nillable marks the column as nullable.
func (d *Descriptor) Nillable() *Descriptor {
	d.Nullable = true
	return d
}

// Indexed attaches a plain single-column index to the property.
func (d *Descriptor) Indexed() *Descriptor {
	d.Index = &Index{}
	return d
}

// Unique attaches a unique single-column index to the property.
func (d *Descriptor) Unique() *Descriptor {
	d.Index = &Index{Kind: "UNIQUE"}
	return d
}

// IndexUsing attaches a single-column index with an explicit algorithm,
// e.g. IndexUsing("", "HASH") or IndexUsing("UNIQUE", "BTREE").
func (d *Descriptor) IndexUsing(kind, using string) *Descriptor {
	d.Index = &Index{Kind: kind, Using: using}
	return d
}
