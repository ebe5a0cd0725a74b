// Package query defines the structured filter consumed by the SQL builders.
//
// A filter condition is an explicit tagged variant rather than a value whose
// shape is inspected at compile time: a condition is a plain Scalar, a Null
// check, or an Op carrying an operator kind and its operands. Conditions are
// constructed here by the filter-building layer; the SQL-generation layer
// matches on the variant exhaustively.
package query

// A Kind identifies a filter operator.
type Kind uint8

// Operator kinds supported in where-conditions.
const (
	KindInvalid Kind = iota
	KindGT           // >
	KindGTE          // >=
	KindLT           // <
	KindLTE          // <=
	KindNEQ          // !=
	KindLike         // LIKE
	KindBetween      // BETWEEN low AND high
	KindIn           // IN (...)
	KindNotIn        // NOT IN (...)
	KindRaw          // verbatim SQL fragment, caller-trusted
	endKinds
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindGT:      "gt",
	KindGTE:     "gte",
	KindLT:      "lt",
	KindLTE:     "lte",
	KindNEQ:     "neq",
	KindLike:    "like",
	KindBetween: "between",
	KindIn:      "in",
	KindNotIn:   "not in",
	KindRaw:     "raw",
}

// String returns the string representation of the operator kind.
func (k Kind) String() string {
	if k < endKinds {
		return kindNames[k]
	}
	return kindNames[KindInvalid]
}

// A Cond is a single where-condition variant: Scalar, Null or Op.
type Cond interface {
	cond()
}

// Scalar matches a field against a plain literal value (field = value).
type Scalar struct {
	Value any
}

// Null matches a field against SQL NULL (field IS NULL).
type Null struct{}

// Op applies an operator to a field with one or more operands.
type Op struct {
	Kind     Kind
	Operands []any
}

func (Scalar) cond() {}
func (Null) cond()   {}
func (Op) cond()     {}

// Eq returns a Scalar condition, or a Null condition when v is nil.
func Eq(v any) Cond {
	if v == nil {
		return Null{}
	}
	return Scalar{Value: v}
}

// IsNull returns a Null condition.
func IsNull() Cond { return Null{} }

// GT returns a "greater than" condition.
func GT(v any) Cond { return Op{Kind: KindGT, Operands: []any{v}} }

// GTE returns a "greater than or equal" condition.
func GTE(v any) Cond { return Op{Kind: KindGTE, Operands: []any{v}} }

// LT returns a "less than" condition.
func LT(v any) Cond { return Op{Kind: KindLT, Operands: []any{v}} }

// LTE returns a "less than or equal" condition.
func LTE(v any) Cond { return Op{Kind: KindLTE, Operands: []any{v}} }

// NEQ returns a "not equal" condition.
func NEQ(v any) Cond { return Op{Kind: KindNEQ, Operands: []any{v}} }

// Like returns a pattern-match condition.
func Like(pattern string) Cond { return Op{Kind: KindLike, Operands: []any{pattern}} }

// Between returns a range condition with inclusive bounds.
func Between(low, high any) Cond { return Op{Kind: KindBetween, Operands: []any{low, high}} }

// In returns a set-membership condition. An empty operand list compiles to
// an always-false clause, preserving the "is one of nothing" semantics.
func In(vs ...any) Cond { return Op{Kind: KindIn, Operands: vs} }

// NotIn returns a negated set-membership condition. An empty operand list
// compiles to an always-true clause.
func NotIn(vs ...any) Cond { return Op{Kind: KindNotIn, Operands: vs} }

// Raw returns a verbatim SQL fragment condition. The fragment replaces the
// whole clause (the field name is not emitted) and is not escaped; it is an
// intentional trust boundary owned by the caller.
func Raw(fragment string) Cond { return Op{Kind: KindRaw, Operands: []any{fragment}} }

// A Filter is a structured where/order/limit specification. It is built
// per call by the host framework and consumed once.
type Filter struct {
	// Where maps field names to conditions. All clauses are joined with AND.
	Where map[string]Cond
	// Order holds "field" or "field ASC|DESC" tokens.
	Order []string
	// Limit caps the number of returned rows when positive.
	Limit int
	// Skip offsets the result window when positive.
	Skip int
}
