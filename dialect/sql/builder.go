package sql

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/keays/mysql-adapter/query"
	"github.com/keays/mysql-adapter/schema"
	"github.com/keays/mysql-adapter/schema/field"
)

// idDescriptor renders primary-key literals. The id column is implicit and
// never part of a model's declared property set.
var idDescriptor = &field.Descriptor{Name: schema.PrimaryKey, Type: field.TypeNumber}

// Ident escapes a table or column identifier with backticks. Dotted paths
// are split so qualified names stay valid: "a.b" becomes `a`.`b`.
func Ident(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

// CompileWhere compiles a where-condition mapping into a SQL fragment.
// Clauses are emitted in lexical field order and joined with AND; an empty
// mapping compiles to the empty string and the caller omits the WHERE
// keyword entirely.
func CompileWhere(m *schema.Model, where map[string]query.Cond) (string, error) {
	if len(where) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(where))
	for name := range where {
		names = append(names, name)
	}
	sort.Strings(names)
	clauses := make([]string, 0, len(names))
	for _, name := range names {
		var d *field.Descriptor
		if m != nil {
			d = m.Field(name)
		}
		clause, err := compileCond(d, name, where[name])
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), nil
}

func compileCond(d *field.Descriptor, name string, c query.Cond) (string, error) {
	col := Ident(name)
	switch c := c.(type) {
	case nil:
		return col + " IS NULL", nil
	case query.Null:
		return col + " IS NULL", nil
	case query.Scalar:
		if c.Value == nil {
			return col + " IS NULL", nil
		}
		lit, err := Encode(d, c.Value)
		if err != nil {
			return "", err
		}
		return col + " = " + lit, nil
	case query.Op:
		return compileOp(d, col, c)
	default:
		return "", fmt.Errorf("dialect/sql: unsupported condition type %T for %s", c, name)
	}
}

var opSymbols = map[query.Kind]string{
	query.KindGT:   ">",
	query.KindGTE:  ">=",
	query.KindLT:   "<",
	query.KindLTE:  "<=",
	query.KindNEQ:  "!=",
	query.KindLike: "LIKE",
}

func compileOp(d *field.Descriptor, col string, op query.Op) (string, error) {
	switch op.Kind {
	case query.KindGT, query.KindGTE, query.KindLT, query.KindLTE, query.KindNEQ, query.KindLike:
		if len(op.Operands) != 1 {
			return "", fmt.Errorf("dialect/sql: operator %s on %s expects 1 operand, got %d", op.Kind, col, len(op.Operands))
		}
		lit, err := Encode(d, op.Operands[0])
		if err != nil {
			return "", err
		}
		return col + " " + opSymbols[op.Kind] + " " + lit, nil
	case query.KindBetween:
		if len(op.Operands) != 2 {
			return "", fmt.Errorf("dialect/sql: operator between on %s expects 2 operands, got %d", col, len(op.Operands))
		}
		low, err := Encode(d, op.Operands[0])
		if err != nil {
			return "", err
		}
		high, err := Encode(d, op.Operands[1])
		if err != nil {
			return "", err
		}
		return col + " BETWEEN " + low + " AND " + high, nil
	case query.KindIn, query.KindNotIn:
		// An empty IN (...) is invalid SQL. Preserve the semantics with a
		// constant clause: "one of nothing" never matches, its negation
		// always does.
		if len(op.Operands) == 0 {
			if op.Kind == query.KindIn {
				return "0", nil
			}
			return "1", nil
		}
		lits := make([]string, len(op.Operands))
		for i, v := range op.Operands {
			lit, err := Encode(d, v)
			if err != nil {
				return "", err
			}
			lits[i] = lit
		}
		sym := "IN"
		if op.Kind == query.KindNotIn {
			sym = "NOT IN"
		}
		return col + " " + sym + " (" + strings.Join(lits, ",") + ")", nil
	case query.KindRaw:
		// Raw fragments replace the whole clause, field name included.
		// They are injected verbatim: safety is the caller's responsibility.
		if len(op.Operands) != 1 {
			return "", fmt.Errorf("dialect/sql: raw operator on %s expects 1 operand, got %d", col, len(op.Operands))
		}
		frag, ok := op.Operands[0].(string)
		if !ok {
			return "", fmt.Errorf("dialect/sql: raw operator on %s expects a string, got %T", col, op.Operands[0])
		}
		return frag, nil
	default:
		return "", fmt.Errorf("dialect/sql: unsupported operator %s on %s", op.Kind, col)
	}
}

// CompileOrder compiles "field" or "field ASC|DESC" tokens into an ORDER BY
// fragment. The direction is omitted when not given so the database default
// applies.
func CompileOrder(order []string) (string, error) {
	outs := make([]string, 0, len(order))
	for _, token := range order {
		parts := strings.Fields(token)
		switch len(parts) {
		case 1:
			outs = append(outs, Ident(parts[0]))
		case 2:
			dir := strings.ToUpper(parts[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("dialect/sql: invalid order direction %q", parts[1])
			}
			outs = append(outs, Ident(parts[0])+" "+dir)
		default:
			return "", fmt.Errorf("dialect/sql: invalid order token %q", token)
		}
	}
	return strings.Join(outs, ", "), nil
}

// CompileLimit compiles limit and skip into a LIMIT fragment, using the
// "LIMIT skip, limit" form when an offset is given.
func CompileLimit(limit, skip int) string {
	if limit <= 0 {
		return ""
	}
	if skip > 0 {
		return fmt.Sprintf("LIMIT %d, %d", skip, limit)
	}
	return fmt.Sprintf("LIMIT %d", limit)
}

// BuildInsert builds an INSERT statement for the data keys declared in the
// model's property set. Skip-valued fields are omitted; a model with no
// remaining fields inserts a bare auto-increment row.
func BuildInsert(m *schema.Model, data map[string]any) (string, error) {
	pairs, err := assignments(m, data)
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		return "INSERT INTO " + Ident(m.Table()) + " VALUES ()", nil
	}
	return "INSERT INTO " + Ident(m.Table()) + " SET " + strings.Join(pairs, ", "), nil
}

// BuildUpsert builds an INSERT ... ON DUPLICATE KEY UPDATE statement. The
// update-clause list excludes the primary key; an "id" key in data is
// inserted but never updated.
func BuildUpsert(m *schema.Model, data map[string]any) (string, error) {
	var cols, vals, updates []string
	if id, ok := data[schema.PrimaryKey]; ok {
		lit, err := Encode(idDescriptor, id)
		if err != nil && !errors.Is(err, ErrSkip) {
			return "", err
		}
		if err == nil {
			cols = append(cols, Ident(schema.PrimaryKey))
			vals = append(vals, lit)
		}
	}
	for _, d := range m.Fields() {
		v, ok := data[d.Name]
		if !ok {
			continue
		}
		lit, err := Encode(d, v)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return "", err
		}
		cols = append(cols, Ident(d.Name))
		vals = append(vals, lit)
		updates = append(updates, Ident(d.Name)+" = "+lit)
	}
	if len(cols) == 0 {
		return "INSERT INTO " + Ident(m.Table()) + " VALUES ()", nil
	}
	stmt := "INSERT INTO " + Ident(m.Table()) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ")"
	if len(updates) > 0 {
		stmt += " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	}
	return stmt, nil
}

// BuildUpdate builds an UPDATE statement for a single row by primary key.
func BuildUpdate(m *schema.Model, id any, data map[string]any) (string, error) {
	pairs, err := assignments(m, data)
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		return "", fmt.Errorf("dialect/sql: update %s: no fields to update", m.Name())
	}
	lit, err := Encode(idDescriptor, id)
	if err != nil {
		return "", err
	}
	return "UPDATE " + Ident(m.Table()) + " SET " + strings.Join(pairs, ", ") +
		" WHERE " + Ident(schema.PrimaryKey) + " = " + lit, nil
}

func assignments(m *schema.Model, data map[string]any) ([]string, error) {
	var pairs []string
	for _, d := range m.Fields() {
		v, ok := data[d.Name]
		if !ok {
			continue
		}
		lit, err := Encode(d, v)
		if errors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Ident(d.Name)+" = "+lit)
	}
	return pairs, nil
}

// BuildSelect builds a SELECT * statement with the optional where, order
// and limit fragments of the filter.
func BuildSelect(m *schema.Model, f *query.Filter) (string, error) {
	stmt := "SELECT * FROM " + Ident(m.Table())
	if f == nil {
		return stmt, nil
	}
	where, err := CompileWhere(m, f.Where)
	if err != nil {
		return "", err
	}
	if where != "" {
		stmt += " WHERE " + where
	}
	order, err := CompileOrder(f.Order)
	if err != nil {
		return "", err
	}
	if order != "" {
		stmt += " ORDER BY " + order
	}
	if limit := CompileLimit(f.Limit, f.Skip); limit != "" {
		stmt += " " + limit
	}
	return stmt, nil
}

// BuildFind builds a SELECT for a single row by primary key.
func BuildFind(m *schema.Model, id any) (string, error) {
	lit, err := Encode(idDescriptor, id)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + Ident(m.Table()) +
		" WHERE " + Ident(schema.PrimaryKey) + " = " + lit + " LIMIT 1", nil
}

// BuildExists builds a constant-row existence probe by primary key.
func BuildExists(m *schema.Model, id any) (string, error) {
	lit, err := Encode(idDescriptor, id)
	if err != nil {
		return "", err
	}
	return "SELECT 1 FROM " + Ident(m.Table()) +
		" WHERE " + Ident(schema.PrimaryKey) + " = " + lit + " LIMIT 1", nil
}

// BuildCount builds a COUNT statement with an optional where mapping.
func BuildCount(m *schema.Model, where map[string]query.Cond) (string, error) {
	stmt := "SELECT count(*) AS count FROM " + Ident(m.Table())
	w, err := CompileWhere(m, where)
	if err != nil {
		return "", err
	}
	if w != "" {
		stmt += " WHERE " + w
	}
	return stmt, nil
}

// BuildDelete builds a DELETE statement for a single row by primary key.
func BuildDelete(m *schema.Model, id any) (string, error) {
	lit, err := Encode(idDescriptor, id)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + Ident(m.Table()) +
		" WHERE " + Ident(schema.PrimaryKey) + " = " + lit, nil
}

// BuildDeleteAll builds a DELETE statement covering the whole table.
func BuildDeleteAll(m *schema.Model) string {
	return "DELETE FROM " + Ident(m.Table())
}

// ColumnType returns the native MySQL column type for a property.
func ColumnType(d *field.Descriptor) string {
	switch d.Type {
	case field.TypeText:
		return "TEXT"
	case field.TypeNumber:
		return fmt.Sprintf("INT(%d)", limitOr(d, 11))
	case field.TypeDate:
		return "DATETIME"
	case field.TypeBool:
		return "TINYINT(1)"
	case field.TypePoint:
		return "POINT"
	default: // String, JSON and unregistered types map to VARCHAR.
		return fmt.Sprintf("VARCHAR(%d)", limitOr(d, 255))
	}
}

func limitOr(d *field.Descriptor, fallback int) int {
	if d.Limit > 0 {
		return d.Limit
	}
	return fallback
}

// ColumnDefinition returns the full column definition: native type plus
// nullability.
func ColumnDefinition(d *field.Descriptor) string {
	if d.Nullable {
		return ColumnType(d) + " NULL"
	}
	return ColumnType(d) + " NOT NULL"
}

// IndexDefinition returns the definition of a property's single-column
// index, without the leading ADD.
func IndexDefinition(d *field.Descriptor) string {
	var b strings.Builder
	if d.Index.Kind != "" {
		b.WriteString(strings.ToUpper(d.Index.Kind))
		b.WriteString(" ")
	}
	b.WriteString("INDEX ")
	b.WriteString(Ident(d.Name))
	b.WriteString(" (")
	b.WriteString(Ident(d.Name))
	b.WriteString(")")
	if d.Index.Using != "" {
		b.WriteString(" USING ")
		b.WriteString(strings.ToUpper(d.Index.Using))
	}
	return b.String()
}

// CompositeIndexDefinition returns the definition of a named composite
// index, without the leading ADD. Column order is preserved.
func CompositeIndexDefinition(idx schema.Index) string {
	var b strings.Builder
	if idx.Kind != "" {
		b.WriteString(strings.ToUpper(idx.Kind))
		b.WriteString(" ")
	}
	b.WriteString("INDEX ")
	b.WriteString(Ident(idx.Name))
	b.WriteString(" (")
	for i, col := range idx.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Ident(col))
	}
	b.WriteString(")")
	if idx.Using != "" {
		b.WriteString(" USING ")
		b.WriteString(strings.ToUpper(idx.Using))
	}
	return b.String()
}

// BuildCreateTable builds the CREATE TABLE statement for a model: the
// auto-increment primary key, one definition per declared property, then
// single-column and composite index clauses.
func BuildCreateTable(m *schema.Model) string {
	lines := []string{Ident(schema.PrimaryKey) + " INT(11) NOT NULL AUTO_INCREMENT PRIMARY KEY"}
	for _, d := range m.Fields() {
		lines = append(lines, Ident(d.Name)+" "+ColumnDefinition(d))
	}
	for _, d := range m.Fields() {
		if d.Index != nil {
			lines = append(lines, IndexDefinition(d))
		}
	}
	for _, idx := range m.Indexes() {
		lines = append(lines, CompositeIndexDefinition(idx))
	}
	return "CREATE TABLE " + Ident(m.Table()) + " (\n  " + strings.Join(lines, ",\n  ") + "\n)"
}

// BuildDropTable builds the DROP TABLE statement for a model.
func BuildDropTable(m *schema.Model) string {
	return "DROP TABLE IF EXISTS " + Ident(m.Table())
}
