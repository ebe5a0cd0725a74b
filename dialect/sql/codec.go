package sql

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/keays/mysql-adapter/schema/field"
)

// ErrSkip is returned by Encode when the given value marks its field as
// absent. It is not a failure: the caller omits the field from the
// generated statement.
var ErrSkip = errors.New("dialect/sql: skip field")

type skip struct{}

// Skip marks a data value as absent. A field whose value is Skip is left
// out of the generated statement entirely, as opposed to nil which renders
// the SQL NULL literal.
var Skip skip

const dateFormat = "2006-01-02 15:04:05"

// stringEscaper neutralizes the characters MySQL treats specially inside
// single-quoted literals.
var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// Encode renders a typed property value as a SQL literal. A nil value
// renders NULL, a Skip value returns ErrSkip, and everything else is
// dispatched on the descriptor's type. A nil descriptor falls back to
// string rendering.
func Encode(d *field.Descriptor, v any) (string, error) {
	switch v.(type) {
	case nil:
		return "NULL", nil
	case skip, *skip:
		return "", ErrSkip
	}
	if d == nil {
		return quote(stringify(v)), nil
	}
	switch d.Type {
	case field.TypeNumber:
		return encodeNumber(d.Name, v)
	case field.TypeDate:
		return encodeDate(d.Name, v)
	case field.TypeBool:
		return encodeBool(d.Name, v)
	case field.TypeJSON:
		return encodeJSON(d.Name, v)
	default: // String, Text, Point.
		return quote(stringify(v)), nil
	}
}

func encodeNumber(name string, v any) (string, error) {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return encodeFloat(name, float64(v))
	case float64:
		return encodeFloat(name, v)
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return "", fmt.Errorf("dialect/sql: encode %s: invalid number %q", name, v)
		}
		return v.String(), nil
	case string:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", fmt.Errorf("dialect/sql: encode %s: invalid number %q", name, v)
		}
		return v, nil
	default:
		return "", fmt.Errorf("dialect/sql: encode %s: cannot encode %T as number", name, v)
	}
}

func encodeFloat(name string, f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("dialect/sql: encode %s: invalid number %v", name, f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func encodeDate(name string, v any) (string, error) {
	switch v := v.(type) {
	case time.Time:
		if v.IsZero() {
			return "NULL", nil
		}
		return "'" + v.UTC().Format(dateFormat) + "'", nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return "NULL", nil
		}
		return "'" + v.UTC().Format(dateFormat) + "'", nil
	case string:
		t, err := parseDate(v)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: encode %s: %w", name, err)
		}
		if t.IsZero() {
			return "NULL", nil
		}
		return "'" + t.UTC().Format(dateFormat) + "'", nil
	default:
		return "", fmt.Errorf("dialect/sql: encode %s: cannot encode %T as date", name, v)
	}
}

func encodeBool(name string, v any) (string, error) {
	b := false
	switch v := v.(type) {
	case bool:
		b = v
	case int:
		b = v != 0
	case int64:
		b = v != 0
	default:
		return "", fmt.Errorf("dialect/sql: encode %s: cannot encode %T as bool", name, v)
	}
	if b {
		return "1", nil
	}
	return "0", nil
}

func encodeJSON(name string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return quote(v), nil
	case []byte:
		return quote(string(v)), nil
	case json.RawMessage:
		return quote(string(v)), nil
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: encode %s: %w", name, err)
		}
		return quote(string(buf)), nil
	}
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func quote(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

// tzSuffix matches a trailing timezone annotation on a driver-supplied
// date-time string. Stripped before parsing so the offset is not applied
// twice.
var tzSuffix = regexp.MustCompile(`\s*(GMT.*|UTC.*|[+-]\d{2}:?\d{2})$`)

// Decode converts a raw database value into its typed in-memory form.
// Date columns become time.Time in UTC, boolean columns become strict
// booleans, other types pass through. A nil raw value is never transformed.
func Decode(d *field.Descriptor, raw any) (any, error) {
	if raw == nil || d == nil {
		return raw, nil
	}
	switch d.Type {
	case field.TypeDate:
		return decodeDate(d.Name, raw)
	case field.TypeBool:
		return decodeBool(d.Name, raw)
	case field.TypeNumber:
		return decodeNumber(d.Name, raw)
	case field.TypeString, field.TypeText, field.TypeJSON:
		if b, ok := raw.([]byte); ok {
			return string(b), nil
		}
		return raw, nil
	default: // Point and future extension types pass through.
		return raw, nil
	}
}

func decodeDate(name string, raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case []byte:
		return parseDateErr(name, string(v))
	case string:
		return parseDateErr(name, v)
	default:
		return nil, fmt.Errorf("dialect/sql: decode %s: cannot decode %T as date", name, raw)
	}
}

func parseDateErr(name, s string) (any, error) {
	t, err := parseDate(s)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: decode %s: %w", name, err)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(tzSuffix.ReplaceAllString(s, ""))
	for _, layout := range []string{dateFormat, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func decodeBool(name string, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return parseBool(name, string(v))
	case string:
		return parseBool(name, v)
	default:
		return nil, fmt.Errorf("dialect/sql: decode %s: cannot decode %T as bool", name, raw)
	}
}

func parseBool(name, s string) (any, error) {
	switch s {
	case "1", "true", "TRUE":
		return true, nil
	case "0", "false", "FALSE", "":
		return false, nil
	}
	return nil, fmt.Errorf("dialect/sql: decode %s: invalid bool %q", name, s)
}

func decodeNumber(name string, raw any) (any, error) {
	switch v := raw.(type) {
	case int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case []byte:
		return parseNumber(name, string(v))
	case string:
		return parseNumber(name, v)
	default:
		return raw, nil
	}
}

func parseNumber(name, s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("dialect/sql: decode %s: invalid number %q", name, s)
}
