package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keays/mysql-adapter/schema/field"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		desc *field.Descriptor
		v    any
		want string
	}{
		{"nil_is_null", field.String("name"), nil, "NULL"},
		{"string", field.String("name"), "alice", "'alice'"},
		{"string_quote", field.String("name"), "o'brien", `'o\'brien'`},
		{"string_backslash", field.String("path"), `a\b`, `'a\\b'`},
		{"string_newline", field.String("note"), "a\nb", `'a\nb'`},
		{"number_int", field.Number("age"), 30, "30"},
		{"number_int64", field.Number("age"), int64(30), "30"},
		{"number_float", field.Number("score"), 32.5, "32.5"},
		{"number_string", field.Number("age"), "42", "42"},
		{"bool_true", field.Bool("active"), true, "1"},
		{"bool_false", field.Bool("active"), false, "0"},
		{"bool_int", field.Bool("active"), 3, "1"},
		{"date", field.Date("created"), time.Date(2024, 3, 5, 7, 9, 1, 0, time.UTC), "'2024-03-05 07:09:01'"},
		{"date_zero_is_null", field.Date("created"), time.Time{}, "NULL"},
		{"json_string", field.JSON("meta"), `{"a":1}`, `'{\"a\":1}'`},
		{"json_value", field.JSON("meta"), map[string]int{"a": 1}, `'{\"a\":1}'`},
		{"no_descriptor", nil, "raw", "'raw'"},
		{"uuid_string_column", field.String("token"), uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.desc, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDateUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 23:30 in New York crosses midnight in UTC.
	got, err := Encode(field.Date("created"), time.Date(2024, 3, 5, 23, 30, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, "'2024-03-06 04:30:00'", got)
}

func TestEncodeSkip(t *testing.T) {
	_, err := Encode(field.String("name"), Skip)
	require.ErrorIs(t, err, ErrSkip)
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		desc *field.Descriptor
		v    any
	}{
		{"number_not_numeric", field.Number("age"), "not a number"},
		{"number_struct", field.Number("age"), struct{}{}},
		{"bool_string", field.Bool("active"), "yes"},
		{"date_garbage", field.Date("created"), "tomorrow"},
		{"date_int", field.Date("created"), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.desc, tt.v)
			require.Error(t, err)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		desc *field.Descriptor
		raw  any
		want any
	}{
		{"nil_pass_through", field.Date("created"), nil, nil},
		{"bool_int64", field.Bool("active"), int64(1), true},
		{"bool_int64_zero", field.Bool("active"), int64(0), false},
		{"bool_bytes", field.Bool("active"), []byte("1"), true},
		{"string_bytes", field.String("name"), []byte("alice"), "alice"},
		{"number_bytes_int", field.Number("age"), []byte("42"), int64(42)},
		{"number_bytes_float", field.Number("score"), []byte("4.5"), 4.5},
		{"number_int64", field.Number("age"), int64(42), int64(42)},
		{"point_pass_through", field.Point("loc"), []byte{0x01}, []byte{0x01}},
		{
			"date_string",
			field.Date("created"),
			"2024-03-05 07:09:01",
			time.Date(2024, 3, 5, 7, 9, 1, 0, time.UTC),
		},
		{
			// Trailing timezone annotations are stripped before parsing so
			// the offset is not applied twice.
			"date_string_tz_suffix",
			field.Date("created"),
			"2024-03-05 07:09:01 GMT+0200 (CEST)",
			time.Date(2024, 3, 5, 7, 9, 1, 0, time.UTC),
		},
		{
			"date_string_offset",
			field.Date("created"),
			"2024-03-05 07:09:01+02:00",
			time.Date(2024, 3, 5, 7, 9, 1, 0, time.UTC),
		},
		{
			"date_only",
			field.Date("created"),
			[]byte("2024-03-05"),
			time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.desc, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(field.Bool("active"), []byte("maybe"))
	require.Error(t, err)
	_, err = Decode(field.Date("created"), []byte("not a date"))
	require.Error(t, err)
}

// Boolean and date values survive an encode/decode round trip, modulo UTC
// normalization for dates.
func TestCodecRoundTrip(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		for _, b := range []bool{true, false} {
			d := field.Bool("active")
			lit, err := Encode(d, b)
			require.NoError(t, err)
			got, err := Decode(d, []byte(lit))
			require.NoError(t, err)
			assert.Equal(t, b, got)
		}
	})
	t.Run("date", func(t *testing.T) {
		d := field.Date("created")
		in := time.Date(2023, 11, 30, 15, 4, 5, 0, time.UTC)
		lit, err := Encode(d, in)
		require.NoError(t, err)
		// Strip the quotes the literal carries in statement position.
		got, err := Decode(d, lit[1:len(lit)-1])
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})
}
