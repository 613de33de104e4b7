package advisor

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is an optional measurement. The zero Value is absent.
type Value struct {
	v  float64
	ok bool
}

// None is the absent Value.
var None = Value{}

// Some wraps f as a Value. Non-finite numbers are kept but never count as present.
func Some(f float64) Value {
	return Value{v: f, ok: true}
}

// Present reports whether the value is set and is a finite real number.
func (v Value) Present() bool {
	return v.ok && !math.IsNaN(v.v) && !math.IsInf(v.v, 0)
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) {
	if !v.Present() {
		return 0, false
	}
	return v.v, true
}

// Or returns the number, or def when absent.
func (v Value) Or(def float64) float64 {
	if f, ok := v.Get(); ok {
		return f
	}
	return def
}

// Ptr returns a pointer to the number, or nil when absent.
func (v Value) Ptr() *float64 {
	if f, ok := v.Get(); ok {
		return &f
	}
	return nil
}

// FromPtr converts a nullable float into a Value.
func FromPtr(f *float64) Value {
	if f == nil {
		return None
	}
	return Some(*f)
}

// String renders the number with the shortest representation, or "" when absent.
func (v Value) String() string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON encodes absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	f, ok := v.Get()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON accepts numbers, numeric strings (with "," or "." decimals) and null.
// Anything unparseable becomes absent rather than an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = None
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = None
			return nil
		}
		*v = Parse(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*v = None
		return nil
	}
	*v = Some(f)
	return nil
}

// Parse reads user-typed numeric text. Surrounding whitespace is ignored and a
// comma is accepted as the decimal separator. Empty, malformed and non-finite
// input yields None.
func Parse(s string) Value {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return None
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return None
	}
	return Some(f)
}
