// Package value defines the recursive tagged value model shared by template
// input, render data, and rendered output.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single node in the recursive data model: null, boolean,
// number, text, an ordered sequence, or an ordered mapping.
//
// The zero value of any concrete implementation below is a valid Value.
type Value interface {
	// Truthy reports whether this value is considered true in a condition.
	Truthy() bool

	// String formats the value for debugging, for error messages, and for
	// ${…} interpolation.
	String() string

	// Equals reports whether two values are loosely equal, per the
	// comparison rules in §4.3: Number/Text mix by numeric coercion,
	// Sequence/Mapping compare structurally, everything else compares by
	// type and value.
	Equals(other Value) bool
}

// Concrete value variants.
type (
	// Null represents the JSON null value.
	Null struct{}

	// Bool is a boolean value.
	Bool bool

	// Number is an IEEE-754 double, the sole numeric variant.
	Number float64

	// Text is a string value.
	Text string

	// Sequence is an ordered list of values.
	Sequence []Value

	// Absent is the result of resolving a variable path that does not
	// exist. It is distinct from Null, is always falsy, coerces to the
	// empty string in interpolation, and is never present in a finished
	// rendered tree: every assembly point (object property, array item,
	// root result) strips it before output. See DESIGN.md.
	Absent struct{}
)

// Index retrieves the value at i, or Absent if i is out of bounds.
func (v Sequence) Index(i int) Value {
	if i < 0 || i >= len(v) {
		return Absent{}
	}
	return v[i]
}

// Truthy ----------

func (Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool    { return bool(v) }
func (v Number) Truthy() bool  { return float64(v) != 0 && !math.IsNaN(float64(v)) }
func (v Text) Truthy() bool    { return v != "" }
func (v Sequence) Truthy() bool { return true }
func (Absent) Truthy() bool    { return false }

// String ----------

func (Null) String() string  { return "null" }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

func (v Number) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

func (v Text) String() string { return string(v) }

func (v Sequence) String() string {
	items := make([]string, len(v))
	for i, item := range v {
		items[i] = item.String()
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (Absent) String() string { return "" }

// Equals ----------

func (v Null) Equals(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (v Absent) Equals(other Value) bool {
	_, ok := other.(Absent)
	return ok
}

func (v Bool) Equals(other Value) bool {
	o, ok := other.(Bool)
	return ok && v == o
}

func (v Text) Equals(other Value) bool {
	switch o := other.(type) {
	case Text:
		return v == o
	case Number:
		if n, ok := parseNumber(string(v)); ok {
			return n == float64(o)
		}
	}
	return false
}

func (v Number) Equals(other Value) bool {
	switch o := other.(type) {
	case Number:
		return v == o
	case Text:
		if n, ok := parseNumber(string(o)); ok {
			return float64(v) == n
		}
	}
	return false
}

func (v Sequence) Equals(other Value) bool {
	o, ok := other.(Sequence)
	if !ok || len(v) != len(o) {
		return false
	}
	for i := range v {
		if !v[i].Equals(o[i]) {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsAbsent reports whether v is the Absent sentinel (or a nil interface,
// which callers may use interchangeably with Absent).
func IsAbsent(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Absent)
	return ok
}

// IsNullOrAbsent reports whether v is Null or Absent.
func IsNullOrAbsent(v Value) bool {
	if IsAbsent(v) {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// ToFloat coerces a Value to a float64 for arithmetic, per §4.3's "+ adds
// numbers" / "- subtracts numbers" rules. ok is false if the value cannot
// be coerced.
func ToFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Number:
		return float64(v), true
	case Text:
		return parseNumber(string(v))
	}
	return 0, false
}
