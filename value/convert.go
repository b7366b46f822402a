package value

import (
	"fmt"
	"reflect"
	"time"
	"unicode"
	"unicode/utf8"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshaler is implemented by types that know how to convert themselves
// into a Value directly, bypassing reflection.
type Marshaler interface {
	MarshalValue() Value
}

// StructOptions controls how Go structs are converted into Mapping values.
type StructOptions struct {
	// LowerCamel, if true, lower-cases the first rune of each field name.
	LowerCamel bool
	// TimeFormat is the layout used to format time.Time fields/values.
	TimeFormat string
}

// DefaultStructOptions matches common JSON-ish field naming.
var DefaultStructOptions = StructOptions{
	LowerCamel: true,
	TimeFormat: time.RFC3339,
}

// From converts an arbitrary Go value into a Value, using
// DefaultStructOptions for any structs encountered. Callers use this to
// build the `data` argument to render.Render out of ordinary Go types.
func From(v interface{}) Value {
	return FromWith(DefaultStructOptions, v)
}

// FromWith is From with explicit StructOptions.
func FromWith(opts StructOptions, v interface{}) Value {
	if val, ok := v.(Value); ok {
		return val
	}
	if v == nil {
		return Null{}
	}
	if mar, ok := v.(Marshaler); ok {
		return mar.MarshalValue()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Null{}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Null{}
	}

	if rv.Type() == timeType {
		return Text(rv.Interface().(time.Time).Format(opts.TimeFormat))
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.String:
		return Text(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Sequence(nil)
		}
		seq := make(Sequence, rv.Len())
		for i := range seq {
			seq[i] = FromWith(opts, rv.Index(i).Interface())
		}
		return seq
	case reflect.Map:
		m := NewMapping(rv.Len())
		for _, key := range rv.MapKeys() {
			if key.Kind() != reflect.String {
				panic(fmt.Errorf("value: map keys must be strings, got %s", key.Kind()))
			}
			m.Set(key.String(), FromWith(opts, rv.MapIndex(key).Interface()))
		}
		return m
	case reflect.Struct:
		return structToMapping(opts, rv)
	default:
		panic(fmt.Errorf("value: unsupported data type: %T (%v)", v, v))
	}
}

func structToMapping(opts StructOptions, rv reflect.Value) *Mapping {
	t := rv.Type()
	m := NewMapping(t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanInterface() {
			continue
		}
		name := t.Field(i).Name
		if opts.LowerCamel {
			r, size := utf8.DecodeRuneInString(name)
			name = string(unicode.ToLower(r)) + name[size:]
		}
		m.Set(name, FromWith(opts, field.Interface()))
	}
	return m
}
