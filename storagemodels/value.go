/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityrecord/errors"
)

// Kind is the tag of a Value.
type Kind int

const (
	// KindNull is the zero Kind; the zero Value is null.
	KindNull Kind = iota
	KindString
	KindInt
	KindReal
	KindBool
	KindTime
	KindRef
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "integer",
	KindReal:   "real",
	KindBool:   "boolean",
	KindTime:   "timestamp",
	KindRef:    "reference",
}

// String returns the schema name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsNumeric reports whether values of this kind take part in arithmetic.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindReal
}

// ParseKind parses a schema kind name. A few common aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return KindString, nil
	case "integer", "int", "int64":
		return KindInt, nil
	case "real", "float", "double", "decimal":
		return KindReal, nil
	case "boolean", "bool":
		return KindBool, nil
	case "timestamp", "time", "date-time", "datetime":
		return KindTime, nil
	case "reference", "ref":
		return KindRef, nil
	case "null":
		return KindNull, nil
	}
	return KindNull, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// EntityRef identifies an entity inside a store.
type EntityRef struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// IsZero reports whether the reference points nowhere.
func (r EntityRef) IsZero() bool {
	return r.ID == ""
}

func (r EntityRef) String() string {
	return r.Type + "#" + r.ID
}

// Value is a typed attribute value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	ref  EntityRef
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// RealValue wraps a floating point number.
func RealValue(f float64) Value { return Value{kind: KindReal, f: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// RefValue wraps an entity reference. A zero reference is null.
func RefValue(r EntityRef) Value {
	if r.IsZero() {
		return Value{}
	}
	return Value{kind: KindRef, ref: r}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the timestamp payload.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// Ref returns the reference payload.
func (v Value) Ref() (EntityRef, bool) { return v.ref, v.kind == KindRef }

// Float returns the numeric payload of an integer or real value as float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindReal:
		return v.f, true
	}
	return 0, false
}

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindReal:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindRef:
		return v.ref
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return strfmt.DateTime(v.t).String()
	case KindRef:
		return v.ref.String()
	}
	return "null"
}

// Key returns a canonical string for v, used to build group keys.
// Two values have the same key exactly when Equal reports true.
func (v Value) Key() string {
	switch v.kind {
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10)
	case KindReal:
		if i, exact := realAsInt(v.f); exact {
			return "n:" + strconv.FormatInt(i, 10)
		}
		return "n:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindTime:
		return "t:" + strconv.FormatInt(v.t.UnixNano(), 10)
	case KindRef:
		return "r:" + v.ref.String()
	case KindString:
		return "s:" + v.s
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	}
	return "0"
}

// FromAny converts a plain Go value into a Value.
func FromAny(x any) (Value, error) {
	switch tv := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return tv, nil
	case string:
		return StringValue(tv), nil
	case int:
		return IntValue(int64(tv)), nil
	case int8:
		return IntValue(int64(tv)), nil
	case int16:
		return IntValue(int64(tv)), nil
	case int32:
		return IntValue(int64(tv)), nil
	case int64:
		return IntValue(tv), nil
	case uint:
		return IntValue(int64(tv)), nil
	case uint8:
		return IntValue(int64(tv)), nil
	case uint16:
		return IntValue(int64(tv)), nil
	case uint32:
		return IntValue(int64(tv)), nil
	case float32:
		return RealValue(float64(tv)), nil
	case float64:
		return RealValue(tv), nil
	case bool:
		return BoolValue(tv), nil
	case time.Time:
		return TimeValue(tv), nil
	case strfmt.DateTime:
		return TimeValue(time.Time(tv)), nil
	case EntityRef:
		return RefValue(tv), nil
	case *Entity:
		if tv == nil {
			return NullValue(), nil
		}
		return RefValue(tv.Ref()), nil
	}
	return NullValue(), errors.NewValidationError("", fmt.Sprintf("unsupported value type %T", x))
}

// Coerce converts v into a value of kind k. Integers widen to reals, integral
// reals narrow to integers and strings parse as timestamps; everything else
// must already carry kind k. Null always coerces to null.
func Coerce(k Kind, v Value) (Value, error) {
	if v.IsNull() || v.kind == k {
		return v, nil
	}
	switch {
	case k == KindReal && v.kind == KindInt:
		return RealValue(float64(v.i)), nil
	case k == KindInt && v.kind == KindReal:
		if i, exact := realAsInt(v.f); exact {
			return IntValue(i), nil
		}
	case k == KindTime && v.kind == KindString:
		dt, err := strfmt.ParseDateTime(v.s)
		if err == nil {
			return TimeValue(time.Time(dt)), nil
		}
	}
	return Value{}, errors.NewTypeMismatchError("assign", k.String(), v.kind.String())
}

// Equal reports whether a and b are equal. Null equals only null; integers
// and reals compare numerically. Other mixed kinds fail with a type mismatch.
func Equal(a, b Value) (bool, error) {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull(), nil
	}
	if a.kind.IsNumeric() && b.kind.IsNumeric() {
		return compareNumeric(a, b) == 0, nil
	}
	if a.kind != b.kind {
		return false, errors.NewTypeMismatchError("equal", a.kind.String(), b.kind.String())
	}
	switch a.kind {
	case KindString:
		return a.s == b.s, nil
	case KindBool:
		return a.b == b.b, nil
	case KindTime:
		return a.t.Equal(b.t), nil
	case KindRef:
		return a.ref == b.ref, nil
	}
	return false, nil
}

// Compare orders a and b, returning -1, 0 or +1. Strings compare bytewise,
// booleans order false before true. Null and references have no order.
func Compare(a, b Value) (int, error) {
	if a.kind.IsNumeric() && b.kind.IsNumeric() {
		return compareNumeric(a, b), nil
	}
	if a.kind != b.kind || a.kind == KindNull || a.kind == KindRef {
		return 0, errors.NewTypeMismatchError("compare", a.kind.String(), b.kind.String())
	}
	switch a.kind {
	case KindString:
		return strings.Compare(a.s, b.s), nil
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, nil
		case !a.b:
			return -1, nil
		}
		return 1, nil
	case KindTime:
		return a.t.Compare(b.t), nil
	}
	return 0, errors.NewTypeMismatchError("compare", a.kind.String(), b.kind.String())
}

// compareNumeric orders two numeric values. Integers compare exactly; a
// real compares with an integer exactly when it is integral and in range.
func compareNumeric(a, b Value) int {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmpOrdered(a.i, b.i)
	case a.kind == KindReal && b.kind == KindReal:
		return cmpOrdered(a.f, b.f)
	case a.kind == KindInt:
		return -compareRealInt(b.f, a.i)
	}
	return compareRealInt(a.f, b.i)
}

func compareRealInt(f float64, i int64) int {
	if math.IsNaN(f) {
		return 1
	}
	if fi, exact := realAsInt(f); exact {
		return cmpOrdered(fi, i)
	}
	// f is fractional or out of int64 range; its integer part decides unless
	// it equals i, in which case the fraction does.
	switch {
	case f >= math.MaxInt64:
		return 1
	case f < math.MinInt64:
		return -1
	}
	t := int64(math.Trunc(f))
	if t != i {
		return cmpOrdered(t, i)
	}
	if f > math.Trunc(f) {
		return 1
	}
	return -1
}

// realAsInt returns f as an int64 when it is integral and representable.
func realAsInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
