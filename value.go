package orm

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Kind tags the payload of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBytes
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	}
	return "null"
}

// Value is a column value or statement parameter. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
}

func Null() Value { return Value{} }

func Int(v int64) Value { return Value{kind: KindInt, i: v} }

func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func Bytes(v []byte) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindBytes, b: bytes.Clone(v)}
}

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsBytes() ([]byte, bool) { return v.b, v.kind == KindBytes }

func (v Value) AsBool() (bool, bool) { return v.i != 0, v.kind == KindBool }

// Equal is strict: Int(1) and Float(1) differ.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt, KindBool:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	}
	return true
}

// Value implements driver.Valuer.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindBytes:
		return v.b, nil
	case KindBool:
		return v.i != 0, nil
	}
	return nil, nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.b)
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	}
	return "NULL"
}

// scanValue converts a driver value read from a row. When want is not
// KindNull the value is coerced to that kind, otherwise the kind follows
// the driver type. Text results ([]byte) map to String unless Bytes is
// wanted.
func scanValue(src any, want Kind) (Value, error) {
	if src == nil {
		return Null(), nil
	}
	src = widen(src)

	switch want {
	case KindNull:
		return fromDriver(src), nil
	case KindInt:
		switch x := src.(type) {
		case int64:
			return Int(x), nil
		case float64:
			return Int(int64(x)), nil
		case bool:
			return Int(boolInt(x)), nil
		case []byte, string:
			n, err := strconv.ParseInt(textOf(x), 10, 64)
			if err != nil {
				return Value{}, err
			}
			return Int(n), nil
		}
	case KindFloat:
		switch x := src.(type) {
		case float64:
			return Float(x), nil
		case int64:
			return Float(float64(x)), nil
		case []byte, string:
			f, err := strconv.ParseFloat(textOf(x), 64)
			if err != nil {
				return Value{}, err
			}
			return Float(f), nil
		}
	case KindBool:
		switch x := src.(type) {
		case bool:
			return Bool(x), nil
		case int64:
			return Bool(x != 0), nil
		case []byte, string:
			b, err := strconv.ParseBool(textOf(x))
			if err != nil {
				return Value{}, err
			}
			return Bool(b), nil
		}
	case KindBytes:
		switch x := src.(type) {
		case []byte:
			return Bytes(x), nil
		case string:
			return Bytes([]byte(x)), nil
		}
	case KindString:
		if t, ok := src.(time.Time); ok {
			return String(t.Format(time.DateTime)), nil
		}
		return String(fromDriver(src).String()), nil
	}

	return Value{}, fmt.Errorf("cannot convert %T to %s", src, want)
}

// ValueOf converts a Go value (int, string, []byte, time.Time, a
// driver.Valuer, ...) into a Value. A Value is returned as is.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case nil:
		return Null(), nil
	case []byte:
		return Bytes(v), nil
	}

	dv, err := driver.DefaultParameterConverter.ConvertValue(x)
	if err != nil {
		return Value{}, err
	}
	if b, ok := dv.([]byte); ok {
		return Bytes(b), nil
	}
	if dv == nil {
		return Null(), nil
	}
	return fromDriver(dv), nil
}

func fromDriver(src any) Value {
	switch x := src.(type) {
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case bool:
		return Bool(x)
	case []byte:
		return String(string(x))
	case string:
		return String(x)
	case time.Time:
		return String(x.Format(time.DateTime))
	}
	return String(fmt.Sprint(src))
}

// widen maps sized numeric driver values onto int64 and float64.
func widen(src any) any {
	switch x := src.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	}
	return src
}

func textOf(x any) string {
	if b, ok := x.([]byte); ok {
		return string(b)
	}
	return x.(string)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
