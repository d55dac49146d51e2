package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// ValueType tags the variant held by a Value.
type ValueType uint8

const (
	NullValue ValueType = iota
	BoolValue
	NumberValue
	StringValue
	ArrayValue
	ObjectValue
)

func (t ValueType) String() string {
	switch t {
	case NullValue:
		return "null"
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Value is a JSON-representable tree used for the nested columns
// (input_data, result, depot, customers). The zero Value is null.
//
// Objects keep their members in insertion order and numbers keep their
// literal text, so a Value survives an encode/decode cycle unchanged.
type Value struct {
	typ ValueType
	b   bool
	s   string // string content, or the literal of a number
	arr []Value
	obj []Member
}

// Member is one key/value pair of an object Value.
type Member struct {
	Key   string
	Value Value
}

// M is shorthand for building object members.
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{typ: BoolValue, b: b} }

// Float returns a number value. NaN and infinities have no JSON form and
// become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{typ: NumberValue, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

func Int(n int64) Value { return Value{typ: NumberValue, s: strconv.FormatInt(n, 10)} }

func String(s string) Value { return Value{typ: StringValue, s: s} }

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: ArrayValue, arr: items}
}

func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{typ: ObjectValue, obj: members}
}

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsNull() bool    { return v.typ == NullValue }

func (v Value) AsBool() (bool, bool) { return v.b, v.typ == BoolValue }

func (v Value) AsString() (string, bool) { return v.s, v.typ == StringValue }

func (v Value) AsFloat() (float64, bool) {
	if v.typ != NumberValue {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// Literal returns the number's text as it was decoded or constructed.
func (v Value) Literal() string {
	if v.typ != NumberValue {
		return ""
	}
	return v.s
}

// Len is the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.typ {
	case ArrayValue:
		return len(v.arr)
	case ObjectValue:
		return len(v.obj)
	}
	return 0
}

func (v Value) Items() []Value    { return v.arr }
func (v Value) Members() []Member { return v.obj }

func (v Value) Index(i int) Value {
	if v.typ != ArrayValue || i < 0 || i >= len(v.arr) {
		return Null()
	}
	return v.arr[i]
}

// Get returns the last member with the given key.
func (v Value) Get(key string) (Value, bool) {
	if v.typ != ObjectValue {
		return Null(), false
	}
	for i := len(v.obj) - 1; i >= 0; i-- {
		if v.obj[i].Key == key {
			return v.obj[i].Value, true
		}
	}
	return Null(), false
}

// With returns a copy of the object with key set to val. An existing key keeps
// its position; a new key is appended.
func (v Value) With(key string, val Value) Value {
	if v.typ != ObjectValue {
		return Object(M(key, val))
	}
	members := make([]Member, len(v.obj), len(v.obj)+1)
	copy(members, v.obj)
	for i := range members {
		if members[i].Key == key {
			members[i].Value = val
			return Object(members...)
		}
	}
	return Object(append(members, M(key, val))...)
}

// Equal compares structurally. Numbers compare by literal, object members by
// position.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case NullValue:
		return true
	case BoolValue:
		return v.b == o.b
	case NumberValue, StringValue:
		return v.s == o.s
	case ArrayValue:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for i := range v.obj {
			if v.obj[i].Key != o.obj[i].Key || !v.obj[i].Value.Equal(o.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.typ {
	case NullValue:
		buf.WriteString("null")
	case BoolValue:
		buf.WriteString(strconv.FormatBool(v.b))
	case NumberValue:
		if !json.Valid([]byte(v.s)) {
			return fmt.Errorf("invalid number literal %q", v.s)
		}
		buf.WriteString(v.s)
	case StringValue:
		data, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(data)
	case ArrayValue:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case ObjectValue:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value type %d", v.typ)
	}
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := readValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after value")
	}
	*v = parsed
	return nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Value{typ: NumberValue, s: t.String()}, nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			members := []Member{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key %v is not a string", keyTok)
				}
				val, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, M(key, val))
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// ValueOf converts ordinary Go data into a Value. Maps are emitted with sorted
// keys since Go maps carry no order; structs go through encoding/json and keep
// their field order.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Float(t), nil
	case float32:
		return Float(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case json.Number:
		return Value{typ: NumberValue, s: t.String()}, nil
	case []Value:
		return Array(t...), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			v, err := ValueOf(t[k])
			if err != nil {
				return Value{}, err
			}
			members = append(members, M(k, v))
		}
		return Object(members...), nil
	}
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("value of %T: %w", x, err)
	}
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}
