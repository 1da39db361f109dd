// Package expr implements the safe expression engine: a whitelisted,
// compile-once-evaluate-many grammar for filter and derived-field
// expressions submitted by clients. It never calls host reflection or eval;
// every node kind, attribute name and function name is checked against an
// EvalModel before a CompiledExpr is handed back.
package expr

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

// The closed set of value kinds an expression can produce or consume.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tagged-union runtime representation used throughout
// compilation and evaluation. Only one of the typed fields is meaningful,
// selected by Kind.
type Value struct {
	Kind Kind
	Bool bool
	Int  int64
	Flt  float64
	Str  string
	List []Value
	Map  map[string]Value
}

// Null is the singular null value.
var Null = Value{Kind: KindNull}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int constructs an integer Value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float constructs a floating-point Value.
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// String constructs a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List constructs a list Value.
func List(items []Value) Value { return Value{Kind: KindList, List: items} }

// Map constructs a map Value.
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// FromAny lifts a decoded-JSON value (as produced by encoding/json into
// interface{}, or assembled from record fields) into a Value.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		// a float64 always stays a float, even when integral (plain
		// encoding/json decodes every number as float64; Record
		// decoding yields int64 for integral numbers instead).
		return Float(x)
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = FromAny(e)
		}
		return List(out)
	case []Value:
		return List(x)
	case map[string]any:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			out[k] = FromAny(e)
		}
		return Map(out)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// ToAny lowers a Value back into a plain Go value suitable for JSON encoding
// or for storing back into a record.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Flt
	case KindString:
		return v.Str
	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// Truthy implements Python-like truthiness, since the expression grammar
// mirrors the boolean/filter semantics of the original implementation.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Flt != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List) > 0
	case KindMap:
		return len(v.Map) > 0
	default:
		return false
	}
}

func (v Value) isNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func (v Value) asFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Flt
}

// Compare orders two values the way the filter/sort pipeline needs:
// numeric vs numeric by value, string vs string lexicographically. Mixed or
// unorderable kinds return an error rather than panicking.
func Compare(a, b Value) (int, error) {
	switch {
	case a.isNumeric() && b.isNumeric():
		af, bf := a.asFloat(), b.asFloat()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind == KindString && b.Kind == KindString:
		switch {
		case a.Str < b.Str:
			return -1, nil
		case a.Str > b.Str:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Kind == KindBool && b.Kind == KindBool:
		if a.Bool == b.Bool {
			return 0, nil
		}
		if !a.Bool {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("cannot compare %s with %s", a.Kind, b.Kind)
	}
}

// Equal implements the "==" / "!=" / "in" semantics, which are more lenient
// than Compare: null participates, and kind mismatches are simply unequal
// rather than an error.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if a.isNumeric() && b.isNumeric() {
			return a.asFloat() == b.asFloat()
		}
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Flt == b.Flt
	case KindString:
		return a.Str == b.Str
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
