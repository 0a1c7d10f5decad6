// value.go — the runtime value model shared by both pipelines.
//
// Value is a tagged union. The tree-walk interpreter uses every tag; the
// bytecode VM only ever holds nil, booleans, numbers, and strings (its
// compiler has no call or class opcodes).
package lox

import (
	"math"
	"strconv"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	VTNil      ValueTag = iota // no payload
	VTBool                     // bool
	VTNum                      // float64
	VTStr                      // string
	VTFunction                 // *Function (user function or bound method)
	VTNative                   // *Native
	VTClass                    // *Class
	VTInstance                 // *Instance
)

// Value is the universal runtime carrier. Tag determines which Go type Data
// holds.
type Value struct {
	Tag  ValueTag
	Data any
}

// Nil is the singleton nil Value.
var Nil = Value{Tag: VTNil}

func Bool(b bool) Value   { return Value{Tag: VTBool, Data: b} }
func Num(f float64) Value { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value  { return Value{Tag: VTStr, Data: s} }

// Truthy reports Lox truthiness: only nil and false are falsey.
func Truthy(v Value) bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		return v.Data.(bool)
	default:
		return true
	}
}

// Equal implements Lox '=='. Different tags compare unequal, same tags use
// natural equality, and object kinds compare by identity. It never fails.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNil:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTNum:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	default:
		return a.Data == b.Data
	}
}

// FormatValue renders the canonical form of a value: numbers print the
// shortest decimal that round-trips, with no trailing ".0" on integers;
// strings print their raw contents.
func FormatValue(v Value) string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTNum:
		return formatNumber(v.Data.(float64))
	case VTStr:
		return v.Data.(string)
	case VTFunction:
		return "<fn " + v.Data.(*Function).Name() + ">"
	case VTNative:
		return "<native fn>"
	case VTClass:
		return v.Data.(*Class).Name
	case VTInstance:
		return "<" + v.Data.(*Instance).Class.Name + " instance>"
	default:
		return "<unknown>"
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
