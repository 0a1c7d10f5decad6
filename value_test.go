// value_test.go
package lox

import (
	"math"
	"strconv"
	"testing"
)

func Test_Value_Canonical_Formatting(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Num(7), "7"},
		{Num(-7), "-7"},
		{Num(2.5), "2.5"},
		{Num(0.1), "0.1"},
		{Num(100), "100"},
		{Str("hi"), "hi"}, // raw contents, no quotes
		{Str(""), ""},
		{Num(math.Inf(1)), "inf"},
		{Num(math.Inf(-1)), "-inf"},
		{Num(math.NaN()), "nan"},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.v); got != tc.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func Test_Value_Number_Formatting_Round_Trips(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 0.1, 1.0 / 3.0, 123456789, 1e21, 5e-324} {
		s := formatNumber(f)
		back, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatalf("cannot re-read %q: %v", s, err)
		}
		if back != f {
			t.Errorf("%v formats to %q which reads back as %v", f, s, back)
		}
	}
}

func Test_Value_Equality_Reflexive_And_Symmetric(t *testing.T) {
	inst := &Instance{Class: &Class{Name: "A"}, Fields: map[string]Value{}}
	vals := []Value{
		Nil, Bool(true), Bool(false), Num(0), Num(1.5), Str(""), Str("x"),
		{Tag: VTInstance, Data: inst},
	}
	for _, v := range vals {
		if !Equal(v, v) {
			t.Errorf("Equal(%v, %v) = false", v, v)
		}
	}
	for _, a := range vals {
		for _, b := range vals {
			if Equal(a, b) != Equal(b, a) {
				t.Errorf("Equal not symmetric for %v, %v", a, b)
			}
		}
	}
}

func Test_Value_Equality_Across_Types(t *testing.T) {
	if Equal(Num(1), Str("1")) {
		t.Error("1 == \"1\" must be false")
	}
	if Equal(Nil, Bool(false)) {
		t.Error("nil == false must be false")
	}
	if Equal(Num(math.NaN()), Num(math.NaN())) {
		t.Error("nan == nan must be false (IEEE)")
	}
}

func Test_Value_Truthiness(t *testing.T) {
	falsey := []Value{Nil, Bool(false)}
	truthy := []Value{Bool(true), Num(0), Num(1), Str(""), Str("x")}
	for _, v := range falsey {
		if Truthy(v) {
			t.Errorf("Truthy(%v) = true, want false", v)
		}
	}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("Truthy(%v) = false, want true", v)
		}
	}
}

func Test_Environment_Chaining(t *testing.T) {
	global := NewEnv(nil)
	global.Define("a", Num(1))

	inner := NewEnv(global)
	inner.Define("b", Num(2))

	if v, ok := inner.Get("a"); !ok || v.Data.(float64) != 1 {
		t.Fatal("inner scope must see outer bindings")
	}
	if _, ok := global.Get("b"); ok {
		t.Fatal("outer scope must not see inner bindings")
	}

	if !inner.Assign("a", Num(10)) {
		t.Fatal("assign through chain failed")
	}
	if v, _ := global.Get("a"); v.Data.(float64) != 10 {
		t.Fatal("assignment must write the defining frame")
	}
	if inner.Assign("missing", Num(0)) {
		t.Fatal("assign must not define")
	}
}

func Test_Environment_Distance_Access(t *testing.T) {
	g := NewEnv(nil)
	g.Define("x", Num(1))
	mid := NewEnv(g)
	mid.Define("x", Num(2))
	leaf := NewEnv(mid)

	if v := leaf.GetAt(1, "x"); v.Data.(float64) != 2 {
		t.Fatalf("GetAt(1) = %v, want 2", v)
	}
	if v := leaf.GetAt(2, "x"); v.Data.(float64) != 1 {
		t.Fatalf("GetAt(2) = %v, want 1", v)
	}

	leaf.AssignAt(2, "x", Num(42))
	if v, _ := g.Get("x"); v.Data.(float64) != 42 {
		t.Fatal("AssignAt must write the targeted frame")
	}
}
