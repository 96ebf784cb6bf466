package js

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string) Value {
	t.Helper()
	v, err := New().Eval(nil, src)
	require.NoError(t, err, src)
	return v
}

func evalErr(t *testing.T, src string) *RuntimeError {
	t.Helper()
	_, err := New().Eval(nil, src)
	var rt *RuntimeError
	require.True(t, errors.As(err, &rt), "%s: expected RuntimeError, got %v", src, err)
	return rt
}

func TestEval_Expressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2", "3"},
		{"1 + 2 * 3", "7"},
		{"10 / 4", "2.5"},
		{"7 % 3", "1"},
		{"-7 % 3", "-1"},
		{"1 / 0", "Infinity"},
		{"-1 / 0", "-Infinity"},
		{"0 / 0", "NaN"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{`"a" + 1 + 2`, `"a12"`},
		{`1 + 2 + "a"`, `"3a"`},
		{`"x" + null + undefined + true`, `"xnullundefinedtrue"`},
		{`"abc".length`, "3"},
		{"!0", "true"},
		{"!'s'", "false"},
		{`1 == "1"`, "true"},
		{`1 === "1"`, "false"},
		{"null == undefined", "true"},
		{"null === undefined", "false"},
		{"0 / 0 == 0 / 0", "false"},
		{"true == 1", "true"},
		{`"a" < "b"`, "true"},
		{"2 >= 2", "true"},
		{`null || "d"`, `"d"`},
		{`1 && "last"`, `"last"`},
		{`0 && x`, "0"},
		{"undefined", "undefined"},
		{"var n = 5; n = n * 2; n", "10"},
	}
	for _, tt := range tests {
		if got := eval(t, tt.src).String(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{-0.5, "-0.5"},
		{math.Copysign(0, -1), "0"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789, "123456789"},
		{1e20, "100000000000000000000"},
		{0.000001, "0.000001"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestEval_Functions(t *testing.T) {
	assert.Equal(t, "2", eval(t, `
		function counter() {
			var n = 0;
			return function () { n = n + 1; return n; };
		}
		var c = counter();
		c();
		c();
	`).String(), "closures keep their defining scope")

	assert.Equal(t, `"global"`, eval(t, `
		var x = "global";
		function show() { return x; }
		function caller() { var x = "local"; return show(); }
		caller();
	`).String(), "scoping is lexical, not dynamic")

	assert.Equal(t, "1", eval(t, `f(); function f() { return 1 }`).String(), "declarations are hoisted")
	assert.Equal(t, "undefined", eval(t, `function g(a, b) { return b } g(1)`).String())
	assert.Equal(t, "120", eval(t, `
		function fact(n) { if (n <= 1) { return 1 } else { return n * fact(n - 1) } }
		fact(5)
	`).String())
	assert.Equal(t, "undefined", eval(t, `function h() { var y = 1 } h()`).String())
}

func TestEval_ShortCircuit(t *testing.T) {
	v := eval(t, `
		var hit = false;
		function touch() { hit = true; return 1 }
		false && touch();
		true || touch();
		hit
	`)
	assert.Equal(t, "false", v.String())
}

func TestEval_Faults(t *testing.T) {
	tests := []struct {
		src  string
		kind ErrorKind
		line int
		col  int
	}{
		{"y + 1", ReferenceError, 1, 1},
		{"z = 1", ReferenceError, 1, 1},
		{`1 - "a"`, TypeError, 1, 3},
		{"true + 1", TypeError, 1, 6},
		{"null.x", TypeError, 1, 5},
		{"var n = 1;\nn()", TypeError, 2, 2},
		{`"a" < 1`, TypeError, 1, 5},
		{"-'x'", TypeError, 1, 1},
		{"const k = 1; k = 2", TypeError, 1, 16},
		{"function r(n) { return r(n + 1) } r(0)", RangeError, 1, 25},
		{"var o = 1; o.p = 2", TypeError, 1, 13},
	}
	for _, tt := range tests {
		rt := evalErr(t, tt.src)
		if rt.Kind != tt.kind || rt.Line != tt.line || rt.Col != tt.col {
			t.Errorf("%q: expected %v at %d:%d, got %v at %d:%d (%s)",
				tt.src, tt.kind, tt.line, tt.col, rt.Kind, rt.Line, rt.Col, rt.Msg)
		}
	}
}

func TestEval_GlobalScopePersists(t *testing.T) {
	e := New()
	_, err := e.Eval(nil, "var a = 1; function inc() { a = a + 1 }")
	require.NoError(t, err)
	_, err = e.Eval(nil, "inc(); inc()")
	require.NoError(t, err)
	v, err := e.Eval(nil, "a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Number())

	_, err = e.Eval(nil, "a = 10; missing()")
	require.Error(t, err)
	v, _ = e.Eval(nil, "a")
	assert.Equal(t, 10.0, v.Number(), "effects before a fault stay")
}

func TestInterpreter_CallDepthResets(t *testing.T) {
	e := New()
	_, err := e.Eval(nil, "function r() { return r() } r()")
	require.Error(t, err)
	v, err := e.Eval(nil, "function one() { return 1 } one()")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Number())
}

func TestInterpreter_ClosuresShareScopes(t *testing.T) {
	e := New()
	ip := e.Interpreter()
	_, err := e.Eval(nil, `
		function counter() { var n = 0; function next() { n = n + 1; return n } return next }
		var c = counter();`)
	require.NoError(t, err)
	before := ip.Scopes()

	v, err := e.Eval(nil, "c(); c(); c()")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.Number(), "the closure updates the captured n")
	assert.Equal(t, before+3, ip.Scopes(), "one scope per call, none copied")
}

func TestInterpreter_CallFromGo(t *testing.T) {
	ip := NewInterpreter(nil)
	prog, err := Parse("function twice(x) { return x * 2 }")
	require.NoError(t, err)
	_, err = ip.Run(prog)
	require.NoError(t, err)

	fn, ok := ip.Lookup("twice")
	require.True(t, ok)
	v, err := ip.Call(fn, Num(21))
	require.NoError(t, err)
	assert.Equal(t, 42.0, v.Number())

	_, err = ip.Call(Num(1))
	assert.Error(t, err)
}
