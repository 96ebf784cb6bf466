package js

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ember/pkg/html"
)

// ValueTag enumerates the runtime kinds a Value may hold. The tag decides
// which Go type Value.Data carries.
type ValueTag int

const (
	VTUndefined ValueTag = iota // no payload
	VTNull                      // no payload
	VTBool                      // bool
	VTNumber                    // float64
	VTString                    // string
	VTNode                      // html.NodeID
	VTFunction                  // *Function
	VTNative                    // *Native
	VTObject                    // *Object
)

func (t ValueTag) String() string {
	switch t {
	case VTUndefined:
		return "undefined"
	case VTNull:
		return "null"
	case VTBool:
		return "boolean"
	case VTNumber:
		return "number"
	case VTString:
		return "string"
	case VTNode:
		return "node"
	case VTFunction, VTNative:
		return "function"
	case VTObject:
		return "object"
	}
	return fmt.Sprintf("ValueTag(%d)", int(t))
}

// Value is the universal runtime carrier of the interpreter.
type Value struct {
	Tag  ValueTag
	Data any
}

var (
	Undefined = Value{Tag: VTUndefined}
	Null      = Value{Tag: VTNull}
)

func Bool(b bool) Value               { return Value{Tag: VTBool, Data: b} }
func Num(f float64) Value             { return Value{Tag: VTNumber, Data: f} }
func Str(s string) Value              { return Value{Tag: VTString, Data: s} }
func NodeRef(id html.NodeID) Value    { return Value{Tag: VTNode, Data: id} }
func FunctionValue(f *Function) Value { return Value{Tag: VTFunction, Data: f} }
func NativeValue(n *Native) Value     { return Value{Tag: VTNative, Data: n} }
func ObjectValue(o *Object) Value     { return Value{Tag: VTObject, Data: o} }

// Function is a closure over the scope it was defined in.
type Function struct {
	Name   string
	Params []string
	Body   *BlockStmt
	Scope  scopeID
}

// Native is a function implemented in Go.
type Native struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

// Object is a host object with plain properties and computed getters.
type Object struct {
	Class   string
	props   map[string]Value
	getters map[string]func() Value
}

// NewObject creates an empty host object.
func NewObject(class string) *Object {
	return &Object{Class: class, props: make(map[string]Value), getters: make(map[string]func() Value)}
}

// Set stores a plain property.
func (o *Object) Set(name string, v Value) { o.props[name] = v }

// SetNative stores a native method.
func (o *Object) SetNative(name string, fn func(args []Value) (Value, error)) {
	o.props[name] = NativeValue(&Native{Name: name, Fn: fn})
}

// Define installs a computed read-only property.
func (o *Object) Define(name string, get func() Value) { o.getters[name] = get }

// Get returns a property. Missing properties read as undefined.
func (o *Object) Get(name string) Value {
	if get, ok := o.getters[name]; ok {
		return get()
	}
	if v, ok := o.props[name]; ok {
		return v
	}
	return Undefined
}

// Number returns the payload of a number value.
func (v Value) Number() float64 {
	f, _ := v.Data.(float64)
	return f
}

// Node returns the payload of a node reference.
func (v Value) Node() html.NodeID {
	id, ok := v.Data.(html.NodeID)
	if !ok {
		return html.InvalidNode
	}
	return id
}

// Callable reports whether v can be called.
func (v Value) Callable() bool { return v.Tag == VTFunction || v.Tag == VTNative }

// Truthy applies the script truthiness rules.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTUndefined, VTNull:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTNumber:
		f := v.Number()
		return f != 0 && !math.IsNaN(f)
	case VTString:
		return v.Data.(string) != ""
	}
	return true
}

// ToString converts v the way string concatenation does.
func (v Value) ToString() string {
	switch v.Tag {
	case VTUndefined:
		return "undefined"
	case VTNull:
		return "null"
	case VTBool:
		return strconv.FormatBool(v.Data.(bool))
	case VTNumber:
		return FormatNumber(v.Number())
	case VTString:
		return v.Data.(string)
	case VTNode:
		return "[object Node]"
	case VTFunction:
		return "function " + v.Data.(*Function).Name + "() { [code] }"
	case VTNative:
		return "function " + v.Data.(*Native).Name + "() { [native code] }"
	case VTObject:
		return "[object " + v.Data.(*Object).Class + "]"
	}
	return ""
}

// String renders v for debugging and the REPL; strings are quoted.
func (v Value) String() string {
	if v.Tag == VTString {
		return strconv.Quote(v.Data.(string))
	}
	return v.ToString()
}

// toNumber converts primitives for loose equality. ok is false for values
// that have no numeric form.
func (v Value) toNumber() (float64, bool) {
	switch v.Tag {
	case VTNumber:
		return v.Number(), true
	case VTBool:
		if v.Data.(bool) {
			return 1, true
		}
		return 0, true
	case VTString:
		s := strings.TrimSpace(v.Data.(string))
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), true
		}
		return f, true
	case VTNull:
		return 0, true
	}
	return 0, false
}

// FormatNumber prints f the way scripts print numbers: integers without a
// fraction, exponents for very large or very small magnitudes.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTUndefined, VTNull:
		return true
	case VTNumber:
		return a.Number() == b.Number()
	}
	return a.Data == b.Data
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	if a.Tag == b.Tag {
		return StrictEquals(a, b)
	}
	nullish := func(v Value) bool { return v.Tag == VTNull || v.Tag == VTUndefined }
	if nullish(a) || nullish(b) {
		return nullish(a) && nullish(b)
	}
	x, okA := a.toNumber()
	y, okB := b.toNumber()
	return okA && okB && x == y
}
