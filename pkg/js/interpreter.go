package js

import (
	"errors"
)

// MaxCallDepth bounds nested calls; deeper calls raise a RangeError.
const MaxCallDepth = 256

type scopeID int

const noScope scopeID = -1

type scope struct {
	vars   map[string]Value
	consts map[string]bool
	parent scopeID
}

// Host resolves properties of node references. It is how the interpreter
// reaches the document it runs against.
type Host interface {
	GetProperty(node Value, name string) (Value, error)
	SetProperty(node Value, name string, v Value) error
}

// Interpreter evaluates programs against an arena of scopes. The global
// scope lives at index 0 and persists across Run calls.
type Interpreter struct {
	scopes []scope
	depth  int
	host   Host
}

// NewInterpreter creates an interpreter with an empty global scope. host
// may be nil when scripts never touch nodes.
func NewInterpreter(host Host) *Interpreter {
	ip := &Interpreter{host: host}
	ip.newScope(noScope)
	return ip
}

func (ip *Interpreter) global() scopeID { return 0 }

// Define binds name in the global scope.
func (ip *Interpreter) Define(name string, v Value) {
	ip.declare(ip.global(), name, v, false)
}

// Lookup reads a global binding.
func (ip *Interpreter) Lookup(name string) (Value, bool) {
	v, ok := ip.scopes[ip.global()].vars[name]
	return v, ok
}

// Scopes returns the number of scopes allocated so far.
func (ip *Interpreter) Scopes() int { return len(ip.scopes) }

func (ip *Interpreter) newScope(parent scopeID) scopeID {
	ip.scopes = append(ip.scopes, scope{vars: make(map[string]Value), parent: parent})
	return scopeID(len(ip.scopes) - 1)
}

func (ip *Interpreter) declare(s scopeID, name string, v Value, constant bool) {
	sc := &ip.scopes[s]
	sc.vars[name] = v
	if constant {
		if sc.consts == nil {
			sc.consts = make(map[string]bool)
		}
		sc.consts[name] = true
	} else if sc.consts != nil {
		delete(sc.consts, name)
	}
}

func (ip *Interpreter) resolve(s scopeID, name string) (scopeID, bool) {
	for ; s != noScope; s = ip.scopes[s].parent {
		if _, ok := ip.scopes[s].vars[name]; ok {
			return s, true
		}
	}
	return noScope, false
}

// Run executes a program in the global scope and returns the value of the
// last expression statement evaluated.
func (ip *Interpreter) Run(prog *Program) (Value, error) {
	ip.depth = 0
	ip.hoist(prog.Body, ip.global())
	last := Undefined
	for _, stmt := range prog.Body {
		ctl, v, err := ip.exec(stmt, ip.global())
		if err != nil {
			return Undefined, err
		}
		if _, ok := stmt.(*ExprStmt); ok {
			last = v
		}
		if ctl == ctlReturn {
			return v, nil
		}
	}
	return last, nil
}

// hoist binds the function declarations of a body before it runs.
func (ip *Interpreter) hoist(body []Node, s scopeID) {
	for _, stmt := range body {
		if fn, ok := stmt.(*FunctionDecl); ok {
			ip.declare(s, fn.Name, FunctionValue(&Function{
				Name: fn.Name, Params: fn.Params, Body: fn.Body, Scope: s,
			}), false)
		}
	}
}

type control int

const (
	ctlNormal control = iota
	ctlReturn
)

// at attaches the position of n to a runtime error that has none.
func at(n Node, err error) error {
	var rt *RuntimeError
	if errors.As(err, &rt) && rt.Line == 0 {
		p := n.Pos()
		rt.Line, rt.Col = p.Line, p.Col
	}
	return err
}

func (ip *Interpreter) exec(n Node, s scopeID) (control, Value, error) {
	switch n := n.(type) {
	case *ExprStmt:
		v, err := ip.eval(n.Expr, s)
		return ctlNormal, v, err
	case *VarDecl:
		for _, d := range n.Decls {
			v := Undefined
			if d.Init != nil {
				var err error
				if v, err = ip.eval(d.Init, s); err != nil {
					return ctlNormal, Undefined, err
				}
			}
			ip.declare(s, d.Name, v, n.Kind == TokConst)
		}
		return ctlNormal, Undefined, nil
	case *FunctionDecl:
		// bound by hoist
		return ctlNormal, Undefined, nil
	case *ReturnStmt:
		if n.Arg == nil {
			return ctlReturn, Undefined, nil
		}
		v, err := ip.eval(n.Arg, s)
		return ctlReturn, v, err
	case *IfStmt:
		cond, err := ip.eval(n.Cond, s)
		if err != nil {
			return ctlNormal, Undefined, err
		}
		if cond.Truthy() {
			return ip.exec(n.Then, s)
		}
		if n.Else != nil {
			return ip.exec(n.Else, s)
		}
		return ctlNormal, Undefined, nil
	case *BlockStmt:
		ip.hoist(n.Body, s)
		for _, stmt := range n.Body {
			ctl, v, err := ip.exec(stmt, s)
			if err != nil || ctl == ctlReturn {
				return ctl, v, err
			}
		}
		return ctlNormal, Undefined, nil
	}
	v, err := ip.eval(n, s)
	return ctlNormal, v, err
}

func (ip *Interpreter) eval(n Node, s scopeID) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil
	case *Identifier:
		owner, ok := ip.resolve(s, n.Name)
		if !ok {
			return Undefined, at(n, throw(ReferenceError, "%s is not defined", n.Name))
		}
		return ip.scopes[owner].vars[n.Name], nil
	case *FunctionExpr:
		return FunctionValue(&Function{Name: n.Name, Params: n.Params, Body: n.Body, Scope: s}), nil
	case *AssignExpr:
		return ip.assign(n, s)
	case *LogicalExpr:
		left, err := ip.eval(n.Left, s)
		if err != nil {
			return Undefined, err
		}
		if (n.Op == TokAnd) != left.Truthy() {
			return left, nil
		}
		return ip.eval(n.Right, s)
	case *UnaryExpr:
		x, err := ip.eval(n.X, s)
		if err != nil {
			return Undefined, err
		}
		v, err := unary(n.Op, x)
		return v, at(n, err)
	case *BinaryExpr:
		left, err := ip.eval(n.Left, s)
		if err != nil {
			return Undefined, err
		}
		right, err := ip.eval(n.Right, s)
		if err != nil {
			return Undefined, err
		}
		v, err := binary(n.Op, left, right)
		return v, at(n, err)
	case *MemberExpr:
		obj, err := ip.eval(n.Object, s)
		if err != nil {
			return Undefined, err
		}
		v, err := ip.getMember(obj, n.Property)
		return v, at(n, err)
	case *CallExpr:
		return ip.call(n, s)
	}
	return Undefined, at(n, throw(TypeError, "cannot evaluate %s", n))
}

func (ip *Interpreter) assign(n *AssignExpr, s scopeID) (Value, error) {
	switch target := n.Target.(type) {
	case *Identifier:
		owner, ok := ip.resolve(s, target.Name)
		if !ok {
			return Undefined, at(target, throw(ReferenceError, "%s is not defined", target.Name))
		}
		if ip.scopes[owner].consts[target.Name] {
			return Undefined, at(n, throw(TypeError, "assignment to constant variable %s", target.Name))
		}
		v, err := ip.eval(n.Value, s)
		if err != nil {
			return Undefined, err
		}
		ip.scopes[owner].vars[target.Name] = v
		return v, nil
	case *MemberExpr:
		obj, err := ip.eval(target.Object, s)
		if err != nil {
			return Undefined, err
		}
		v, err := ip.eval(n.Value, s)
		if err != nil {
			return Undefined, err
		}
		return v, at(target, ip.setMember(obj, target.Property, v))
	}
	return Undefined, at(n, throw(TypeError, "invalid assignment target"))
}

func (ip *Interpreter) getMember(obj Value, name string) (Value, error) {
	switch obj.Tag {
	case VTObject:
		return obj.Data.(*Object).Get(name), nil
	case VTNode:
		if ip.host == nil {
			return Undefined, throw(TypeError, "no document")
		}
		return ip.host.GetProperty(obj, name)
	case VTString:
		if name == "length" {
			return Num(float64(len([]rune(obj.Data.(string))))), nil
		}
		return Undefined, nil
	case VTUndefined, VTNull:
		return Undefined, throw(TypeError, "cannot read property %q of %s", name, obj.ToString())
	}
	return Undefined, nil
}

func (ip *Interpreter) setMember(obj Value, name string, v Value) error {
	switch obj.Tag {
	case VTObject:
		obj.Data.(*Object).Set(name, v)
		return nil
	case VTNode:
		if ip.host == nil {
			return throw(TypeError, "no document")
		}
		return ip.host.SetProperty(obj, name, v)
	}
	return throw(TypeError, "cannot set property %q of %s", name, obj.ToString())
}

func (ip *Interpreter) call(n *CallExpr, s scopeID) (Value, error) {
	callee, err := ip.eval(n.Callee, s)
	if err != nil {
		return Undefined, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		if args[i], err = ip.eval(a, s); err != nil {
			return Undefined, err
		}
	}
	if !callee.Callable() {
		return Undefined, at(n, throw(TypeError, "%s is not a function", n.Callee))
	}

	ip.depth++
	defer func() { ip.depth-- }()
	if ip.depth > MaxCallDepth {
		return Undefined, at(n, throw(RangeError, "maximum call stack size exceeded"))
	}

	if callee.Tag == VTNative {
		v, err := callee.Data.(*Native).Fn(args)
		return v, at(n, err)
	}
	return ip.invoke(callee.Data.(*Function), args)
}

// invoke runs a function body in a new scope whose parent is the scope the
// function was defined in.
func (ip *Interpreter) invoke(fn *Function, args []Value) (Value, error) {
	s := ip.newScope(fn.Scope)
	for i, p := range fn.Params {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		ip.declare(s, p, v, false)
	}
	ip.hoist(fn.Body.Body, s)
	for _, stmt := range fn.Body.Body {
		ctl, v, err := ip.exec(stmt, s)
		if err != nil {
			return Undefined, err
		}
		if ctl == ctlReturn {
			return v, nil
		}
	}
	return Undefined, nil
}

// Call invokes a callable value from Go.
func (ip *Interpreter) Call(fn Value, args ...Value) (Value, error) {
	switch fn.Tag {
	case VTNative:
		return fn.Data.(*Native).Fn(args)
	case VTFunction:
		return ip.invoke(fn.Data.(*Function), args)
	}
	return Undefined, throw(TypeError, "%s is not a function", fn.Tag)
}
