package js

import (
	"strconv"
	"strings"
)

// Position is a 1-based source location.
type Position struct {
	Line int
	Col  int
}

func (p Position) Pos() Position { return p }

// Node is a node of the syntax tree. String renders it as an
// s-expression, which keeps parser tests readable.
type Node interface {
	Pos() Position
	String() string
}

type (
	Program struct {
		Position
		Body []Node
	}

	// Declarator is one name in a declaration; Init may be nil.
	Declarator struct {
		Name string
		Init Node
	}

	VarDecl struct {
		Position
		Kind  TokenType // TokVar, TokLet or TokConst
		Decls []Declarator
	}

	FunctionDecl struct {
		Position
		Name   string
		Params []string
		Body   *BlockStmt
	}

	ExprStmt struct {
		Position
		Expr Node
	}

	IfStmt struct {
		Position
		Cond Node
		Then Node
		Else Node // nil without an else branch
	}

	BlockStmt struct {
		Position
		Body []Node
	}

	ReturnStmt struct {
		Position
		Arg Node // nil for a bare return
	}
)

type (
	BinaryExpr struct {
		Position
		Op    TokenType
		Left  Node
		Right Node
	}

	LogicalExpr struct {
		Position
		Op    TokenType // TokAnd or TokOr
		Left  Node
		Right Node
	}

	UnaryExpr struct {
		Position
		Op TokenType
		X  Node
	}

	// AssignExpr assigns to an Identifier or a MemberExpr.
	AssignExpr struct {
		Position
		Target Node
		Value  Node
	}

	CallExpr struct {
		Position
		Callee Node
		Args   []Node
	}

	MemberExpr struct {
		Position
		Object   Node
		Property string
	}

	Identifier struct {
		Position
		Name string
	}

	Literal struct {
		Position
		Value Value
	}

	FunctionExpr struct {
		Position
		Name   string // empty for anonymous functions
		Params []string
		Body   *BlockStmt
	}
)

func sexpr(head string, parts ...string) string {
	if len(parts) == 0 {
		return "(" + head + ")"
	}
	return "(" + head + " " + strings.Join(parts, " ") + ")"
}

func nodeStrings(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.String()
	}
	return out
}

func (n *Program) String() string   { return sexpr("program", nodeStrings(n.Body)...) }
func (n *BlockStmt) String() string { return sexpr("block", nodeStrings(n.Body)...) }
func (n *ExprStmt) String() string  { return n.Expr.String() }

func (n *VarDecl) String() string {
	parts := make([]string, len(n.Decls))
	for i, d := range n.Decls {
		if d.Init == nil {
			parts[i] = d.Name
		} else {
			parts[i] = sexpr("=", d.Name, d.Init.String())
		}
	}
	return sexpr(n.Kind.String(), parts...)
}

func (n *FunctionDecl) String() string {
	return sexpr("function", n.Name, sexpr("params", n.Params...), n.Body.String())
}

func (n *IfStmt) String() string {
	if n.Else == nil {
		return sexpr("if", n.Cond.String(), n.Then.String())
	}
	return sexpr("if", n.Cond.String(), n.Then.String(), n.Else.String())
}

func (n *ReturnStmt) String() string {
	if n.Arg == nil {
		return sexpr("return")
	}
	return sexpr("return", n.Arg.String())
}

func (n *BinaryExpr) String() string {
	return sexpr(n.Op.String(), n.Left.String(), n.Right.String())
}

func (n *LogicalExpr) String() string {
	return sexpr(n.Op.String(), n.Left.String(), n.Right.String())
}

func (n *UnaryExpr) String() string { return sexpr(n.Op.String(), n.X.String()) }

func (n *AssignExpr) String() string {
	return sexpr("=", n.Target.String(), n.Value.String())
}

func (n *CallExpr) String() string {
	return sexpr("call", append([]string{n.Callee.String()}, nodeStrings(n.Args)...)...)
}

func (n *MemberExpr) String() string { return n.Object.String() + "." + n.Property }
func (n *Identifier) String() string { return n.Name }

func (n *Literal) String() string {
	if n.Value.Tag == VTString {
		return strconv.Quote(n.Value.Data.(string))
	}
	return n.Value.ToString()
}

func (n *FunctionExpr) String() string {
	name := n.Name
	if name == "" {
		name = "anonymous"
	}
	return sexpr("function-expr", name, sexpr("params", n.Params...), n.Body.String())
}
