package js

import "fmt"

// Parser builds a syntax tree from tokens by recursive descent.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses a complete script.
func Parse(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	return p.parseProgram()
}

func (p *Parser) peek() Token { return p.tokens[p.pos] }

func (p *Parser) prev() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != TokEOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(types ...TokenType) bool {
	cur := p.peek().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	if p.check(types...) {
		return p.next(), true
	}
	return Token{}, false
}

func (p *Parser) errorAt(t Token, format string, args ...any) error {
	return &SyntaxError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...), AtEnd: t.Type == TokEOF}
}

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if tok, ok := p.match(t); ok {
		return tok, nil
	}
	return Token{}, p.errorAt(p.peek(), "expected %s, found %s", what, p.peek())
}

// endStatement consumes an optional semicolon. Without one the statement
// must be followed by '}', the end of input, or a line break.
func (p *Parser) endStatement() error {
	if _, ok := p.match(TokSemicolon); ok {
		return nil
	}
	next := p.peek()
	if next.Type == TokRBrace || next.Type == TokEOF || next.Line > p.prev().Line {
		return nil
	}
	return p.errorAt(next, "unexpected %s", next)
}

func pos(t Token) Position { return Position{Line: t.Line, Col: t.Col} }

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{Position: Position{Line: 1, Col: 1}}
	for !p.check(TokEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}
	return prog, nil
}

// parseStatement returns nil for an empty statement.
func (p *Parser) parseStatement() (Node, error) {
	start := p.peek()
	switch start.Type {
	case TokSemicolon:
		p.next()
		return nil, nil
	case TokVar, TokLet, TokConst:
		return p.parseVarDecl()
	case TokFunction:
		// a function keyword at statement start is a declaration
		p.next()
		name, err := p.expect(TokIdent, "function name")
		if err != nil {
			return nil, err
		}
		params, body, err := p.parseFunctionRest()
		if err != nil {
			return nil, err
		}
		return &FunctionDecl{Position: pos(start), Name: name.Str, Params: params, Body: body}, nil
	case TokReturn:
		p.next()
		ret := &ReturnStmt{Position: pos(start)}
		next := p.peek()
		if next.Type != TokSemicolon && next.Type != TokRBrace && next.Type != TokEOF && next.Line == start.Line {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			ret.Arg = arg
		}
		return ret, p.endStatement()
	case TokIf:
		return p.parseIf()
	case TokLBrace:
		return p.parseBlock()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Position: pos(start), Expr: expr}, p.endStatement()
}

func (p *Parser) parseVarDecl() (Node, error) {
	kw := p.next()
	decl := &VarDecl{Position: pos(kw), Kind: kw.Type}
	for {
		name, err := p.expect(TokIdent, "variable name")
		if err != nil {
			return nil, err
		}
		d := Declarator{Name: name.Str}
		if _, ok := p.match(TokAssign); ok {
			if d.Init, err = p.parseAssignment(); err != nil {
				return nil, err
			}
		} else if kw.Type == TokConst {
			return nil, p.errorAt(name, "missing initializer in const declaration")
		}
		decl.Decls = append(decl.Decls, d)
		if _, ok := p.match(TokComma); !ok {
			break
		}
	}
	return decl, p.endStatement()
}

func (p *Parser) parseIf() (Node, error) {
	kw := p.next()
	if _, err := p.expect(TokLParen, "'(' after if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	stmt := &IfStmt{Position: pos(kw), Cond: cond}
	if stmt.Then, err = p.parseBody(); err != nil {
		return nil, err
	}
	if _, ok := p.match(TokElse); ok {
		if stmt.Else, err = p.parseBody(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseBody parses the branch of an if; an empty statement becomes an
// empty block.
func (p *Parser) parseBody() (Node, error) {
	start := p.peek()
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return &BlockStmt{Position: pos(start)}, nil
	}
	return stmt, nil
}

func (p *Parser) parseBlock() (*BlockStmt, error) {
	open, err := p.expect(TokLBrace, "'{'")
	if err != nil {
		return nil, err
	}
	block := &BlockStmt{Position: pos(open)}
	for !p.check(TokRBrace) {
		if p.check(TokEOF) {
			return nil, p.errorAt(p.peek(), "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		}
	}
	p.next()
	return block, nil
}

// parseFunctionRest parses "(params) { body }".
func (p *Parser) parseFunctionRest() ([]string, *BlockStmt, error) {
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, nil, err
	}
	var params []string
	if !p.check(TokRParen) {
		for {
			name, err := p.expect(TokIdent, "parameter name")
			if err != nil {
				return nil, nil, err
			}
			params = append(params, name.Str)
			if _, ok := p.match(TokComma); !ok {
				break
			}
		}
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, nil, err
	}
	return params, body, nil
}

func (p *Parser) parseExpression() (Node, error) { return p.parseAssignment() }

func (p *Parser) parseAssignment() (Node, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	eq, ok := p.match(TokAssign)
	if !ok {
		return left, nil
	}
	switch left.(type) {
	case *Identifier, *MemberExpr:
	default:
		return nil, p.errorAt(eq, "invalid assignment target")
	}
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &AssignExpr{Position: pos(eq), Target: left, Value: value}, nil
}

// binaryLevels lists the left-associative binary operators from the
// loosest to the tightest binding.
var binaryLevels = [][]TokenType{
	{TokOr},
	{TokAnd},
	{TokEq, TokNotEq, TokStrictEq, TokStrictNotEq},
	{TokLess, TokGreater, TokLessEq, TokGreaterEq},
	{TokPlus, TokMinus},
	{TokStar, TokSlash, TokPercent},
}

func (p *Parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(binaryLevels[level]...)
		if !ok {
			return left, nil
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		if op.Type == TokAnd || op.Type == TokOr {
			left = &LogicalExpr{Position: pos(op), Op: op.Type, Left: left, Right: right}
		} else {
			left = &BinaryExpr{Position: pos(op), Op: op.Type, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (Node, error) {
	if op, ok := p.match(TokNot, TokMinus, TokPlus); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Position: pos(op), Op: op.Type, X: x}, nil
	}
	return p.parseCallMember()
}

func (p *Parser) parseCallMember() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(TokLParen):
			open := p.next()
			call := &CallExpr{Position: pos(open), Callee: expr}
			if !p.check(TokRParen) {
				for {
					arg, err := p.parseAssignment()
					if err != nil {
						return nil, err
					}
					call.Args = append(call.Args, arg)
					if _, ok := p.match(TokComma); !ok {
						break
					}
				}
			}
			if _, err := p.expect(TokRParen, "')' after arguments"); err != nil {
				return nil, err
			}
			expr = call
		case p.check(TokDot):
			dot := p.next()
			name := p.next()
			// keywords are valid property names
			isName := name.Type == TokIdent || (name.Type >= TokVar && name.Type <= TokUndefined)
			if !isName {
				return nil, p.errorAt(name, "expected property name, found %s", name)
			}
			expr = &MemberExpr{Position: pos(dot), Object: expr, Property: name.Lexeme}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	t := p.next()
	at := pos(t)
	switch t.Type {
	case TokNumber:
		return &Literal{Position: at, Value: Num(t.Num)}, nil
	case TokString:
		return &Literal{Position: at, Value: Str(t.Str)}, nil
	case TokTrue:
		return &Literal{Position: at, Value: Bool(true)}, nil
	case TokFalse:
		return &Literal{Position: at, Value: Bool(false)}, nil
	case TokNull:
		return &Literal{Position: at, Value: Null}, nil
	case TokUndefined:
		return &Literal{Position: at, Value: Undefined}, nil
	case TokIdent:
		return &Identifier{Position: at, Name: t.Str}, nil
	case TokLParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case TokFunction:
		fn := &FunctionExpr{Position: at}
		if name, ok := p.match(TokIdent); ok {
			fn.Name = name.Str
		}
		params, body, err := p.parseFunctionRest()
		if err != nil {
			return nil, err
		}
		fn.Params, fn.Body = params, body
		return fn, nil
	case TokEOF:
		return nil, p.errorAt(t, "unexpected end of input")
	}
	return nil, p.errorAt(t, "unexpected %s", t)
}
