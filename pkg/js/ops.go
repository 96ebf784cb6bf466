package js

import "math"

func unary(op TokenType, x Value) (Value, error) {
	switch op {
	case TokNot:
		return Bool(!x.Truthy()), nil
	case TokMinus:
		if x.Tag != VTNumber {
			return Undefined, throw(TypeError, "cannot negate %s", x.Tag)
		}
		return Num(-x.Number()), nil
	case TokPlus:
		if x.Tag != VTNumber {
			return Undefined, throw(TypeError, "unary + needs a number, got %s", x.Tag)
		}
		return x, nil
	}
	return Undefined, throw(TypeError, "unknown unary operator %s", op)
}

func binary(op TokenType, a, b Value) (Value, error) {
	switch op {
	case TokPlus:
		if a.Tag == VTString || b.Tag == VTString {
			return Str(a.ToString() + b.ToString()), nil
		}
		if a.Tag == VTNumber && b.Tag == VTNumber {
			return Num(a.Number() + b.Number()), nil
		}
		return Undefined, throw(TypeError, "cannot add %s and %s", a.Tag, b.Tag)
	case TokMinus, TokStar, TokSlash, TokPercent:
		if a.Tag != VTNumber || b.Tag != VTNumber {
			return Undefined, throw(TypeError, "operator %s needs numbers, got %s and %s", op, a.Tag, b.Tag)
		}
		x, y := a.Number(), b.Number()
		switch op {
		case TokMinus:
			return Num(x - y), nil
		case TokStar:
			return Num(x * y), nil
		case TokSlash:
			return Num(x / y), nil
		default:
			return Num(math.Mod(x, y)), nil
		}
	case TokEq:
		return Bool(LooseEquals(a, b)), nil
	case TokNotEq:
		return Bool(!LooseEquals(a, b)), nil
	case TokStrictEq:
		return Bool(StrictEquals(a, b)), nil
	case TokStrictNotEq:
		return Bool(!StrictEquals(a, b)), nil
	case TokLess, TokGreater, TokLessEq, TokGreaterEq:
		return compare(op, a, b)
	}
	return Undefined, throw(TypeError, "unknown operator %s", op)
}

func compare(op TokenType, a, b Value) (Value, error) {
	var cmp int
	switch {
	case a.Tag == VTNumber && b.Tag == VTNumber:
		x, y := a.Number(), b.Number()
		if math.IsNaN(x) || math.IsNaN(y) {
			return Bool(false), nil
		}
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		}
	case a.Tag == VTString && b.Tag == VTString:
		x, y := a.Data.(string), b.Data.(string)
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		}
	default:
		return Undefined, throw(TypeError, "cannot compare %s and %s", a.Tag, b.Tag)
	}
	switch op {
	case TokLess:
		return Bool(cmp < 0), nil
	case TokGreater:
		return Bool(cmp > 0), nil
	case TokLessEq:
		return Bool(cmp <= 0), nil
	}
	return Bool(cmp >= 0), nil
}
