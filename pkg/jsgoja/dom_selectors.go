package jsgoja

import (
	"github.com/dop251/goja"

	"ember/pkg/css"
	"ember/pkg/html"
)

// selectors parses the selector argument of a query. Only the selector
// kinds the cascade understands are accepted; anything else throws.
func (ctx *domContext) selectors(method string, call goja.FunctionCall) []css.Selector {
	if len(call.Arguments) == 0 {
		ctx.throw("Failed to execute '%s': 1 argument required", method)
	}
	text := call.Arguments[0].String()
	sels, ok := css.ParseSelectors(text)
	if !ok {
		panic(ctx.vm.NewGoError(&SelectorError{Selector: text}))
	}
	return sels
}

func (ctx *domContext) matchesAny(id html.NodeID, sels []css.Selector) bool {
	for _, sel := range sels {
		if css.MatchesSelector(ctx.doc, id, sel) {
			return true
		}
	}
	return false
}

func (ctx *domContext) querySelector(root html.NodeID, call goja.FunctionCall) goja.Value {
	sels := ctx.selectors("querySelector", call)
	found := html.InvalidNode
	ctx.doc.Walk(root, func(n html.NodeID) bool {
		if found != html.InvalidNode {
			return false
		}
		if n != root && ctx.matchesAny(n, sels) {
			found = n
			return false
		}
		return true
	})
	return ctx.nodeOrNull(found)
}

func (ctx *domContext) querySelectorAll(root html.NodeID, call goja.FunctionCall) goja.Value {
	sels := ctx.selectors("querySelectorAll", call)
	return ctx.array(ctx.descendants(root, func(n html.NodeID) bool {
		return ctx.matchesAny(n, sels)
	}))
}

// SelectorError reports a selector the query functions cannot evaluate.
type SelectorError struct {
	Selector string
}

func (e *SelectorError) Error() string {
	return "'" + e.Selector + "' is not a valid selector"
}
