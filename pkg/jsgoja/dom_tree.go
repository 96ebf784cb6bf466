package jsgoja

import (
	"github.com/dop251/goja"

	"ember/pkg/html"
)

func (e *elementAccessor) elementChildren() []html.NodeID {
	var out []html.NodeID
	for _, c := range e.ctx.doc.Children(e.id) {
		if e.ctx.doc.IsElement(c) {
			out = append(out, c)
		}
	}
	return out
}

func (e *elementAccessor) childAt(i int) goja.Value {
	kids := e.ctx.doc.Children(e.id)
	if i < 0 || i >= len(kids) {
		return goja.Null()
	}
	return e.ctx.proxy(kids[i])
}

// sibling returns the node delta positions away from e under the same
// parent.
func (e *elementAccessor) sibling(delta int) goja.Value {
	doc := e.ctx.doc
	parent := doc.Parent(e.id)
	if parent == html.InvalidNode {
		return goja.Null()
	}
	kids := doc.Children(parent)
	for i, c := range kids {
		if c == e.id {
			j := i + delta
			if j < 0 || j >= len(kids) {
				return goja.Null()
			}
			return e.ctx.proxy(kids[j])
		}
	}
	return goja.Null()
}

func (e *elementAccessor) appendChild(call goja.FunctionCall) goja.Value {
	child := e.nodeArg("appendChild", call)
	if err := e.ctx.doc.AppendChild(e.id, child); err != nil {
		e.ctx.throw("Failed to execute 'appendChild': %v", err)
	}
	return e.ctx.proxy(child)
}

func (e *elementAccessor) removeChild(call goja.FunctionCall) goja.Value {
	child := e.nodeArg("removeChild", call)
	if err := e.ctx.doc.RemoveChild(e.id, child); err != nil {
		e.ctx.throw("Failed to execute 'removeChild': %v", err)
	}
	return e.ctx.proxy(child)
}

func (e *elementAccessor) nodeArg(method string, call goja.FunctionCall) html.NodeID {
	if len(call.Arguments) == 0 {
		e.ctx.throw("Failed to execute '%s': 1 argument required", method)
	}
	id, ok := e.ctx.unwrap(call.Arguments[0])
	if !ok {
		e.ctx.throw("Failed to execute '%s': parameter 1 is not a Node", method)
	}
	return id
}

// descendants returns the descendants of root, excluding root, that satisfy
// keep, in document order.
func (ctx *domContext) descendants(root html.NodeID, keep func(html.NodeID) bool) []html.NodeID {
	var out []html.NodeID
	ctx.doc.Walk(root, func(n html.NodeID) bool {
		if n != root && ctx.doc.IsElement(n) && keep(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
