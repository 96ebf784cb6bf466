package jsgoja

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"ember/pkg/html"
)

// domContext holds the DOM bindings of one engine. It caches one proxy per
// node so the same JS object is returned for the same node, which keeps ===
// identity checks working.
type domContext struct {
	vm    *goja.Runtime
	doc   *html.Document
	cache map[html.NodeID]*goja.Object
}

func newDOMContext(vm *goja.Runtime) *domContext {
	return &domContext{vm: vm, cache: make(map[html.NodeID]*goja.Object)}
}

// bind points the bindings at doc. Proxies of a previous document are
// dropped.
func (ctx *domContext) bind(doc *html.Document) {
	if doc != ctx.doc {
		ctx.doc = doc
		ctx.cache = make(map[html.NodeID]*goja.Object)
	}
}

func (ctx *domContext) throw(format string, args ...any) {
	panic(ctx.vm.NewTypeError(fmt.Sprintf(format, args...)))
}

// documentObject builds the global document object. Its functions read
// ctx.doc on every call, so it survives rebinding.
func (ctx *domContext) documentObject() *goja.Object {
	vm := ctx.vm
	obj := vm.NewObject()
	obj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if ctx.doc == nil || len(call.Arguments) == 0 {
			return goja.Null()
		}
		id, ok := ctx.doc.GetElementByID(call.Arguments[0].String())
		if !ok {
			return goja.Null()
		}
		return ctx.proxy(id)
	})
	obj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if ctx.doc == nil || len(call.Arguments) == 0 {
			return ctx.array(nil)
		}
		return ctx.array(ctx.doc.ElementsByTagName(call.Arguments[0].String()))
	})
	obj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			ctx.throw("Failed to execute 'createElement' on 'Document': 1 argument required")
		}
		ctx.requireDoc()
		return ctx.proxy(ctx.doc.CreateElement(strings.ToLower(call.Arguments[0].String())))
	})
	obj.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		ctx.requireDoc()
		text := ""
		if len(call.Arguments) > 0 {
			text = call.Arguments[0].String()
		}
		return ctx.proxy(ctx.doc.CreateTextNode(text))
	})
	obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		ctx.requireDoc()
		return ctx.querySelector(ctx.doc.Root(), call)
	})
	obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		ctx.requireDoc()
		return ctx.querySelectorAll(ctx.doc.Root(), call)
	})

	getter := func(fn func(*html.Document) html.NodeID) goja.Value {
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if ctx.doc == nil {
				return goja.Null()
			}
			return ctx.nodeOrNull(fn(ctx.doc))
		})
	}
	obj.DefineAccessorProperty("body", getter((*html.Document).Body), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("head", getter((*html.Document).Head), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("documentElement", getter((*html.Document).DocumentElement), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	return obj
}

func (ctx *domContext) requireDoc() {
	if ctx.doc == nil {
		ctx.throw("no document")
	}
}

// proxy returns the cached JS object for id, creating it on first use.
func (ctx *domContext) proxy(id html.NodeID) *goja.Object {
	if v, ok := ctx.cache[id]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, doc: ctx.doc, id: id})
	ctx.cache[id] = v
	return v
}

func (ctx *domContext) nodeOrNull(id html.NodeID) goja.Value {
	if id == html.InvalidNode || ctx.doc.Node(id) == nil {
		return goja.Null()
	}
	return ctx.proxy(id)
}

func (ctx *domContext) array(ids []html.NodeID) goja.Value {
	items := make([]any, len(ids))
	for i, id := range ids {
		items[i] = ctx.proxy(id)
	}
	return ctx.vm.NewArray(items...)
}

// unwrap returns the node behind a proxy of the current document.
func (ctx *domContext) unwrap(val goja.Value) (html.NodeID, bool) {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return html.InvalidNode, false
	}
	acc, ok := val.Export().(*elementAccessor)
	if !ok || acc.ctx != ctx || !acc.live() {
		return html.InvalidNode, false
	}
	return acc.id, true
}

// elementAccessor implements goja.DynamicObject for a document node. A
// proxy created for one document reads as undefined once the engine moves
// on to another.
type elementAccessor struct {
	ctx *domContext
	doc *html.Document
	id  html.NodeID
}

func (e *elementAccessor) live() bool {
	return e.doc != nil && e.doc == e.ctx.doc && e.doc.Node(e.id) != nil
}

var elementKeys = []string{
	"tagName", "nodeName", "nodeType", "nodeValue", "id", "className",
	"textContent", "innerHTML", "outerHTML",
	"getAttribute", "setAttribute", "hasAttribute",
	"children", "childNodes", "childCount", "childElementCount",
	"parentNode", "parentElement", "firstChild", "lastChild",
	"nextSibling", "previousSibling",
	"appendChild", "removeChild", "remove", "contains", "hasChildNodes",
	"querySelector", "querySelectorAll", "getElementsByTagName",
	"classList", "style",
}

func (e *elementAccessor) Get(key string) goja.Value {
	if !e.live() {
		return goja.Undefined()
	}
	ctx, vm, doc := e.ctx, e.ctx.vm, e.doc
	isText := doc.Type(e.id) == html.TextNode

	switch key {
	case "nodeType":
		switch doc.Type(e.id) {
		case html.TextNode:
			return vm.ToValue(3)
		case html.DocumentNode:
			return vm.ToValue(9)
		}
		return vm.ToValue(1)
	case "nodeName":
		switch doc.Type(e.id) {
		case html.TextNode:
			return vm.ToValue("#text")
		case html.DocumentNode:
			return vm.ToValue("#document")
		}
		return vm.ToValue(strings.ToUpper(doc.TagName(e.id)))
	case "nodeValue":
		if isText {
			return vm.ToValue(doc.TextContent(e.id))
		}
		return goja.Null()
	case "tagName":
		if !doc.IsElement(e.id) {
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(doc.TagName(e.id)))
	case "id":
		v, _ := doc.GetAttribute(e.id, "id")
		return vm.ToValue(v)
	case "className":
		v, _ := doc.GetAttribute(e.id, "class")
		return vm.ToValue(v)
	case "textContent":
		return vm.ToValue(doc.TextContent(e.id))
	case "innerHTML":
		return vm.ToValue(doc.Serialize(e.id))
	case "outerHTML":
		return vm.ToValue(doc.SerializeOuter(e.id))
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			v, ok := doc.GetAttribute(e.id, call.Arguments[0].String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(v)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				ctx.throw("Failed to execute 'setAttribute': 2 arguments required")
			}
			if !doc.IsElement(e.id) {
				ctx.throw("setAttribute called on a non-element")
			}
			doc.SetAttribute(e.id, call.Arguments[0].String(), call.Arguments[1].String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			_, ok := doc.GetAttribute(e.id, call.Arguments[0].String())
			return vm.ToValue(ok)
		})
	case "children":
		return ctx.array(e.elementChildren())
	case "childNodes":
		return ctx.array(doc.Children(e.id))
	case "childCount":
		return vm.ToValue(len(doc.Children(e.id)))
	case "childElementCount":
		return vm.ToValue(len(e.elementChildren()))
	case "parentNode":
		return ctx.nodeOrNull(doc.Parent(e.id))
	case "parentElement":
		if p := doc.Parent(e.id); doc.IsElement(p) {
			return ctx.proxy(p)
		}
		return goja.Null()
	case "firstChild":
		return e.childAt(0)
	case "lastChild":
		return e.childAt(len(doc.Children(e.id)) - 1)
	case "nextSibling":
		return e.sibling(1)
	case "previousSibling":
		return e.sibling(-1)
	case "appendChild":
		return vm.ToValue(e.appendChild)
	case "removeChild":
		return vm.ToValue(e.removeChild)
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if p := doc.Parent(e.id); p != html.InvalidNode {
				_ = doc.RemoveChild(p, e.id)
			}
			return goja.Undefined()
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			other, ok := ctx.unwrap(call.Arguments[0])
			return vm.ToValue(ok && doc.Contains(e.id, other))
		})
	case "hasChildNodes":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(len(doc.Children(e.id)) > 0)
		})
	case "querySelector":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.querySelector(e.id, call)
		})
	case "querySelectorAll":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.querySelectorAll(e.id, call)
		})
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return ctx.array(nil)
			}
			tag := strings.ToLower(call.Arguments[0].String())
			return ctx.array(ctx.descendants(e.id, func(n html.NodeID) bool {
				return doc.TagName(n) == tag
			}))
		})
	case "classList":
		if isText {
			return goja.Undefined()
		}
		return vm.NewDynamicObject(&classListAccessor{ctx: ctx, id: e.id})
	case "style":
		if isText {
			return goja.Undefined()
		}
		return vm.NewDynamicObject(&styleAccessor{ctx: ctx, id: e.id})
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	if !e.live() {
		return false
	}
	doc := e.doc
	switch key {
	case "textContent":
		doc.SetTextContent(e.id, val.String())
		return true
	case "innerHTML":
		doc.SetInnerHTML(e.id, val.String())
		return true
	case "nodeValue":
		if doc.Type(e.id) == html.TextNode {
			doc.SetTextContent(e.id, val.String())
		}
		return true
	case "id":
		doc.SetAttribute(e.id, "id", val.String())
		return true
	case "className":
		doc.SetAttribute(e.id, "class", val.String())
		return true
	}
	return false
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool { return false }

func (e *elementAccessor) Keys() []string { return elementKeys }

// styleAccessor maps camelCase style properties onto the element's inline
// style attribute, which the cascade reads on the next recompute.
type styleAccessor struct {
	ctx *domContext
	id  html.NodeID
}

func (s *styleAccessor) Get(key string) goja.Value {
	decls := parseInlineStyle(s.attr())
	for _, d := range decls {
		if d[0] == camelToKebab(key) {
			return s.ctx.vm.ToValue(d[1])
		}
	}
	return s.ctx.vm.ToValue("")
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	s.put(camelToKebab(key), val.String())
	return true
}

func (s *styleAccessor) Has(key string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	s.put(camelToKebab(key), "")
	return true
}

func (s *styleAccessor) Keys() []string {
	decls := parseInlineStyle(s.attr())
	keys := make([]string, len(decls))
	for i, d := range decls {
		keys[i] = d[0]
	}
	return keys
}

func (s *styleAccessor) attr() string {
	v, _ := s.ctx.doc.GetAttribute(s.id, "style")
	return v
}

// put sets or, with an empty value, removes prop while keeping the order
// of the other declarations.
func (s *styleAccessor) put(prop, value string) {
	decls := parseInlineStyle(s.attr())
	found := false
	out := decls[:0]
	for _, d := range decls {
		if d[0] == prop {
			found = true
			if value == "" {
				continue
			}
			d[1] = value
		}
		out = append(out, d)
	}
	if !found && value != "" {
		out = append(out, [2]string{prop, value})
	}
	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = d[0] + ": " + d[1]
	}
	s.ctx.doc.SetAttribute(s.id, "style", strings.Join(parts, "; "))
}

// parseInlineStyle splits a style attribute into ordered property/value
// pairs.
func parseInlineStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, [2]string{prop, strings.TrimSpace(val)})
	}
	return out
}

// camelToKebab converts backgroundColor to background-color.
func camelToKebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
