package js

import (
	"strings"

	"ember/pkg/html"
)

// domHost exposes document nodes to script. doc is the document of the
// script currently running; the engine sets it before every run.
type domHost struct {
	doc *html.Document
}

func (h *domHost) node(v Value) (html.NodeID, error) {
	id := v.Node()
	if h.doc == nil || h.doc.Node(id) == nil {
		return html.InvalidNode, throw(TypeError, "node does not belong to this document")
	}
	return id, nil
}

func (h *domHost) ref(id html.NodeID) Value {
	if id == html.InvalidNode || h.doc.Node(id) == nil {
		return Null
	}
	return NodeRef(id)
}

func (h *domHost) GetProperty(v Value, name string) (Value, error) {
	id, err := h.node(v)
	if err != nil {
		return Undefined, err
	}
	doc := h.doc
	isElement := doc.IsElement(id)

	switch name {
	case "textContent":
		return Str(doc.TextContent(id)), nil
	case "innerHTML":
		return Str(doc.Serialize(id)), nil
	case "outerHTML":
		return Str(doc.SerializeOuter(id)), nil
	case "id":
		val, _ := doc.GetAttribute(id, "id")
		return Str(val), nil
	case "className":
		val, _ := doc.GetAttribute(id, "class")
		return Str(val), nil
	case "tagName":
		if !isElement {
			return Undefined, nil
		}
		return Str(strings.ToUpper(doc.TagName(id))), nil
	case "nodeName":
		switch doc.Type(id) {
		case html.TextNode:
			return Str("#text"), nil
		case html.DocumentNode:
			return Str("#document"), nil
		}
		return Str(strings.ToUpper(doc.TagName(id))), nil
	case "nodeType":
		switch doc.Type(id) {
		case html.TextNode:
			return Num(3), nil
		case html.DocumentNode:
			return Num(9), nil
		}
		return Num(1), nil
	case "parentNode":
		return h.ref(doc.Parent(id)), nil
	case "firstChild":
		if kids := doc.Children(id); len(kids) > 0 {
			return NodeRef(kids[0]), nil
		}
		return Null, nil
	case "childCount":
		return Num(float64(len(doc.Children(id)))), nil
	case "appendChild":
		return h.method(name, func(args []Value) (Value, error) {
			child, err := h.nodeArg(name, args)
			if err != nil {
				return Undefined, err
			}
			if err := h.doc.AppendChild(id, child); err != nil {
				return Undefined, throw(TypeError, "appendChild: %v", err)
			}
			return NodeRef(child), nil
		}), nil
	case "removeChild":
		return h.method(name, func(args []Value) (Value, error) {
			child, err := h.nodeArg(name, args)
			if err != nil {
				return Undefined, err
			}
			if err := h.doc.RemoveChild(id, child); err != nil {
				return Undefined, throw(TypeError, "removeChild: %v", err)
			}
			return NodeRef(child), nil
		}), nil
	case "setAttribute":
		return h.method(name, func(args []Value) (Value, error) {
			if len(args) < 2 {
				return Undefined, throw(TypeError, "setAttribute requires 2 arguments")
			}
			if !h.doc.IsElement(id) {
				return Undefined, throw(TypeError, "setAttribute called on a non-element")
			}
			h.doc.SetAttribute(id, args[0].ToString(), args[1].ToString())
			return Undefined, nil
		}), nil
	case "getAttribute":
		return h.method(name, func(args []Value) (Value, error) {
			if len(args) < 1 {
				return Undefined, throw(TypeError, "getAttribute requires 1 argument")
			}
			if val, ok := h.doc.GetAttribute(id, strings.ToLower(args[0].ToString())); ok {
				return Str(val), nil
			}
			return Null, nil
		}), nil
	}
	return Undefined, nil
}

func (h *domHost) SetProperty(v Value, name string, val Value) error {
	id, err := h.node(v)
	if err != nil {
		return err
	}
	switch name {
	case "textContent":
		h.doc.SetTextContent(id, val.ToString())
		return nil
	case "innerHTML":
		h.doc.SetInnerHTML(id, val.ToString())
		return nil
	case "id":
		h.doc.SetAttribute(id, "id", val.ToString())
		return nil
	case "className":
		h.doc.SetAttribute(id, "class", val.ToString())
		return nil
	}
	return throw(TypeError, "cannot set property %q of a node", name)
}

func (h *domHost) method(name string, fn func([]Value) (Value, error)) Value {
	return NativeValue(&Native{Name: name, Fn: fn})
}

func (h *domHost) nodeArg(method string, args []Value) (html.NodeID, error) {
	if len(args) == 0 || args[0].Tag != VTNode {
		return html.InvalidNode, throw(TypeError, "%s: argument is not a node", method)
	}
	return h.node(args[0])
}

// documentObject builds the global document object.
func (h *domHost) documentObject() *Object {
	doc := NewObject("HTMLDocument")
	doc.SetNative("getElementById", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Null, nil
		}
		if id, ok := h.doc.GetElementByID(args[0].ToString()); ok {
			return NodeRef(id), nil
		}
		return Null, nil
	})
	doc.SetNative("createElement", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Undefined, throw(TypeError, "createElement requires 1 argument")
		}
		return NodeRef(h.doc.CreateElement(strings.ToLower(args[0].ToString()))), nil
	})
	doc.SetNative("createTextNode", func(args []Value) (Value, error) {
		text := ""
		if len(args) > 0 {
			text = args[0].ToString()
		}
		return NodeRef(h.doc.CreateTextNode(text)), nil
	})
	doc.Define("body", func() Value { return h.ref(h.doc.Body()) })
	doc.Define("head", func() Value { return h.ref(h.doc.Head()) })
	doc.Define("documentElement", func() Value { return h.ref(h.doc.DocumentElement()) })
	return doc
}
