package jsgoja

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"ember/pkg/html"
)

// classListAccessor implements element.classList over the class attribute.
type classListAccessor struct {
	ctx *domContext
	id  html.NodeID
}

var classListKeys = []string{"length", "value", "add", "remove", "toggle", "contains", "item", "toString"}

func (cl *classListAccessor) classes() []string {
	attr, _ := cl.ctx.doc.GetAttribute(cl.id, "class")
	return strings.Fields(attr)
}

func (cl *classListAccessor) setClasses(classes []string) {
	cl.ctx.doc.SetAttribute(cl.id, "class", strings.Join(classes, " "))
}

func (cl *classListAccessor) Get(key string) goja.Value {
	vm := cl.ctx.vm
	classes := cl.classes()

	switch key {
	case "length":
		return vm.ToValue(len(classes))
	case "value":
		return vm.ToValue(strings.Join(classes, " "))
	case "add":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cls := cl.classes()
			for _, arg := range call.Arguments {
				if token := arg.String(); !slices.Contains(cls, token) {
					cls = append(cls, token)
				}
			}
			cl.setClasses(cls)
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cls := cl.classes()
			for _, arg := range call.Arguments {
				token := arg.String()
				cls = slices.DeleteFunc(cls, func(c string) bool { return c == token })
			}
			cl.setClasses(cls)
			return goja.Undefined()
		})
	case "toggle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				cl.ctx.throw("Failed to execute 'toggle': 1 argument required")
			}
			token := call.Arguments[0].String()
			cls := cl.classes()
			want := !slices.Contains(cls, token)
			if len(call.Arguments) > 1 {
				want = call.Arguments[1].ToBoolean()
			}
			cls = slices.DeleteFunc(cls, func(c string) bool { return c == token })
			if want {
				cls = append(cls, token)
			}
			cl.setClasses(cls)
			return vm.ToValue(want)
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			return vm.ToValue(slices.Contains(classes, call.Arguments[0].String()))
		})
	case "item":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			idx := int(call.Arguments[0].ToInteger())
			if idx < 0 || idx >= len(classes) {
				return goja.Null()
			}
			return vm.ToValue(classes[idx])
		})
	case "toString":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(strings.Join(classes, " "))
		})
	}
	if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(classes) {
		return vm.ToValue(classes[idx])
	}
	return goja.Undefined()
}

func (cl *classListAccessor) Set(key string, val goja.Value) bool {
	if key == "value" {
		cl.ctx.doc.SetAttribute(cl.id, "class", val.String())
		return true
	}
	return false
}

func (cl *classListAccessor) Has(key string) bool {
	if slices.Contains(classListKeys, key) {
		return true
	}
	idx, err := strconv.Atoi(key)
	return err == nil && idx >= 0 && idx < len(cl.classes())
}

func (cl *classListAccessor) Delete(key string) bool { return false }

func (cl *classListAccessor) Keys() []string { return classListKeys }
