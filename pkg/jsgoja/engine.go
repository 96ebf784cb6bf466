// Package jsgoja runs document scripts on the goja ECMAScript engine. It
// exposes the same document API as the built-in interpreter in package js
// and can replace it wherever an html.ScriptHost is expected.
package jsgoja

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"ember/pkg/html"
	"ember/pkg/js"
)

// Engine executes JavaScript against an HTML document's DOM. Globals
// persist across the scripts run by one engine.
type Engine struct {
	vm      *goja.Runtime
	dom     *domContext
	console *consoleAPI
	logger  *zap.Logger
	url     *url.URL
}

// New creates a new JS engine with a fresh goja runtime.
func New() *Engine {
	vm := goja.New()
	vm.SetMaxCallStackSize(js.MaxCallDepth)
	e := &Engine{
		vm:      vm,
		dom:     newDOMContext(vm),
		console: &consoleAPI{logger: zap.NewNop()},
		logger:  zap.NewNop(),
		url:     &url.URL{},
	}
	e.console.register(vm)
	vm.Set("document", e.dom.documentObject())
	vm.Set("location", e.locationObject())
	return e
}

// SetLogger sets the logger for script faults; console output goes to a
// child logger named "console".
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger.Named("jsgoja")
	e.console.logger = e.logger.Named("console")
}

// SetURL sets the address reported by the location object.
func (e *Engine) SetURL(raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		e.logger.Warn("invalid document url", zap.String("url", raw), zap.Error(err))
		u = &url.URL{}
	}
	e.url = u
}

func (e *Engine) locationObject() *goja.Object {
	loc := e.vm.NewObject()
	prop := func(name string, fn func() string) {
		getter := e.vm.ToValue(func(goja.FunctionCall) goja.Value { return e.vm.ToValue(fn()) })
		loc.DefineAccessorProperty(name, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	prop("href", func() string { return e.url.String() })
	prop("protocol", func() string {
		if e.url.Scheme == "" {
			return ""
		}
		return e.url.Scheme + ":"
	})
	prop("host", func() string { return e.url.Host })
	prop("pathname", func() string { return e.url.Path })
	prop("hash", func() string {
		if e.url.Fragment == "" {
			return ""
		}
		return "#" + e.url.Fragment
	})
	return loc
}

// Execute runs one script against doc. It implements html.ScriptHost.
func (e *Engine) Execute(doc *html.Document, source string) error {
	_, err := e.run(doc, source)
	return err
}

// Evaluate runs source and renders its completion value the way the
// built-in engine does: strings are quoted.
func (e *Engine) Evaluate(doc *html.Document, source string) (string, error) {
	v, err := e.run(doc, source)
	if err != nil {
		return "", err
	}
	if s, ok := v.Export().(string); ok {
		return strconv.Quote(s), nil
	}
	return v.String(), nil
}

func (e *Engine) run(doc *html.Document, source string) (goja.Value, error) {
	e.dom.bind(doc)
	v, err := e.vm.RunString(source)
	if err != nil {
		e.logger.Warn("script aborted", zap.Error(err))
		return nil, fmt.Errorf("script: %w", err)
	}
	if v == nil {
		v = goja.Undefined()
	}
	return v, nil
}

// Console returns everything written through the console object.
func (e *Engine) Console() []js.ConsoleMessage {
	return e.console.messages
}
