package js

import (
	"net/url"

	"go.uber.org/zap"

	"ember/pkg/html"
)

// Engine runs scripts against a document with the built-in interpreter.
// The global scope persists across the scripts of one engine, so later
// scripts see the declarations of earlier ones.
type Engine struct {
	interp  *Interpreter
	host    *domHost
	console *consoleAPI
	logger  *zap.Logger
	url     *url.URL
}

// New creates an engine with document, console and location installed.
func New() *Engine {
	host := &domHost{}
	e := &Engine{
		interp:  NewInterpreter(host),
		host:    host,
		console: &consoleAPI{logger: zap.NewNop()},
		logger:  zap.NewNop(),
		url:     &url.URL{},
	}
	e.interp.Define("document", ObjectValue(host.documentObject()))
	e.interp.Define("console", ObjectValue(e.console.object()))
	e.interp.Define("location", ObjectValue(e.locationObject()))
	return e
}

// SetLogger sets the logger for script faults; console output goes to a
// child logger named "console".
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger.Named("js")
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

func (e *Engine) locationObject() *Object {
	loc := NewObject("Location")
	loc.Define("href", func() Value { return Str(e.url.String()) })
	loc.Define("protocol", func() Value {
		if e.url.Scheme == "" {
			return Str("")
		}
		return Str(e.url.Scheme + ":")
	})
	loc.Define("host", func() Value { return Str(e.url.Host) })
	loc.Define("pathname", func() Value { return Str(e.url.Path) })
	loc.Define("hash", func() Value {
		if e.url.Fragment == "" {
			return Str("")
		}
		return Str("#" + e.url.Fragment)
	})
	return loc
}

// Execute runs one script against doc. It implements html.ScriptHost. A
// syntax error or runtime fault aborts this script only; mutations made
// before a fault stay in place.
func (e *Engine) Execute(doc *html.Document, source string) error {
	_, err := e.Eval(doc, source)
	return err
}

// Eval runs source against doc and returns the value of its last
// expression statement.
func (e *Engine) Eval(doc *html.Document, source string) (Value, error) {
	e.host.doc = doc
	prog, err := Parse(source)
	if err != nil {
		e.logger.Warn("script syntax error", zap.Error(err))
		return Undefined, err
	}
	v, err := e.interp.Run(prog)
	if err != nil {
		e.logger.Warn("script aborted", zap.Error(err))
		return Undefined, err
	}
	return v, nil
}

// Evaluate is Eval with the result rendered for display.
func (e *Engine) Evaluate(doc *html.Document, source string) (string, error) {
	v, err := e.Eval(doc, source)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Console returns everything written through the console object.
func (e *Engine) Console() []ConsoleMessage {
	return e.console.messages
}

// Interpreter exposes the underlying interpreter, mainly for tests and
// host extensions.
func (e *Engine) Interpreter() *Interpreter { return e.interp }
