package page

import (
	"fmt"

	"go.uber.org/zap"

	"ember/pkg/config"
	"ember/pkg/html"
	"ember/pkg/js"
	"ember/pkg/jsgoja"
)

// ScriptEngine is a script host that also evaluates code after load.
// js.Engine and jsgoja.Engine both satisfy it.
type ScriptEngine interface {
	html.ScriptHost
	Evaluate(doc *html.Document, source string) (string, error)
	Console() []js.ConsoleMessage
	SetURL(raw string)
	SetLogger(logger *zap.Logger)
}

var (
	_ ScriptEngine = (*js.Engine)(nil)
	_ ScriptEngine = (*jsgoja.Engine)(nil)
)

func newEngine(name string) (ScriptEngine, error) {
	switch name {
	case config.EngineBuiltin, "":
		return js.New(), nil
	case config.EngineGoja:
		return jsgoja.New(), nil
	}
	return nil, fmt.Errorf("page: unknown script engine %q", name)
}
