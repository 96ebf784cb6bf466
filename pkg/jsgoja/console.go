package jsgoja

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"ember/pkg/js"
)

// consoleAPI implements console.log, console.warn, and console.error. It
// records messages in the same form as the built-in engine.
type consoleAPI struct {
	logger   *zap.Logger
	messages []js.ConsoleMessage
}

func (c *consoleAPI) register(vm *goja.Runtime) {
	console := vm.NewObject()
	console.Set("log", c.writer("log"))
	console.Set("warn", c.writer("warn"))
	console.Set("error", c.writer("error"))
	vm.Set("console", console)
}

func (c *consoleAPI) writer(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		text := formatArgs(call.Arguments)
		c.messages = append(c.messages, js.ConsoleMessage{Level: level, Text: text})
		switch level {
		case "warn":
			c.logger.Warn(text)
		case "error":
			c.logger.Error(text)
		default:
			c.logger.Info(text)
		}
		return goja.Undefined()
	}
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
