package js

import (
	"strings"

	"go.uber.org/zap"
)

// ConsoleMessage is one line written through the console object.
type ConsoleMessage struct {
	Level string // "log", "warn" or "error"
	Text  string
}

func (m ConsoleMessage) String() string {
	if m.Level == "log" {
		return m.Text
	}
	return strings.ToUpper(m.Level) + ": " + m.Text
}

// consoleAPI implements console.log, console.warn, and console.error.
type consoleAPI struct {
	logger   *zap.Logger
	messages []ConsoleMessage
}

func (c *consoleAPI) object() *Object {
	console := NewObject("console")
	console.SetNative("log", c.writer("log"))
	console.SetNative("warn", c.writer("warn"))
	console.SetNative("error", c.writer("error"))
	return console
}

func (c *consoleAPI) writer(level string) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		text := formatArgs(args)
		c.messages = append(c.messages, ConsoleMessage{Level: level, Text: text})
		switch level {
		case "warn":
			c.logger.Warn(text)
		case "error":
			c.logger.Error(text)
		default:
			c.logger.Info(text)
		}
		return Undefined, nil
	}
}

func formatArgs(args []Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.ToString()
	}
	return strings.Join(parts, " ")
}
