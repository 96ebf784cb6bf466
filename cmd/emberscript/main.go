// Command emberscript is an interactive prompt for running script against
// a loaded page.
//
//	emberscript [flags] [url-or-file]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"ember/pkg/config"
	"ember/pkg/logging"
	"ember/pkg/page"
	"ember/pkg/resource"
)

const (
	historyFile = ".ember_history"
	promptMain  = "ember> "
	promptCont  = "  ...> "
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML configuration file")
	engine := flag.String("engine", "", "script engine: builtin or goja (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	if *engine != "" {
		cfg.Script.Engine = *engine
	}
	cfg.Script.Enabled = true
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	// Keep the prompt readable: only warnings and above.
	if cfg.Log.Level == "info" || cfg.Log.Level == "debug" {
		cfg.Log.Level = "warn"
	}
	logger := logging.Must(cfg.Log)
	defer logger.Sync()

	fetcher := resource.NewFetcher("", resource.Options{
		Timeout:   cfg.Network.Timeout(),
		UserAgent: cfg.Network.UserAgent,
	})
	fetcher.SetLogger(logger)
	s := newSession(page.OptionsFromConfig(cfg, logger), fetcher, os.Stdout)

	ctx := context.Background()
	if flag.NArg() > 0 {
		s.handle(ctx, ":load "+flag.Arg(0))
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("ember %s engine. Type :help for commands, Ctrl+D to exit.\n", cfg.Script.Engine)
	for {
		src, ok := readInput(ln)
		if !ok {
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(src)
		if !s.handle(ctx, src) {
			return 0
		}
	}
}

// readInput reads lines until they form a complete input. It returns false
// at end of input.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if complete(b.String()) {
			return b.String(), true
		}
	}
}
