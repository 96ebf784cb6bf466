package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ember/pkg/debugdump"
	"ember/pkg/js"
	"ember/pkg/page"
	"ember/pkg/resource"
)

const helpText = `Commands:
  :load <url>   load a page (scripts run)
  :html <text>  load markup typed inline
  :dom          print the document tree
  :boxes        print the box tree
  :display      print the display list
  :console      print console output
  :errors       print script errors from loading
  :quit         exit
Anything else is evaluated as script against the loaded page.`

// session is the state behind the prompt: one page plus the means to load
// another.
type session struct {
	opts    page.Options
	fetcher *resource.DefaultFetcher
	page    *page.Page
	out     io.Writer
	seen    int
}

func newSession(opts page.Options, fetcher *resource.DefaultFetcher, out io.Writer) *session {
	s := &session{opts: opts, fetcher: fetcher, out: out}
	s.page = page.New(opts)
	s.page.LoadHTML("")
	return s
}

// handle runs one complete input and reports whether the loop should go on.
func (s *session) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	if !strings.HasPrefix(input, ":") {
		s.eval(input)
		return true
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprintln(s.out, helpText)
	case ":load":
		if arg == "" {
			fmt.Fprintln(s.out, "usage: :load <url>")
			break
		}
		p := page.New(s.opts)
		if err := p.Navigate(ctx, s.fetcher, arg); err != nil {
			fmt.Fprintln(s.out, red(err.Error()))
			break
		}
		s.replace(p)
	case ":html":
		p := page.New(s.opts)
		if err := p.LoadHTML(arg); err != nil {
			fmt.Fprintln(s.out, red(err.Error()))
			break
		}
		s.replace(p)
	case ":dom":
		fmt.Fprint(s.out, debugdump.Document(s.page.Document()))
	case ":boxes":
		fmt.Fprint(s.out, debugdump.Boxes(s.page.Document(), s.page.Root()))
	case ":display":
		fmt.Fprint(s.out, s.page.DisplayList().String())
	case ":console":
		for _, m := range s.page.Console() {
			fmt.Fprintln(s.out, m)
		}
	case ":errors":
		for _, r := range s.page.ScriptReports() {
			fmt.Fprintln(s.out, red(r.Err.Error()))
		}
	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", cmd)
	}
	return true
}

func (s *session) replace(p *page.Page) {
	s.page = p
	s.seen = len(p.Console())
	fmt.Fprintf(s.out, "loaded %s", p.URL())
	if t := p.Title(); t != "" {
		fmt.Fprintf(s.out, " (%s)", t)
	}
	if n := len(p.ScriptReports()); n > 0 {
		fmt.Fprintf(s.out, ", %d script errors", n)
	}
	fmt.Fprintln(s.out)
}

func (s *session) eval(src string) {
	result, err := s.page.Evaluate(src)
	s.flushConsole()
	if err != nil {
		fmt.Fprintln(s.out, red(err.Error()))
		return
	}
	fmt.Fprintln(s.out, green(result))
}

// flushConsole prints console lines written since the last call.
func (s *session) flushConsole() {
	msgs := s.page.Console()
	for _, m := range msgs[min(s.seen, len(msgs)):] {
		fmt.Fprintln(s.out, blue(m.String()))
	}
	s.seen = len(msgs)
}

// complete reports whether src can be evaluated as is. Commands are always
// complete; script is complete unless the parser ran out of input.
func complete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return true
	}
	_, err := js.Parse(src)
	return !js.IsIncomplete(err)
}

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }
