package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester-sub000/builtins"
	"github.com/finitefield-org/browser-tester-sub000/page"
	"github.com/finitefield-org/browser-tester-sub000/parser"
)

const (
	promptMain  = "> "
	promptCont  = "... "
	historyFile = "jsgo/history"
)

// lineReader is the part of liner the REPL loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func newReplCmd(c *cli) *cobra.Command {
	var htmlPath string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markup := ""
			if htmlPath != "" {
				data, err := os.ReadFile(htmlPath)
				if err != nil {
					return errors.Wrap(err, "reading page")
				}
				markup = string(data)
			}
			p, err := page.New(c.ctx, page.Options{HTML: markup, Config: c.cfg, Console: c.stdout})
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Load(); err != nil {
				return err
			}

			if f, ok := c.stdout.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				fmt.Fprintf(c.stdout, "jsgo %s. Type .exit to quit.\n", version)
			}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)
			histPath, err := xdg.StateFile(historyFile)
			if err != nil {
				c.log.WithError(err).Debug("no history file")
				histPath = ""
			} else if f, err := os.Open(histPath); err == nil {
				ln.ReadHistory(f)
				f.Close()
			}
			defer func() {
				if histPath == "" {
					return
				}
				if f, err := os.Create(histPath); err == nil {
					ln.WriteHistory(f)
					f.Close()
				}
			}()
			return c.repl(ln, p)
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML page to load first")
	return cmd
}

// repl reads statements until EOF or .exit. Each input is evaluated, the
// completion value printed and the task queues flushed.
func (c *cli) repl(ln lineReader, p *page.Page) error {
	for {
		if c.ctx.Err() != nil {
			return nil
		}
		src, ok := readUntilComplete(ln, promptMain, promptCont)
		if !ok {
			return nil
		}
		trimmed := strings.TrimSpace(src)
		switch trimmed {
		case "":
			continue
		case ".exit":
			return nil
		case ".help":
			c.println(".exit  leave the session\n.html  print the document")
			continue
		case ".html":
			c.println(p.HTML())
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		v, err := p.Eval(src)
		if err == nil {
			c.println(builtins.Inspect(v))
			err = p.Flush()
		}
		if err != nil {
			fmt.Fprintln(c.stderr, err.Error())
		}
	}
}

// readUntilComplete keeps reading lines while the accumulated source is a
// prefix of a valid program.
func readUntilComplete(ln lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := parser.ParseScript(src)
		var pe *parser.ParseError
		if perr != nil && errors.As(perr, &pe) && pe.Incomplete {
			continue
		}
		return src, true
	}
}
