// Package cli общие помощники команд клиента: доступ к приложению и вывод
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"drawsync/internal/app/client"
)

type (
	appKey     struct{}
	printerKey struct{}
)

var errNoApp = errors.New("application is not initialized")

// WithApp кладет приложение в контекст команды
func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// App достает приложение из контекста команды
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(appKey{}).(*client.App)
	if !ok || app == nil {
		return nil, errNoApp
	}
	return app, nil
}

// Printer вывод команд: цветной текст в терминал или JSON
type Printer struct {
	out  io.Writer
	json bool

	ok   *color.Color
	warn *color.Color
	fail *color.Color
	bold *color.Color
}

// NewPrinter создает вывод; цвет отключается, если stdout не терминал
func NewPrinter(out io.Writer, jsonOutput bool) *Printer {
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		color.NoColor = true
	}

	return &Printer{
		out:  out,
		json: jsonOutput,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
		bold: color.New(color.Bold),
	}
}

func (p *Printer) JSON() bool {
	return p.json
}

// Encode печатает значение в JSON
func (p *Printer) Encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (p *Printer) Title(format string, a ...any) {
	p.bold.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Line(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Success(format string, a ...any) {
	p.ok.Fprintf(p.out, "✓ "+format+"\n", a...)
}

func (p *Printer) Warn(format string, a ...any) {
	p.warn.Fprintf(p.out, "! "+format+"\n", a...)
}

func (p *Printer) Fail(format string, a ...any) {
	p.fail.Fprintf(p.out, "✗ "+format+"\n", a...)
}

// WithPrinter кладет вывод в контекст команды
func WithPrinter(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, printerKey{}, p)
}

// Out достает вывод из контекста; по умолчанию текст в stdout
func Out(cmd *cobra.Command) *Printer {
	if p, ok := cmd.Context().Value(printerKey{}).(*Printer); ok {
		return p
	}
	return NewPrinter(cmd.OutOrStdout(), false)
}
