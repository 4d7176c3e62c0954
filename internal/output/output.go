// Package output renders command results for a terminal or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTerminal:
		return FormatTerminal, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected terminal or json)", s)
	}
}

// Colors for status indicators
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

func New(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

func (p *Printer) JSON() bool { return p.format == FormatJSON }

func (p *Printer) encode(v any) error {
	encoder := json.NewEncoder(p.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (p *Printer) table(headers ...any) table.Table {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	return table.New(headers...).WithWriter(p.w).WithHeaderFormatter(headerFmt)
}

func (p *Printer) heading(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, bold(title))
}

// Success prints a confirmation line, or {"message": ...} as JSON.
func (p *Printer) Success(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.JSON() {
		return p.encode(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintf(p.w, "%s %s\n", green("✓"), msg)
	return err
}

// Warn prints a warning line. Nothing is written in JSON mode.
func (p *Printer) Warn(format string, args ...any) {
	if p.JSON() {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

// Error formats err for the terminal.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", red("✗"), red(err.Error()))
}
