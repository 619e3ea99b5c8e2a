// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the xorbreak CLI.
//
// Output is styled only when it goes to a terminal. Redirected output, and
// any output while NO_COLOR is set, is plain text with identical wording so
// scripts can rely on it.
package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - titles
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text
	ColorError       = lipgloss.Color("#E74C3C") // Red for errors
)

// Mode selects between styled and plain output.
type Mode int

const (
	// ModePlain writes unstyled text and never animates.
	ModePlain Mode = iota

	// ModeStyled writes colored text and animates spinners.
	ModeStyled
)

// DetectMode returns ModeStyled when w is a terminal and NO_COLOR is unset.
func DetectMode(w io.Writer) Mode {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return ModePlain
	}
	f, ok := w.(*os.File)
	if !ok {
		return ModePlain
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return ModeStyled
	}
	return ModePlain
}

// styles are the lipgloss styles bound to one writer's renderer.
type styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Title:     r.NewStyle().Bold(true).Foreground(ColorTealPrimary),
		Label:     r.NewStyle().Foreground(ColorTealBright),
		Muted:     r.NewStyle().Foreground(ColorSlate),
		Error:     r.NewStyle().Bold(true).Foreground(ColorError),
		Highlight: r.NewStyle().Bold(true).Foreground(ColorTealBright),
	}
}

// Printer writes human-facing status lines.
type Printer struct {
	w      io.Writer
	mode   Mode
	styles styles
}

// NewPrinter creates a Printer for w, detecting the mode from w.
func NewPrinter(w io.Writer) *Printer {
	return NewPrinterMode(w, DetectMode(w))
}

// NewPrinterMode creates a Printer with an explicit mode.
func NewPrinterMode(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode, styles: newStyles(lipgloss.NewRenderer(w))}
}

// Mode reports the printer's mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Title prints a heading line.
func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(p.styles.Title, fmt.Sprintf(format, args...)))
}

// Stat prints "label: value".
func (p *Printer) Stat(label string, value any) {
	fmt.Fprintf(p.w, "%s %v\n", p.render(p.styles.Label, label+":"), value)
}

// Muted prints secondary text.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(p.styles.Muted, fmt.Sprintf(format, args...)))
}

// Error prints "Error: err".
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s %v\n", p.render(p.styles.Error, "Error:"), err)
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if p.mode == ModePlain {
		return text
	}
	return s.Render(text)
}
