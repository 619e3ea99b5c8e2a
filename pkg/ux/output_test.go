// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer is a bytes.Buffer safe for a spinner goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDetectMode_NonFile(t *testing.T) {
	if got := DetectMode(&bytes.Buffer{}); got != ModePlain {
		t.Errorf("DetectMode(buffer) = %v, want ModePlain", got)
	}
}

func TestDetectMode_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if got := DetectMode(os.Stderr); got != ModePlain {
		t.Errorf("DetectMode with NO_COLOR = %v, want ModePlain", got)
	}
}

func TestDetectMode_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := DetectMode(f); got != ModePlain {
		t.Errorf("DetectMode(file) = %v, want ModePlain", got)
	}
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	if p.Mode() != ModePlain {
		t.Fatalf("expected plain mode for a buffer")
	}

	p.Title("Trying to break a XOR sum for a %d bit hash...", 256)
	p.Stat("Hashes needed", 12)
	p.Muted("seed %d", 7)
	p.Error(errors.New("boom"))

	want := "Trying to break a XOR sum for a 256 bit hash...\n" +
		"Hashes needed: 12\n" +
		"seed 7\n" +
		"Error: boom\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrinter_StyledKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterMode(&buf, ModeStyled)

	p.Stat("Hashes needed", 3)

	if !strings.Contains(buf.String(), "Hashes needed:") || !strings.Contains(buf.String(), " 3\n") {
		t.Errorf("styled output lost its text: %q", buf.String())
	}
	if p.Writer() != &buf {
		t.Error("Writer() should return the underlying writer")
	}
}

func TestSpinner_PlainIsNoop(t *testing.T) {
	var buf bytes.Buffer
	s := NewPrinterMode(&buf, ModePlain).NewSpinner("solving")

	s.Start()
	s.SetProgress("solving", 1, 8)
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("plain spinner wrote %q", buf.String())
	}
}

func TestSpinner_StyledAnimatesAndClears(t *testing.T) {
	var buf lockedBuffer
	s := NewPrinterMode(&buf, ModeStyled).NewSpinner("solving")

	s.Start()
	s.Start()
	s.SetProgress("solving", 3, 8)
	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "solving [3/8]") {
		t.Errorf("spinner output missing progress: %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("spinner did not clear its line: %q", out)
	}
}
