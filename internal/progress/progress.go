// Package progress renders a single-line download progress bar on stderr
// when the process is attached to a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Overridable for testing.
var IsTerminalFunc = term.IsTerminal

const (
	barWidth      = 30
	lineWidth     = 80
	printInterval = 100 * time.Millisecond
)

// Writer counts bytes flowing to an underlying writer and repaints a
// progress line on each update, rate-limited to avoid flicker.
type Writer struct {
	dest    io.Writer
	display io.Writer
	total   int64
	written int64
	started time.Time
	last    time.Time
	mu      sync.Mutex
}

// NewWriter wraps dest with progress display on display. total is the
// expected byte count; pass <= 0 when unknown to get a plain counter.
func NewWriter(dest io.Writer, total int64, display io.Writer) *Writer {
	return &Writer{
		dest:    dest,
		display: display,
		total:   total,
		started: time.Now(),
	}
}

func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.dest.Write(p)
	if n > 0 {
		pw.mu.Lock()
		pw.written += int64(n)
		pw.maybePrint()
		pw.mu.Unlock()
	}
	return n, err
}

// Finish clears the progress line.
func (pw *Writer) Finish() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	fmt.Fprintf(pw.display, "\r%s\r", strings.Repeat(" ", lineWidth))
}

func (pw *Writer) maybePrint() {
	now := time.Now()
	if now.Sub(pw.last) < printInterval {
		return
	}
	pw.last = now

	elapsed := now.Sub(pw.started).Seconds()
	if elapsed < 0.1 {
		return
	}

	line := render(pw.written, pw.total, elapsed)
	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	_, _ = fmt.Fprint(pw.display, "\r"+line)
}

// render builds the progress line for written of total bytes after
// elapsed seconds.
func render(written, total int64, elapsed float64) string {
	speed := float64(written) / elapsed

	if total <= 0 {
		return fmt.Sprintf("  downloaded %s (%s/s)", FormatBytes(written), FormatBytes(int64(speed)))
	}

	percent := float64(written) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	return fmt.Sprintf("  [%s] %3.0f%% (%s/%s) %s/s",
		bar, percent, FormatBytes(written), FormatBytes(total), FormatBytes(int64(speed)))
}

// FormatBytes renders a byte count with a binary-unit suffix.
func FormatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/gb)
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/mb)
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/kb)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// Enabled reports whether progress should be displayed: stderr must be a
// terminal.
func Enabled() bool {
	return IsTerminalFunc(int(os.Stderr.Fd()))
}
