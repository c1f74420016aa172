// Package logx is the leveled status logger used by cmd/goldrush and
// internal/lobby for connection, disconnect, and desync lines: a
// generalization of the teacher's TUI color styling (pkg/game/renderer/tui)
// from "render styling" to "operational status styling," since this
// repository has no renderer of its own (§1 out of scope) but still needs
// to report transport and coordinator status somewhere.
package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
)

var (
	styleInfo   = color.Style{color.FgCyan}
	styleWarn   = color.Style{color.FgYellow, color.OpBold}
	styleError  = color.Style{color.FgRed, color.OpBold}
	styleDesync = color.Style{color.FgMagenta, color.OpBold, color.OpReverse}
)

// Logger writes leveled, colored status lines to an output stream, one per
// call, each timestamped.
type Logger struct {
	out io.Writer
}

// Default writes to os.Stderr, the destination a CLI's status lines
// belong on so stdout stays free for any shell output out of scope here.
var Default = New(os.Stderr)

// New builds a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{out: w}
}

func (l *Logger) line(style color.Style, tag, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s %s\n", time.Now().Format("15:04:05"), style.Sprint(tag), msg)
}

// Info logs routine status: peer connected, lobby opened, turn advanced.
func (l *Logger) Info(format string, args ...any) { l.line(styleInfo, "INFO", format, args...) }

// Warn logs a recoverable anomaly: a stalled turn barrier, a dropped frame.
func (l *Logger) Warn(format string, args ...any) { l.line(styleWarn, "WARN", format, args...) }

// Error logs a protocol violation or connection failure.
func (l *Logger) Error(format string, args ...any) { l.line(styleError, "ERROR", format, args...) }

// Desync logs a checksum mismatch: fatal for the match per §7.
func (l *Logger) Desync(format string, args ...any) { l.line(styleDesync, "DESYNC", format, args...) }

// Info/Warn/Error/Desync on the package-level Default logger, for call
// sites that don't carry their own Logger reference.
func Info(format string, args ...any)   { Default.Info(format, args...) }
func Warn(format string, args ...any)   { Default.Warn(format, args...) }
func Error(format string, args ...any)  { Default.Error(format, args...) }
func Desync(format string, args ...any) { Default.Desync(format, args...) }

// Duration formats d the way a disconnect-timer or lobby-uptime status
// line should read to an operator, e.g. "3 seconds".
func Duration(d time.Duration) string {
	return humanize.RelTime(time.Now(), time.Now().Add(d), "", "")
}

// Count formats n with thousands separators, for gold/tick counters in
// log lines.
func Count(n int64) string {
	return humanize.Comma(n)
}
