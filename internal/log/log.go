// Package log is the process-wide structured logger.
//
// Output goes to stderr so plan and template documents written to stdout
// stay clean.
package log

import (
	"io"
	"os"

	"github.com/paularlott/logger"
	logslog "github.com/paularlott/logger/slog"
)

var (
	defaultLogger logger.Logger
	level                   = "info"
	format                  = "console"
	writer        io.Writer = os.Stderr
)

func init() {
	rebuild()
}

func rebuild() {
	defaultLogger = logslog.New(logslog.Config{
		Level:  level,
		Format: format,
		Writer: writer,
	})
}

// Configure sets the minimum level (debug, info, warn, error) and the
// format (console, json).
func Configure(lvl, fmtName string) {
	level, format = lvl, fmtName
	rebuild()
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	writer = w
	rebuild()
}

func Info(msg string, keysAndValues ...any) {
	defaultLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defaultLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defaultLogger.Error(msg, keysAndValues...)
}

func Debug(msg string, keysAndValues ...any) {
	defaultLogger.Debug(msg, keysAndValues...)
}
