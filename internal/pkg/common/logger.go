package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/do/v2"
)

var (
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

var logLevels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
}

var logFormats = map[string]pterm.LogFormatter{
	"text": pterm.LogFormatterColorful,
	"json": pterm.LogFormatterJSON,
}

func NewLogger(i do.Injector) (*slog.Logger, error) {
	level := do.MustInvokeNamed[string](i, "log-level")
	format := do.MustInvokeNamed[string](i, "log-format")

	return BuildLogger(level, format, nil)
}

// BuildLogger returns a slog logger backed by pterm. A nil writer keeps
// pterm's default output.
func BuildLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	logLevel, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogLevel, level)
	}

	formatter, ok := logFormats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogFormat, format)
	}

	logger := pterm.DefaultLogger.
		WithLevel(logLevel).
		WithFormatter(formatter)

	if w != nil {
		logger = logger.WithWriter(w)
	}

	return slog.New(pterm.NewSlogHandler(logger)), nil
}
