package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New builds the process logger. Production output is JSON so log shippers can parse it.
func New(level string, production bool) *log.Logger {
	return NewWithWriter(os.Stderr, level, production)
}

func NewWithWriter(w io.Writer, level string, production bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "ux-auditor",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if production {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// Discard is used by tests and optional components that were not given a logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
