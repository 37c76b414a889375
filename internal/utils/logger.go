package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the application logger. Unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(out io.Writer, level string) *logrus.Logger {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	return &logrus.Logger{
		Formatter: &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "loglevel",
			},
		},
		Out:      out,
		Hooks:    make(logrus.LevelHooks),
		Level:    parsed,
		ExitFunc: os.Exit,
	}
}

// NewDiscardLogger returns a logger that drops everything, for tests
func NewDiscardLogger() *logrus.Logger {
	return newLogger(io.Discard, "panic")
}
