package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLogger builds InfoLogger (stdout) and ErrorLogger (stderr). An unknown
// level falls back to info.
func InitLogger(level string, pretty bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	InfoLogger = newLogger(os.Stdout, lvl, pretty)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel, pretty)
}

// InitTestLogger discards all output.
func InitTestLogger() {
	InfoLogger = newLogger(io.Discard, logrus.DebugLevel, false)
	ErrorLogger = newLogger(io.Discard, logrus.ErrorLevel, false)
}

func newLogger(out io.Writer, lvl logrus.Level, pretty bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	if pretty {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}
