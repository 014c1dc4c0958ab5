// Package log wraps logrus behind the small surface the rest of the
// application uses: package-level leveled printf helpers plus structured
// fields via F and With.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Field is one structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field for use with With.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// With returns an entry carrying the given fields.
func With(fields ...Field) *logrus.Entry {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return logger.WithFields(lf)
}

// SetDebug toggles debug-level output.
func SetDebug(debug bool) {
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output, mainly for tests and for keeping the TUI
// screen clean while browsing.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
