// Package logging builds the logrus logger shared by the CLI and the
// pipeline.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w at level ("debug", "info", ...). JSON
// selects the JSON formatter; otherwise text with full timestamps is used.
func New(w io.Writer, level string, json bool) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	lvl := logrus.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		var err error
		lvl, err = logrus.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
