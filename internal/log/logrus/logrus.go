// Package logrus provides a logrus backed implementation of the log.Logger
// interface.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/adsysio/adsys/internal/log"
)

type logger struct {
	*logrus.Entry
}

// NewLogrus returns a new log.Logger based on a logrus entry.
func NewLogrus(entry *logrus.Entry) log.Logger {
	return logger{Entry: entry}
}

func (l logger) WithValues(kv log.Kv) log.Logger {
	newLogger := l.Entry.WithFields(logrus.Fields(kv))
	return logger{Entry: newLogger}
}

func (l logger) Warningf(format string, args ...any) { l.Entry.Warnf(format, args...) }
