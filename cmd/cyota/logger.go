package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-cyacd-ota/bootloader"
)

// logrusLogger adapts a logrus logger to bootloader.Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

var _ bootloader.Logger = logrusLogger{}

func newLogger(l *logrus.Logger, component string) logrusLogger {
	return logrusLogger{entry: l.WithField("component", component)}
}

func (l logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l logrusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Info(msg)
}

func (l logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

// with turns alternating keys and values into logrus fields.
// A trailing key without a value is kept under "extra".
func (l logrusLogger) with(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		fields["extra"] = kv[len(kv)-1]
	}
	return l.entry.WithFields(fields)
}
