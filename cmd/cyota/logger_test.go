package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := newLogger(base, "updater")

	l.Info("file verified", "file", 1, "rows", 32)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no entry logged")
	}
	if entry.Message != "file verified" || entry.Level != logrus.InfoLevel {
		t.Errorf("entry = %q at %v", entry.Message, entry.Level)
	}
	if entry.Data["component"] != "updater" || entry.Data["file"] != 1 || entry.Data["rows"] != 32 {
		t.Errorf("fields = %v", entry.Data)
	}

	l.Error("odd", "key", "value", "dangling")
	if got := hook.LastEntry().Data["extra"]; got != "dangling" {
		t.Errorf("extra = %v, want dangling", got)
	}

	l.Debug("plain")
	if hook.LastEntry().Level != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", hook.LastEntry().Level)
	}
	if len(hook.Entries) != 3 {
		t.Errorf("entries = %d, want 3", len(hook.Entries))
	}
}
