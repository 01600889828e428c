package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("config loaded", "db", "/tmp/a.db", "api_token", "abc123")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["db"] != "/tmp/a.db" {
		t.Errorf("Expected db field to pass through, got %v", fields["db"])
	}
	if fields["api_token"] != "[REDACTED]" {
		t.Errorf("Expected token to be redacted, got %v", fields["api_token"])
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", mode, err)
		}
		l.With("component", "test").Debug("hello")
	}
}
