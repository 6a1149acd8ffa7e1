package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAuditWriterRotatesIntoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "sessions.log")
	writer, err := newAuditWriter(AuditConfig{Path: path})
	if err != nil {
		t.Fatalf("newAuditWriter: %v", err)
	}
	if writer.MaxSize != 100 || writer.MaxBackups != 7 || writer.MaxAge != 30 {
		t.Fatalf("unexpected defaults: %+v", writer)
	}

	audit := slog.New(slog.NewJSONHandler(writer, nil))
	audit.Info("session_event", slog.String("session_id", "s-1"))
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"s-1"`) {
		t.Fatalf("audit record missing: %s", data)
	}
}

func TestAuditWriterRequiresPath(t *testing.T) {
	if _, err := newAuditWriter(AuditConfig{Enabled: true}); err == nil {
		t.Fatalf("expected error for empty audit path")
	}
}

func TestBuildHandlerTextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	handler, err := buildHandler("text", []string{path}, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("buildHandler: %v", err)
	}
	slog.New(handler).Info("hello", slog.String("component", "session"))
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(data, []byte("component=session")) {
		t.Fatalf("expected text record, got %s", data)
	}
}
