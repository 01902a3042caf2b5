package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inkframe/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func() string, *logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "frame.log")
	opts := &logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return read, opts
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "slideshow").Info("frame displayed",
		logging.String(logging.FieldPath, "/photos/a b.jpg"),
		logging.Bool("rotated", true),
	)

	content := read()
	if !strings.Contains(content, "INFO slideshow: frame displayed") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, `path="/photos/a b.jpg"`) {
		t.Fatalf("expected quoted path, got %q", content)
	}
	if !strings.Contains(content, "rotated=true") {
		t.Fatalf("expected rotated field, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	read, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if content := read(); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("canvas").Info("composed", logging.Int("width", 800))
	if content := read(); !strings.Contains(content, "canvas.width=800") {
		t.Fatalf("expected grouped key, got %q", content)
	}
}

func TestJSONLoggerWritesStructuredRecords(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if record["k"] != "v" {
		t.Fatalf("expected k=v, got %v", record["k"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "decode failed", "frame_decode_failed")
	content := read()
	for _, want := range []string{"event_type=frame_decode_failed", "error_hint=", "impact="} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRequestID(context.Background(), "req-123")
	logging.WithContext(ctx, logger).Info("remote command")
	if content := read(); !strings.Contains(content, "correlation_id=req-123") {
		t.Fatalf("expected correlation id, got %q", content)
	}
	if _, ok := logging.RequestIDFromContext(context.Background()); ok {
		t.Fatal("expected no request id on empty context")
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "inkframe-old.log")
	current := filepath.Join(dir, "inkframe-current.log")
	keep := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, current, keep} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5,
		logging.RetentionTarget{Dir: dir, Pattern: "inkframe-*.log", Exclude: []string{current}})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, err=%v", err)
	}
	for _, path := range []string{current, keep} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}
