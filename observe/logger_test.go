package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line as JSON: %v\nLine: %s", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

// TestLogger_IncludesCacheFields verifies cache fields are present in log output.
func TestLogger_IncludesCacheFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithCache(CacheMeta{Name: "users", Operation: "load", Key: "users:0a1b"})

	logger.Info(context.Background(), "test message")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]

	if v, ok := entry["cache.name"].(string); !ok || v != "users" {
		t.Errorf("expected cache.name='users', got %v", entry["cache.name"])
	}
	if v, ok := entry["cache.operation"].(string); !ok || v != "load" {
		t.Errorf("expected cache.operation='load', got %v", entry["cache.operation"])
	}
	if v, ok := entry["cache.key"].(string); !ok || v != "users:0a1b" {
		t.Errorf("expected cache.key='users:0a1b', got %v", entry["cache.key"])
	}
	if v, ok := entry["msg"].(string); !ok || v != "test message" {
		t.Errorf("expected msg='test message', got %v", entry["msg"])
	}
	if _, ok := entry["timestamp"].(string); !ok {
		t.Errorf("expected timestamp, got %v", entry["timestamp"])
	}
}

// TestLogger_OptionalFieldsOmittedWhenEmpty verifies cache.operation and cache.key are optional.
func TestLogger_OptionalFieldsOmittedWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithCache(CacheMeta{Name: "users"})

	logger.Info(context.Background(), "test message")

	entry := decodeLines(t, &buf)[0]
	for _, k := range []string{"cache.operation", "cache.key"} {
		if _, ok := entry[k]; ok {
			t.Errorf("%s should be absent, got %v", k, entry[k])
		}
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"bogus", []string{"info", "warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tt.level, &buf)
			ctx := context.Background()

			logger.Debug(ctx, "d")
			logger.Info(ctx, "i")
			logger.Warn(ctx, "w")
			logger.Error(ctx, "e")

			entries := decodeLines(t, &buf)
			if len(entries) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(entries))
			}
			for i, entry := range entries {
				if entry["level"] != tt.want[i] {
					t.Errorf("entry %d level = %v, want %s", i, entry["level"], tt.want[i])
				}
			}
		})
	}
}

// TestLogger_SensitiveFieldsRedacted verifies credentials never reach the output.
func TestLogger_SensitiveFieldsRedacted(t *testing.T) {
	for _, key := range RedactedFields {
		t.Run(key, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter("info", &buf)

			logger.Info(context.Background(), "verified", Field{Key: key, Value: "hunter2"})

			if strings.Contains(buf.String(), "hunter2") {
				t.Errorf("%s should be redacted, output: %s", key, buf.String())
			}
			entry := decodeLines(t, &buf)[0]
			if entry[key] != "[REDACTED]" {
				t.Errorf("expected %s='[REDACTED]', got %v", key, entry[key])
			}
		})
	}
}

// TestLogger_WithCacheDoesNotMutateParent verifies child loggers are independent.
func TestLogger_WithCacheDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter("info", &buf)
	_ = parent.WithCache(CacheMeta{Name: "child"})

	parent.Info(context.Background(), "from parent")

	entry := decodeLines(t, &buf)[0]
	if _, ok := entry["cache.name"]; ok {
		t.Errorf("parent logger should not carry cache.name, got %v", entry["cache.name"])
	}
}

// TestLogger_ConcurrentWrites verifies lines are never interleaved.
func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	root := NewLoggerWithWriter("info", &buf)

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger := root.WithCache(CacheMeta{Name: "c"})
			for j := range perGoroutine {
				logger.Info(context.Background(), "line", Field{Key: "i", Value: i}, Field{Key: "j", Value: j})
			}
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != goroutines*perGoroutine {
		t.Errorf("expected %d lines, got %d", goroutines*perGoroutine, got)
	}
}

// TestLogger_UnencodableFieldDropped verifies a bad entry is skipped silently.
func TestLogger_UnencodableFieldDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "bad", Field{Key: "ch", Value: make(chan int)})

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestParseLogLevel_RoundTrip(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	ctx := context.Background()
	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e")
	if logger.WithCache(CacheMeta{Name: "x"}) == nil {
		t.Fatal("WithCache should return non-nil logger")
	}
}
