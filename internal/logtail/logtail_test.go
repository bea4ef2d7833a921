package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "datamate.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read partial (3)", 3, expectedAll[7:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParseAndFormat(t *testing.T) {
	line := `{"level":"error","ts":"2025-03-01T09:30:00.123Z","logger":"board","caller":"poll/poll.go:310","msg":"poll fetch failed","resource":"cleansing","attempt":3,"error":"dial tcp: connection refused"}`

	entry, ok := Parse(line)
	if !ok {
		t.Fatalf("Parse() ok = false")
	}
	if entry.Level != zapcore.ErrorLevel {
		t.Errorf("Level = %v, want error", entry.Level)
	}
	want := time.Date(2025, 3, 1, 9, 30, 0, 123e6, time.UTC)
	if !entry.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", entry.Time, want)
	}
	if entry.Caller != "poll/poll.go:310" {
		t.Errorf("Caller = %q", entry.Caller)
	}

	got := entry.Format()
	wantSuffix := `ERROR [board] poll fetch failed attempt=3 resource=cleansing error="dial tcp: connection refused"`
	if !strings.HasSuffix(got, wantSuffix) {
		t.Errorf("Format() = %q, want suffix %q", got, wantSuffix)
	}
	if !strings.HasPrefix(got, want.Local().Format("15:04:05.000")) {
		t.Errorf("Format() = %q, want local time prefix", got)
	}
}

func TestParse_Levels(t *testing.T) {
	tests := []struct {
		raw  string
		want zapcore.Level
	}{
		{`{"level":"debug","msg":"x"}`, zapcore.DebugLevel},
		{`{"level":"Level(-2)","msg":"x"}`, zapcore.Level(-2)},
		{`{"level":"warn","msg":"x"}`, zapcore.WarnLevel},
		{`{"msg":"x"}`, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		entry, ok := Parse(tt.raw)
		if !ok || entry.Level != tt.want {
			t.Errorf("Parse(%s) level = %v ok = %v, want %v", tt.raw, entry.Level, ok, tt.want)
		}
	}
}

func TestParse_PlainLine(t *testing.T) {
	entry, ok := Parse("panic: runtime error")
	if ok {
		t.Fatalf("Parse() ok = true for plain text")
	}
	if got := entry.Format(); got != "panic: runtime error" {
		t.Errorf("Format() = %q", got)
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`{"level":"debug","msg":"query fetch"}`,
		`{"level":"info","msg":"console starting"}`,
		"",
		"not json",
		`{"level":"error","msg":"poll fetch failed"}`,
	}

	got := Filter(lines, zapcore.InfoLevel)
	var msgs []string
	for _, e := range got {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		} else {
			msgs = append(msgs, e.Raw)
		}
	}
	want := []string{"console starting", "not json", "poll fetch failed"}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("Filter() = %v, want %v", msgs, want)
	}

	if n := len(Filter(lines, zapcore.Level(-2))); n != 4 {
		t.Errorf("Filter(trace) kept %d entries, want 4", n)
	}
}
