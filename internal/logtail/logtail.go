package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const maxLineSize = 1 << 20

// Read returns the last maxLines lines of the file at path, oldest first.
// A non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var (
		lines []string
		next  int
	)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if maxLines <= 0 || len(lines) < maxLines {
			lines = append(lines, scanner.Text())
			continue
		}
		// Full: overwrite the oldest line.
		lines[next] = scanner.Text()
		next = (next + 1) % maxLines
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if next > 0 {
		lines = append(lines[next:], lines[:next]...)
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Caller  string
	Error   string
	Fields  map[string]any
	Raw     string
}

// Parse decodes a line written by the console logger. Lines that are not
// JSON objects come back with only Raw set and ok false.
func Parse(line string) (Entry, bool) {
	entry := Entry{Raw: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry, false
	}

	take := func(key string) string {
		v, ok := fields[key]
		if !ok {
			return ""
		}
		delete(fields, key)
		s, _ := v.(string)
		return s
	}

	if ts := take("ts"); ts != "" {
		if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			entry.Time = t
		} else if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = t
		}
	}
	entry.Level = parseLevel(take("level"))
	entry.Logger = take("logger")
	entry.Message = take("msg")
	entry.Caller = take("caller")
	entry.Error = take("error")
	delete(fields, "stacktrace")
	// logr verbosity is noise once the line was written.
	delete(fields, "v")
	if len(fields) > 0 {
		entry.Fields = fields
	}
	return entry, true
}

// parseLevel also accepts "Level(-2)", which zap writes for logr
// verbosity beyond debug.
func parseLevel(text string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err == nil {
		return level
	}
	var n int8
	if _, err := fmt.Sscanf(text, "Level(%d)", &n); err == nil {
		return zapcore.Level(n)
	}
	return zapcore.InfoLevel
}

// Format renders an entry on one line: time, level, logger, message, then
// fields in key order and the error last.
func (e Entry) Format() string {
	if e.Message == "" && e.Fields == nil && e.Error == "" && e.Time.IsZero() {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level.CapitalString())
	if e.Logger != "" {
		b.WriteString(" [" + e.Logger + "]")
	}
	b.WriteString(" " + e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, formatValue(e.Fields[k]))
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	default:
		return fmt.Sprint(val)
	}
}

// Filter keeps the entries at or above threshold. Lines that did not parse are
// always kept.
func Filter(lines []string, threshold zapcore.Level) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := Parse(line)
		if ok && entry.Level < threshold {
			continue
		}
		out = append(out, entry)
	}
	return out
}
