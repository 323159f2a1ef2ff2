package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ragsift/ragsift/internal/ui"
)

// followInterval is how often the follower polls for new log lines.
const followInterval = 100 * time.Millisecond

// Entry is one parsed line of the JSON log file.
type Entry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig configures filtering and rendering for the log viewer.
type ViewerConfig struct {
	// Level is the minimum level to show (debug, info, warn, error).
	// Empty shows everything.
	Level string
	// Pattern, when set, only shows lines matching the regexp.
	Pattern *regexp.Regexp
	// NoColor disables styled output.
	NoColor bool
}

// Viewer reads, filters, and renders entries from the pipeline log.
type Viewer struct {
	config ViewerConfig
	styles ui.Styles
	out    io.Writer
}

// NewViewer creates a log viewer writing rendered entries to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		styles: ui.GetStyles(cfg.NoColor),
		out:    out,
	}
}

// Tail reads the last n lines from the log file and returns the ones
// passing the configured filters.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	start := 0
	if len(lines) > n {
		start = len(lines) - n
	}
	lines = lines[start:]

	var entries []Entry
	for _, line := range lines {
		entry := v.parseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow watches the log file for new entries and sends matching ones
// to the channel. Blocks until the context is cancelled. When the
// rotating writer rolls the file, the follower reopens the fresh file
// at the same path.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- Entry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	// Writes land line-at-a-time, but a poll can still catch a line
	// mid-write. Partial reads accumulate here until the newline shows.
	var pending strings.Builder

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				chunk, err := reader.ReadString('\n')
				pending.WriteString(chunk)
				offset += int64(len(chunk))
				if err != nil {
					break
				}

				line := strings.TrimSuffix(pending.String(), "\n")
				pending.Reset()
				if line == "" {
					continue
				}

				entry := v.parseLine(line)
				if v.matchesFilter(entry) {
					select {
					case entries <- entry:
					case <-ctx.Done():
						return nil
					}
				}
			}

			// Rotation renames the file and starts a new one at the
			// same path. A size below our offset means reopen.
			info, err := os.Stat(path)
			if err != nil || info.Size() >= offset {
				continue
			}
			fresh, err := os.Open(path)
			if err != nil {
				continue
			}
			_ = file.Close()
			file = fresh
			reader = bufio.NewReader(file)
			offset = 0
			pending.Reset()
		}
	}
}

// FormatEntry formats a log entry for display. Unparseable lines pass
// through raw.
func (v *Viewer) FormatEntry(entry Entry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	timestamp := v.styles.Dim.Render(entry.Time.Format("15:04:05.000"))
	level := v.formatLevel(entry.Level)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]string, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, fmt.Sprintf("%s=%v", k, entry.Attrs[k]))
	}

	out := fmt.Sprintf("%s %s %s", timestamp, level, entry.Msg)
	if len(attrs) > 0 {
		out += " " + v.styles.Dim.Render(strings.Join(attrs, " "))
	}
	return out
}

// Print renders entries to the viewer's output.
func (v *Viewer) Print(entries []Entry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// parseLine parses a JSON log line into an Entry.
func (v *Viewer) parseLine(line string) Entry {
	entry := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	if l, ok := data["level"].(string); ok {
		entry.Level = l
	}
	if m, ok := data["msg"].(string); ok {
		entry.Msg = m
	}

	entry.Attrs = make(map[string]any)
	for k, val := range data {
		if k != "time" && k != "level" && k != "msg" {
			entry.Attrs[k] = val
		}
	}
	return entry
}

// matchesFilter checks an entry against the configured filters.
func (v *Viewer) matchesFilter(entry Entry) bool {
	if v.config.Level != "" {
		if parseLevel(entry.Level) < parseLevel(v.config.Level) {
			return false
		}
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// formatLevel renders the level as a fixed-width colored label.
func (v *Viewer) formatLevel(level string) string {
	label := strings.ToUpper(level)
	if len(label) > 5 {
		label = label[:5]
	}
	label = fmt.Sprintf("%-5s", label)

	switch strings.ToLower(level) {
	case "debug":
		return v.styles.Dim.Render(label)
	case "info":
		return v.styles.Success.Render(label)
	case "warn", "warning":
		return v.styles.Warning.Render(label)
	case "error":
		return v.styles.Error.Render(label)
	default:
		return label
	}
}
