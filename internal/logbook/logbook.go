package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// FileName is the default name of the activity journal inside the logs dir.
const FileName = "journey.log"

// Entry is one journal line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// String renders the entry in its on-disk form.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), string(e.Level), e.Message)
}

// parseEntry reverses Entry.String. Lines that do not match keep their raw
// text as the message.
func parseEntry(line string) Entry {
	stamp, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{Message: line}
	}
	ts, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return Entry{Message: line}
	}
	level, msg, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	return Entry{Time: ts, Level: Level(level), Message: strings.TrimLeft(msg, " ")}
}

// Logbook mirrors the dashboard's activity log to a plain text file so the
// session history survives a "clear log" and a restart.
type Logbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, now: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record writes one entry. Write failures are dropped; the journal is a
// best-effort copy of the in-memory log.
func (l *Logbook) Record(level Level, message string) {
	if l == nil {
		return
	}
	entry := Entry{Time: l.now(), Level: level, Message: strings.TrimSpace(message)}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(entry.String() + "\n")
}

// Tail returns up to limit of the most recent entries, oldest first, and the
// number of entries in the journal.
func (l *Logbook) Tail(limit int) ([]Entry, int) {
	if l == nil || limit <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	// Ring of the last limit lines; start marks the oldest slot once full.
	ring := make([]string, 0, limit)
	start, total := 0, 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		total++
		if len(ring) < limit {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[start] = scanner.Text()
		start = (start + 1) % limit
	}
	if total == 0 {
		return nil, 0
	}
	entries := make([]Entry, 0, len(ring))
	for i := range ring {
		entries = append(entries, parseEntry(ring[(start+i)%len(ring)]))
	}
	return entries, total
}

// Info records an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Record(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn records a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Record(LevelWarn, fmt.Sprintf(format, args...))
}

// Error records an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Record(LevelError, fmt.Sprintf(format, args...))
}
