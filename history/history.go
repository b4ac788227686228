// Package history persists pipeline trace logs as timestamped text lines
// and answers frequency queries over them.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultLevel = "INFO"
	separator    = " - "
)

// Log is an append-only line log. Each line has the form
// "<RFC3339 timestamp> - <LEVEL> - <message>". Reads over a missing
// file behave as reads over an empty log.
type Log struct {
	mu   sync.Mutex // Protects file append and read
	path string
}

// NewLog creates a log backed by the file at path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the backing file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes an INFO line with the given message.
func (l *Log) Append(message string) error {
	return l.AppendLevel(defaultLevel, message)
}

// AppendLevel writes a line with an explicit level.
func (l *Log) AppendLevel(level, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	line := time.Now().UTC().Format(time.RFC3339) + separator + level + separator + message + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append log line: %w", err)
	}
	return nil
}

// Messages returns the message field of every line, oldest first.
func (l *Log) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var messages []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, separator, 3)
		messages = append(messages, parts[len(parts)-1])
	}
	return messages
}

// MostFrequent returns the message that occurs most often among those
// accepted by the filter. A nil filter accepts everything. Ties are
// broken in favor of the message seen first.
func (l *Log) MostFrequent(accept func(string) bool) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, msg := range l.Messages() {
		if accept != nil && !accept(msg) {
			continue
		}
		if _, seen := counts[msg]; !seen {
			order = append(order, msg)
		}
		counts[msg]++
	}
	best, bestCount := "", 0
	for _, msg := range order {
		if counts[msg] > bestCount {
			best, bestCount = msg, counts[msg]
		}
	}
	return best, bestCount > 0
}

// CountOccurrences counts case-insensitive occurrences of substr
// across the whole log file.
func (l *Log) CountOccurrences(substr string) int {
	if substr == "" {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	return strings.Count(strings.ToLower(string(raw)), strings.ToLower(substr))
}

// Recorder groups the trace logs the conversation pipeline writes.
type Recorder struct {
	Intent        *Log
	Clarification *Log
	Validation    *Log
}

// NewRecorder creates a Recorder with the conventional log files under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{
		Intent:        NewLog(filepath.Join(dir, "intent_log.log")),
		Clarification: NewLog(filepath.Join(dir, "clarification_log.log")),
		Validation:    NewLog(filepath.Join(dir, "validation_log.log")),
	}
}
