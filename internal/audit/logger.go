package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stenhardvara/zephyr/internal/config"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    string    `json:"action"`
	Handle    uint16    `json:"handle"`
	Outcome   string    `json:"outcome"`
	LatencyUs int64     `json:"latencyUs"`
}

// Logger appends audit entries to a rotated JSONL file.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// NewLogger creates the log directory if needed and opens the rotated
// audit log inside it.
func NewLogger(cfg config.AuditConfig) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	out := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "llsync.jsonl"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return &Logger{out: out}, nil
}

// LogAction records the outcome and latency of one host command.
func (l *Logger) LogAction(action string, handle uint16, outcome string, latency time.Duration) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Handle:    handle,
		Outcome:   outcome,
		LatencyUs: latency.Microseconds(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal audit entry: %v\n", err)
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write audit entry: %v\n", err)
	}
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
