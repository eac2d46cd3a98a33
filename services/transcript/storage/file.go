package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const separator = "============================================================"

// FileLog appends transcript records to a rotating log file.
type FileLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewFileLog builds a FileLog rotating at path. Rotation keeps the
// append-only file from growing without bound; old chunks are compressed.
func NewFileLog(path string) *FileLog {
	return &FileLog{
		w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		},
		now: time.Now,
	}
}

// Append writes the raw payload and, when present, the parsed dialogue as
// two stamped blocks tagged with the room id.
func (l *FileLog) Append(ctx context.Context, roomID, raw, parsed string) error {
	timestamp := l.now().Format("2006-01-02 15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Transcription - %s ===\n", timestamp)
	fmt.Fprintf(&b, "Room ID: %s\n", roomID)
	fmt.Fprintf(&b, "Raw Data: %s\n", raw)
	fmt.Fprintf(&b, "%s\n\n", separator)

	if parsed != "" {
		fmt.Fprintf(&b, "\n=== Parsed Transcription - %s ===\n", timestamp)
		fmt.Fprintf(&b, "Room ID: %s\n", roomID)
		fmt.Fprintf(&b, "Parsed Text: %s\n", parsed)
		fmt.Fprintf(&b, "%s\n\n", separator)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.w, b.String()); err != nil {
		return fmt.Errorf("failed to append transcription log: %w", err)
	}
	return nil
}
