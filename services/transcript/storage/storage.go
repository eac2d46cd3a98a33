package storage

import "context"

// Log is the durable transcript audit log. Appends are best-effort from
// the caller's point of view: a failed append must never abort the
// operation that produced the transcript.
type Log interface {
	Append(ctx context.Context, roomID, raw, parsed string) error
}
