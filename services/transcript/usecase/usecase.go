package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xilidan/jazz/services/transcript/entity"
	"github.com/xilidan/jazz/services/transcript/storage"
)

// RoomFetcher is the slice of the room client this service needs.
type RoomFetcher interface {
	GetTranscriptions(ctx context.Context, roomID string) (json.RawMessage, error)
}

// Usecase reduces raw transcription payloads into readable dialogue text.
// The fallback location for offset-less window bounds is a policy field,
// not a constant.
type Usecase struct {
	rooms RoomFetcher
	tlog  storage.Log
	loc   *time.Location
	log   *slog.Logger
}

func New(rooms RoomFetcher, tlog storage.Log, loc *time.Location, log *slog.Logger) *Usecase {
	return &Usecase{
		rooms: rooms,
		tlog:  tlog,
		loc:   loc,
		log:   log,
	}
}

// Window parses start/end bound strings using the configured fallback
// location for bounds without an explicit offset.
func (u *Usecase) Window(start, end string) (entity.Window, error) {
	from, err := entity.ParseBound(start, u.loc)
	if err != nil {
		return entity.Window{}, fmt.Errorf("bad start bound %q: %w", start, err)
	}
	to, err := entity.ParseBound(end, u.loc)
	if err != nil {
		return entity.Window{}, fmt.Errorf("bad end bound %q: %w", end, err)
	}
	return entity.Window{Start: from, End: to}, nil
}

// Normalize filters the raw transcription payload by participant
// allow-list and optional time window, then renders one "<name>: <text>"
// line per surviving entry in original order. The raw payload and the
// rendered text are appended to the transcript log as a side effect; a
// failed append is reported and swallowed.
func (u *Usecase) Normalize(ctx context.Context, raw []byte, allowed map[string]struct{}, window entity.Window) (string, error) {
	var bundle entity.Bundle
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &bundle); err != nil {
			return "", fmt.Errorf("unparsable transcription payload: %w", err)
		}
	}

	lines := make([]string, 0, len(bundle.Transcriptions))
	for _, e := range bundle.Transcriptions {
		if _, ok := allowed[e.ParticipantName]; !ok {
			continue
		}
		if !window.IsZero() && !window.Contains(e.CreatedAt.UTC()) {
			continue
		}

		name := e.ParticipantName
		if name == "" {
			name = entity.UnknownParticipant
		}
		lines = append(lines, name+": "+e.Text)
	}

	parsed := strings.Join(lines, "\n")

	roomID := bundle.RoomID
	if roomID == "" {
		roomID = "unknown"
	}
	u.appendLog(ctx, roomID, string(raw), parsed)

	u.log.Debug("transcription normalized",
		slog.String("room_id", roomID),
		slog.Int("entries_total", len(bundle.Transcriptions)),
		slog.Int("entries_kept", len(lines)))
	return parsed, nil
}

// GetRoomTranscript fetches the room's raw transcriptions and normalizes
// them in one pass. The raw payload is logged on arrival, before any
// filtering can fail.
func (u *Usecase) GetRoomTranscript(ctx context.Context, roomID string, allowed map[string]struct{}, window entity.Window) (string, error) {
	raw, err := u.rooms.GetTranscriptions(ctx, roomID)
	if err != nil {
		return "", err
	}

	u.appendLog(ctx, roomID, string(raw), "")

	return u.Normalize(ctx, raw, allowed, window)
}

func (u *Usecase) appendLog(ctx context.Context, roomID, raw, parsed string) {
	if u.tlog == nil {
		return
	}
	if err := u.tlog.Append(ctx, roomID, raw, parsed); err != nil {
		// Audit logging is best-effort; the transcript still goes back
		// to the caller.
		u.log.Error("failed to append transcription log",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()))
	}
}
