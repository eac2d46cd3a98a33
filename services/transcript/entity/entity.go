package entity

import (
	"time"
)

// Placeholder rendered when an entry carries no participant name.
const UnknownParticipant = "Unknown"

// Bundle is the transcription payload shape returned by the room service.
// Only the fields we extract are modeled; everything else rides along in
// the raw payload.
type Bundle struct {
	RoomID         string  `json:"roomId"`
	Transcriptions []Entry `json:"transcriptions"`
}

type Entry struct {
	ParticipantName string    `json:"participantName"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Window bounds a transcript slice in time. Zero bounds are open ended.
// Both bounds are inclusive and always carry an offset by the time a
// Window exists; civil-time interpretation happens in ParseBound.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Civil-time layouts accepted for window bounds that carry no offset.
var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseBound reads a window bound. Bounds with an explicit offset are
// respected as-is; offset-less bounds are civil time in loc. The result is
// normalized to UTC so entry comparison never crosses zones.
func ParseBound(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	var lastErr error
	for _, layout := range civilLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
