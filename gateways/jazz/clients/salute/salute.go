package salute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client talks to the SaluteJazz room API. Every operation obtains an
// access token from the cached token source first and attaches it as a
// bearer credential. Calls do not share connections: each request runs on
// a fresh session, which is fine at this call volume.
type Client struct {
	baseURL    string
	tokens     *tokenSource
	log        *slog.Logger
	newSession func() *http.Client
}

type Room struct {
	RoomID  string `json:"roomId"`
	RoomURL string `json:"roomUrl"`

	// Raw keeps the full create response; the service returns more
	// fields than the two we extract.
	Raw json.RawMessage `json:"-"`
}

type createRoomRequest struct {
	RoomTitle                         string `json:"roomTitle"`
	ServerVideoRecordAutoStartEnabled bool   `json:"serverVideoRecordAutoStartEnabled"`
	RoomType                          string `json:"roomType"`
	TranscriptionAutoStartEnabled     bool   `json:"transcriptionAutoStartEnabled"`
	SummarizationEnabled              bool   `json:"summarizationEnabled"`
}

type updateSettingsRequest struct {
	TranscriptionAutoStartEnabled bool `json:"transcriptionAutoStartEnabled"`
}

// New decodes the SDK credential blob and builds a client against baseURL.
// A bad blob fails construction with a ConfigError.
func New(sdkKeyEncoded, baseURL string, log *slog.Logger) (*Client, error) {
	cred, err := ParseCredential(sdkKeyEncoded)
	if err != nil {
		return nil, err
	}

	log.Debug("creating salute jazz client",
		slog.String("base_url", baseURL),
		slog.String("project_id", cred.ProjectID))

	return &Client{
		baseURL:    baseURL,
		tokens:     newTokenSource(cred, baseURL, log),
		log:        log,
		newSession: func() *http.Client { return &http.Client{} },
	}, nil
}

// CreateRoom creates a meeting room with the fixed policy defaults:
// recording off, transcription auto-start on, summarization off. Callers
// cannot override these.
func (c *Client) CreateRoom(ctx context.Context, title string) (*Room, error) {
	c.log.Info("creating room", slog.String("title", title))

	body := createRoomRequest{
		RoomTitle:                         title,
		ServerVideoRecordAutoStartEnabled: false,
		RoomType:                          "MEETING",
		TranscriptionAutoStartEnabled:     true,
		SummarizationEnabled:              false,
	}

	resp, data, err := c.do(ctx, "create room", http.MethodPost, "/v1/room/create", body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RoomServiceError{Op: "create room", StatusCode: resp.StatusCode, Body: string(data)}
	}

	var room Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, &RoomServiceError{Op: "create room", Err: fmt.Errorf("unparsable response: %w", err)}
	}
	room.Raw = data

	c.log.Info("room created",
		slog.String("room_id", room.RoomID),
		slog.String("room_url", room.RoomURL))
	return &room, nil
}

// DisableTranscription turns off transcription auto-start for the room.
// No other setting is touched. Returns true iff the service answered with
// 204 No Content.
func (c *Client) DisableTranscription(ctx context.Context, roomID string) (bool, error) {
	c.log.Info("disabling transcription", slog.String("room_id", roomID))

	path := fmt.Sprintf("/v1/room/%s/settings/update", roomID)
	resp, data, err := c.do(ctx, "disable transcription", http.MethodPost, path, updateSettingsRequest{
		TranscriptionAutoStartEnabled: false,
	})
	if err != nil {
		return false, err
	}

	return noContent(resp, data, "disable transcription")
}

// DisableRoom disables the room. Returns true iff the service answered
// with 204 No Content.
func (c *Client) DisableRoom(ctx context.Context, roomID string) (bool, error) {
	c.log.Info("disabling room", slog.String("room_id", roomID))

	path := fmt.Sprintf("/v1/room/%s/disable", roomID)
	resp, data, err := c.do(ctx, "disable room", http.MethodPost, path, struct{}{})
	if err != nil {
		return false, err
	}

	return noContent(resp, data, "disable room")
}

// GetTranscriptions fetches the raw transcription payload for the room.
// The payload is returned as-is; field extraction happens in the
// transcript service.
func (c *Client) GetTranscriptions(ctx context.Context, roomID string) (json.RawMessage, error) {
	c.log.Info("fetching transcriptions", slog.String("room_id", roomID))

	path := fmt.Sprintf("/v1/room/%s/transcriptions", roomID)
	resp, data, err := c.do(ctx, "fetch transcriptions", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RoomServiceError{Op: "fetch transcriptions", StatusCode: resp.StatusCode, Body: string(data)}
	}
	if !json.Valid(data) {
		return nil, &RoomServiceError{Op: "fetch transcriptions", Err: fmt.Errorf("unparsable response body")}
	}

	c.log.Debug("transcriptions fetched",
		slog.String("room_id", roomID),
		slog.Int("payload_bytes", len(data)))
	return json.RawMessage(data), nil
}

// do runs one authenticated request and returns the response plus its
// fully read body. Status handling is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (*http.Response, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, &RoomServiceError{Op: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, &RoomServiceError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.newSession().Do(req)
	if err != nil {
		c.log.Error("request failed",
			slog.String("op", op),
			slog.String("error", err.Error()))
		return nil, nil, &RoomServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &RoomServiceError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return resp, data, nil
}

func noContent(resp *http.Response, data []byte, op string) (bool, error) {
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return true, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return false, nil
	default:
		return false, &RoomServiceError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
}

// RoomIDFromURL derives the room id from a room URL: the text after the
// last slash, truncated at the first question mark. This is the exact rule
// the service's URLs require; do not replace it with a URL parser.
func RoomIDFromURL(roomURL string) string {
	id := roomURL
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "?"); i >= 0 {
		id = id[:i]
	}
	return id
}
