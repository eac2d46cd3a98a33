package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/services/transcript/entity"
)

type fakeRooms struct {
	disabledRooms       []string
	disabledTranscripts []string
	toggleResult        bool
	payload             json.RawMessage
	err                 error
}

func (f *fakeRooms) DisableRoom(ctx context.Context, roomID string) (bool, error) {
	f.disabledRooms = append(f.disabledRooms, roomID)
	return f.toggleResult, f.err
}

func (f *fakeRooms) DisableTranscription(ctx context.Context, roomID string) (bool, error) {
	f.disabledTranscripts = append(f.disabledTranscripts, roomID)
	return f.toggleResult, f.err
}

func (f *fakeRooms) GetTranscriptions(ctx context.Context, roomID string) (json.RawMessage, error) {
	return f.payload, f.err
}

type fakeProvisioner struct {
	counts []int
	rooms  map[string]string
	err    error
}

func (f *fakeProvisioner) Provision(ctx context.Context, count int) (map[string]string, error) {
	f.counts = append(f.counts, count)
	return f.rooms, f.err
}

type fakeTranscripts struct {
	roomIDs []string
	text    string
	err     error
}

func (f *fakeTranscripts) Window(start, end string) (entity.Window, error) {
	return entity.Window{}, nil
}

func (f *fakeTranscripts) GetRoomTranscript(ctx context.Context, roomID string, allowed map[string]struct{}, window entity.Window) (string, error) {
	f.roomIDs = append(f.roomIDs, roomID)
	return f.text, f.err
}

func newTestRouter(rooms *fakeRooms, prov *fakeProvisioner, trans *fakeTranscripts) http.Handler {
	h := New(rooms, prov, trans, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&fakeRooms{}, &fakeProvisioner{}, &fakeTranscripts{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":true}`, w.Body.String())
}

func TestProvisionRooms(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		prov := &fakeProvisioner{rooms: map[string]string{"Room #1": "https://jazz.example/room/a"}}
		router := newTestRouter(&fakeRooms{}, prov, &fakeTranscripts{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/provision", strings.NewReader(`{"count":1}`)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int{1}, prov.counts)

		var resp ProvisionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, prov.rooms, resp.Rooms)
	})

	t.Run("non-positive count", func(t *testing.T) {
		router := newTestRouter(&fakeRooms{}, &fakeProvisioner{}, &fakeTranscripts{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/provision", strings.NewReader(`{"count":0}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remote failure maps to 502", func(t *testing.T) {
		prov := &fakeProvisioner{err: &salute.RoomServiceError{Op: "create room", StatusCode: 500, Body: "boom"}}
		router := newTestRouter(&fakeRooms{}, prov, &fakeTranscripts{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/provision", strings.NewReader(`{"count":2}`)))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestDisableEndpoints(t *testing.T) {
	rooms := &fakeRooms{toggleResult: true}
	router := newTestRouter(rooms, &fakeProvisioner{}, &fakeTranscripts{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/r-1/disable", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, []string{"r-1"}, rooms.disabledRooms)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/r-1/transcription/disable", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"r-1"}, rooms.disabledTranscripts)
}

func TestGetTranscriptions(t *testing.T) {
	payload := `{"roomId":"r-1","transcriptions":[]}`
	rooms := &fakeRooms{payload: json.RawMessage(payload)}
	router := newTestRouter(rooms, &fakeProvisioner{}, &fakeTranscripts{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/r-1/transcriptions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, payload, w.Body.String())
}

func TestGetTranscript(t *testing.T) {
	t.Run("derives room id from url", func(t *testing.T) {
		trans := &fakeTranscripts{text: "Alice: hi"}
		router := newTestRouter(&fakeRooms{}, &fakeProvisioner{}, trans)

		target := "/api/v1/rooms/transcript?room_url=" +
			"https%3A%2F%2Fx%2Fy%2Fabc123%3Ftoken%3Dz" + "&participants=Alice,Bob"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"abc123"}, trans.roomIDs)

		var resp TranscriptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "abc123", resp.RoomID)
		assert.Equal(t, "Alice: hi", resp.Transcript)
	})

	t.Run("missing room_url", func(t *testing.T) {
		router := newTestRouter(&fakeRooms{}, &fakeProvisioner{}, &fakeTranscripts{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/transcript", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("auth failure maps to 502", func(t *testing.T) {
		trans := &fakeTranscripts{err: &salute.AuthError{Reason: "login rejected", StatusCode: 403}}
		router := newTestRouter(&fakeRooms{}, &fakeProvisioner{}, trans)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/transcript?room_url=https://x/y/abc", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
