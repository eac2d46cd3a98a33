package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/gateways/jazz/provision"
	jsonutil "github.com/xilidan/jazz/pkg/json"
	"github.com/xilidan/jazz/services/transcript/entity"
)

// RoomService is the slice of the salute client the handlers call
// directly.
type RoomService interface {
	DisableRoom(ctx context.Context, roomID string) (bool, error)
	DisableTranscription(ctx context.Context, roomID string) (bool, error)
	GetTranscriptions(ctx context.Context, roomID string) (json.RawMessage, error)
}

type Provisioner interface {
	Provision(ctx context.Context, count int) (map[string]string, error)
}

type Transcripts interface {
	Window(start, end string) (entity.Window, error)
	GetRoomTranscript(ctx context.Context, roomID string, allowed map[string]struct{}, window entity.Window) (string, error)
}

type Handler struct {
	rooms       RoomService
	provisioner Provisioner
	transcripts Transcripts
	log         *slog.Logger
}

func New(rooms RoomService, provisioner Provisioner, transcripts Transcripts, log *slog.Logger) *Handler {
	return &Handler{
		rooms:       rooms,
		provisioner: provisioner,
		transcripts: transcripts,
		log:         log,
	}
}

type ProvisionRequest struct {
	Count int `json:"count"`
}

type ProvisionResponse struct {
	Rooms map[string]string `json:"rooms"`
}

type ToggleResponse struct {
	Success bool `json:"success"`
}

type TranscriptResponse struct {
	RoomID     string `json:"room_id"`
	Transcript string `json:"transcript"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/health", h.HealthCheck)
	r.Post("/api/v1/rooms/provision", h.ProvisionRooms)
	r.Post("/api/v1/rooms/{roomID}/disable", h.DisableRoom)
	r.Post("/api/v1/rooms/{roomID}/transcription/disable", h.DisableTranscription)
	r.Get("/api/v1/rooms/{roomID}/transcriptions", h.GetTranscriptions)
	r.Get("/api/v1/rooms/transcript", h.GetTranscript)
	h.log.Info("all routes registered")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) ProvisionRooms(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := jsonutil.ParseJSON(r, &req); err != nil {
		h.log.Warn("invalid provision request", slog.String("error", err.Error()))
		jsonutil.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if req.Count <= 0 {
		jsonutil.WriteError(w, http.StatusBadRequest, fmt.Errorf("count must be positive"))
		return
	}

	h.log.Info("provision request", slog.Int("count", req.Count))
	rooms, err := h.provisioner.Provision(r.Context(), req.Count)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, ProvisionResponse{Rooms: rooms})
}

func (h *Handler) DisableRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	ok, err := h.rooms.DisableRoom(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, ToggleResponse{Success: ok})
}

func (h *Handler) DisableTranscription(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	ok, err := h.rooms.DisableTranscription(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, ToggleResponse{Success: ok})
}

func (h *Handler) GetTranscriptions(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	payload, err := h.rooms.GetTranscriptions(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	jsonutil.WriteRaw(w, http.StatusOK, payload)
}

func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	roomURL := q.Get("room_url")
	if roomURL == "" {
		jsonutil.WriteError(w, http.StatusBadRequest, fmt.Errorf("room_url is required"))
		return
	}
	roomID := salute.RoomIDFromURL(roomURL)

	allowed := make(map[string]struct{})
	for _, name := range strings.Split(q.Get("participants"), ",") {
		if name != "" {
			allowed[name] = struct{}{}
		}
	}

	window, err := h.transcripts.Window(q.Get("start"), q.Get("end"))
	if err != nil {
		jsonutil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	text, err := h.transcripts.GetRoomTranscript(r.Context(), roomID, allowed, window)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, TranscriptResponse{RoomID: roomID, Transcript: text})
}

// writeServiceError maps the error taxonomy onto HTTP statuses: remote
// service failures surface as 502, everything else as 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	h.log.Error("request failed", slog.String("error", err.Error()))

	var authErr *salute.AuthError
	var roomErr *salute.RoomServiceError
	var provErr *provision.ProvisioningError
	if errors.As(err, &authErr) || errors.As(err, &roomErr) || errors.As(err, &provErr) {
		jsonutil.WriteError(w, http.StatusBadGateway, err)
		return
	}

	jsonutil.WriteError(w, http.StatusInternalServerError, err)
}
