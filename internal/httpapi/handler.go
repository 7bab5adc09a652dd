package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/scheduler"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type SnapshotSource interface {
	Latest() (domain.Snapshot, bool)
	RefreshAsync() error
}

type HistoryStore interface {
	List(limit int) ([]domain.Snapshot, error)
}

// LeaderboardResponse is the payload served to the front-end.
type LeaderboardResponse struct {
	ID            string      `json:"id,omitempty"`
	Players       []PlayerRow `json:"players"`
	MissingAPIKey bool        `json:"missingApiKey"`
	LastUpdated   *time.Time  `json:"lastUpdated"`
}

// PlayerRow is a leaderboard row plus the presentation hints the front-end renders.
// Error rows carry no hints.
type PlayerRow struct {
	domain.PlayerRecord
	Display *RowDisplay `json:"-"`
}

type RowDisplay struct {
	TierIcon    string  `json:"tierIcon"`
	TierColor   string  `json:"tierColor"`
	DisplayRank string  `json:"displayRank"`
	WinRate     float64 `json:"winRate"`
}

func NewPlayerRow(r domain.PlayerRecord) PlayerRow {
	row := PlayerRow{PlayerRecord: r}
	if s := r.Standing; s != nil && !r.Err {
		row.Display = &RowDisplay{
			TierIcon:    domain.TierIconURL(s.Tier),
			TierColor:   domain.TierColorClass(s.Tier),
			DisplayRank: domain.DisplayRank(s),
			WinRate:     math.Round(s.WinRate()*10) / 10,
		}
	}
	return row
}

// MarshalJSON merges the display hints into the record's own JSON object.
func (r PlayerRow) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(r.PlayerRecord)
	if err != nil || r.Display == nil {
		return base, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	hints, err := json.Marshal(r.Display)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hints, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (r *PlayerRow) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.PlayerRecord); err != nil {
		return err
	}
	var hints RowDisplay
	if err := json.Unmarshal(data, &hints); err != nil {
		return err
	}
	r.Display = nil
	if hints.TierIcon != "" {
		r.Display = &hints
	}
	return nil
}

func NewLeaderboardResponse(snap domain.Snapshot) LeaderboardResponse {
	resp := LeaderboardResponse{
		ID:            snap.ID,
		Players:       make([]PlayerRow, len(snap.Leaderboard.Players)),
		MissingAPIKey: snap.Leaderboard.MissingAPIKey,
	}
	for i, p := range snap.Leaderboard.Players {
		resp.Players[i] = NewPlayerRow(p)
	}
	if !snap.UpdatedAt.IsZero() {
		t := snap.UpdatedAt.UTC()
		resp.LastUpdated = &t
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	source  SnapshotSource
	history HistoryStore
	hub     *Hub
}

// NewHandler accepts a nil history store; the history endpoint then reports 404.
func NewHandler(source SnapshotSource, history HistoryStore, hub *Hub) *Handler {
	return &Handler{source: source, history: history, hub: hub}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/leaderboard", h.getLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/history", h.getHistory).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/refresh", h.postRefresh).Methods(http.MethodPost)
	api.Use(jsonContentType)

	r.Use(requestLogger)
	return r
}

// Publish pushes a new snapshot to WebSocket clients. It has the scheduler listener signature.
func (h *Handler) Publish(_, next domain.Snapshot) {
	payload, err := json.Marshal(NewLeaderboardResponse(next))
	if err != nil {
		log.WithError(err).Error("failed to encode leaderboard for websocket")
		return
	}
	h.hub.Broadcast(payload)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	_, ready := h.source.Latest()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ready": ready})
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.source.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard not ready yet"})
		return
	}
	writeJSON(w, http.StatusOK, NewLeaderboardResponse(snap))
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "history is not enabled"})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	snaps, err := h.history.List(limit)
	if err != nil {
		log.WithError(err).Error("failed to list leaderboard history")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}
	out := make([]LeaderboardResponse, len(snaps))
	for i, s := range snaps {
		out[i] = NewLeaderboardResponse(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": out, "count": len(out)})
}

func (h *Handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	err := h.source.RefreshAsync()
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if errors.Is(err, scheduler.ErrStopped) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	var initial []byte
	if snap, ok := h.source.Latest(); ok {
		initial, _ = json.Marshal(NewLeaderboardResponse(snap))
	}
	h.hub.serve(w, r, initial)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"took":   time.Since(start).Round(time.Microsecond),
		}).Debug("http request")
	})
}
