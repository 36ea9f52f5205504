package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akoszegi/paintbot/internal/bot"
	"github.com/akoszegi/paintbot/internal/cache"
)

type Handler struct {
	loop    *bot.Loop
	journal cache.DeliveryJournal
}

// NewHandler builds the admin handler. journal may be nil when Redis is
// disabled; the deliveries endpoint then reports 503.
func NewHandler(l *bot.Loop, j cache.DeliveryJournal) *Handler {
	return &Handler{loop: l, journal: j}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) LoopStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running": h.loop.IsRunning(),
		"cursor":  h.loop.Cursor(),
	})
}

func (h *Handler) LoopStart(w http.ResponseWriter, r *http.Request) {
	h.loop.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.loop.IsRunning()})
}

func (h *Handler) LoopStop(w http.ResponseWriter, r *http.Request) {
	h.loop.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.loop.IsRunning()})
}

func (h *Handler) RecentDeliveries(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		http.Error(w, "delivery journal disabled", http.StatusServiceUnavailable)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)

	items, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
