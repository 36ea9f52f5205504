package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/loop/status", h.LoopStatus)
	mux.HandleFunc("POST /v1/loop/start", h.LoopStart)
	mux.HandleFunc("POST /v1/loop/stop", h.LoopStop)

	mux.HandleFunc("GET /v1/deliveries/recent", h.RecentDeliveries)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("paintbot"))
	})

	return mux
}
