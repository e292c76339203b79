package handlers

import (
	"net/http"

	"moviecatalog/internal/loading"
	"moviecatalog/internal/utils"
)

type HealthHandler struct {
	counter *loading.Counter
}

func NewHealthHandler(counter *loading.Counter) *HealthHandler {
	return &HealthHandler{counter: counter}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// LoadingStatus reports whether any catalog requests are in flight.
func (h *HealthHandler) LoadingStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, map[string]interface{}{
		"loading":  h.counter.Loading(),
		"inflight": h.counter.Count(),
	}, http.StatusOK)
}
