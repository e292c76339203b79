package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"moviecatalog/internal/services"
	"moviecatalog/internal/store"
	"moviecatalog/internal/utils"
)

// DataHandler covers the data-management surface: export, import, backup,
// restore, clear and the background refresh controls.
type DataHandler struct {
	store   *store.MovieStore
	refresh *services.CatalogRefreshService
}

func NewDataHandler(st *store.MovieStore, refresh *services.CatalogRefreshService) *DataHandler {
	return &DataHandler{store: st, refresh: refresh}
}

// ExportData streams the collection as a pretty-printed JSON document.
func (h *DataHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.ExportData()
	if err != nil {
		utils.RespondError(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="movies-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(data))
}

// ImportData replaces the collection with an uploaded export document. The
// body may be the raw export or wrapped as {"data": "..."}.
func (h *DataHandler) ImportData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	payload := string(body)
	var wrapped struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != "" {
		payload = wrapped.Data
	}

	if !h.store.ImportData(r.Context(), payload) {
		utils.RespondError(w, "import document is not a valid export", http.StatusBadRequest)
		return
	}
	utils.RespondJSON(w, map[string]interface{}{
		"status": "imported",
		"count":  len(h.store.Movies()),
	}, http.StatusOK)
}

// CreateBackup snapshots the current collection into the backup slot.
func (h *DataHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.store.CreateBackup(r.Context()) {
		utils.RespondError(w, "backup failed", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, map[string]string{"status": "backup created"}, http.StatusOK)
}

// RestoreFromBackup replaces the collection with the backup snapshot.
func (h *DataHandler) RestoreFromBackup(w http.ResponseWriter, r *http.Request) {
	if !h.store.RestoreFromBackup(r.Context()) {
		utils.RespondError(w, "no usable backup", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, map[string]interface{}{
		"status": "restored",
		"count":  len(h.store.Movies()),
	}, http.StatusOK)
}

// ClearAll empties the collection and the persisted slot.
func (h *DataHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAll(r.Context())
	utils.RespondJSON(w, map[string]string{"status": "cleared"}, http.StatusOK)
}

// RefreshStatus reports the catalog refresh scheduler state.
func (h *DataHandler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, h.refresh.Status(), http.StatusOK)
}

// TriggerRefresh runs a catalog refresh outside the schedule.
func (h *DataHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.refresh.ManualRefresh(r.Context()); err != nil {
		utils.RespondError(w, "refresh failed", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, h.refresh.Status(), http.StatusOK)
}
