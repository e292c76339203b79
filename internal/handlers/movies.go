package handlers

import (
	"encoding/json"
	"net/http"

	"moviecatalog/internal/store"
	"moviecatalog/internal/types"
	"moviecatalog/internal/utils"
)

type MovieHandler struct {
	store *store.MovieStore
}

func NewMovieHandler(st *store.MovieStore) *MovieHandler {
	return &MovieHandler{store: st}
}

// ListMovies returns the full collection, or a view of it when the "view"
// query parameter is one of favorites, watched, unwatched, custom or tmdb.
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	view := utils.GetQueryParam(r, "view", "")

	var movies []types.Movie
	switch view {
	case "":
		movies = h.store.Movies()
	case "favorites":
		movies = h.store.Favorites()
	case "watched":
		movies = h.store.Watched()
	case "unwatched":
		movies = h.store.Unwatched()
	case "custom":
		movies = h.store.CustomMovies()
	case "tmdb":
		movies = h.store.TMDBMovies()
	default:
		utils.RespondError(w, "unknown view", http.StatusBadRequest)
		return
	}

	utils.RespondJSON(w, map[string]interface{}{
		"results": movies,
		"count":   len(movies),
	}, http.StatusOK)
}

func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	movie, ok := h.store.GetMovieByID(id)
	if !ok {
		utils.RespondError(w, "movie not found", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var movie types.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, ok := h.store.CreateMovie(r.Context(), movie)
	if !ok {
		utils.RespondError(w, "movie could not be added", http.StatusConflict)
		return
	}
	utils.RespondJSON(w, created, http.StatusCreated)
}

func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	var update types.MovieUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	movie, ok := h.store.UpdateMovie(r.Context(), id, update)
	if !ok {
		utils.RespondError(w, "movie not found or update rejected", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	if !h.store.DeleteMovie(r.Context(), id) {
		utils.RespondError(w, "movie not found", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (h *MovieHandler) DeleteMultiple(w http.ResponseWriter, r *http.Request) {
	var req types.DeleteMultipleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.store.DeleteMultiple(r.Context(), req.IDs) {
		utils.RespondError(w, "no matching movies", http.StatusNotFound)
		return
	}
	utils.RespondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

func (h *MovieHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	if !h.store.ToggleFavorite(r.Context(), id) {
		utils.RespondError(w, "movie not found", http.StatusNotFound)
		return
	}
	movie, _ := h.store.GetMovieByID(id)
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) ToggleWatched(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	if !h.store.ToggleWatched(r.Context(), id) {
		utils.RespondError(w, "movie not found", http.StatusNotFound)
		return
	}
	movie, _ := h.store.GetMovieByID(id)
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) RateMovie(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	var req types.RateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.store.UpdateRating(r.Context(), id, req.Rating) {
		utils.RespondError(w, "movie not found or rating out of range", http.StatusBadRequest)
		return
	}
	movie, _ := h.store.GetMovieByID(id)
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	var req types.UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.store.UpdateNotes(r.Context(), id, req.Notes) {
		utils.RespondError(w, "movie not found", http.StatusNotFound)
		return
	}
	movie, _ := h.store.GetMovieByID(id)
	utils.RespondJSON(w, movie, http.StatusOK)
}

func (h *MovieHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, h.store.Stats(), http.StatusOK)
}
