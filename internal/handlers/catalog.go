package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"moviecatalog/internal/browse"
	"moviecatalog/internal/services"
	"moviecatalog/internal/types"
	"moviecatalog/internal/utils"
)

// CatalogHandler exposes the browse state machine and proxies the TMDB
// lookup endpoints that are not part of it.
type CatalogHandler struct {
	browser    *browse.Browser
	tmdbClient *services.TMDBClient
}

func NewCatalogHandler(browser *browse.Browser, tmdbClient *services.TMDBClient) *CatalogHandler {
	return &CatalogHandler{
		browser:    browser,
		tmdbClient: tmdbClient,
	}
}

type browseState struct {
	Category     types.Category `json:"category"`
	SearchTerm   string         `json:"search_term"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	IsLoading    bool           `json:"is_loading"`
	HasMorePages bool           `json:"has_more_pages"`
	Results      []types.Movie  `json:"results"`
}

func (h *CatalogHandler) state() browseState {
	return browseState{
		Category:     h.browser.Category(),
		SearchTerm:   h.browser.SearchTerm(),
		Page:         h.browser.Page(),
		TotalPages:   h.browser.TotalPages(),
		IsLoading:    h.browser.IsLoading(),
		HasMorePages: h.browser.HasMorePages(),
		Results:      h.browser.Displayed(),
	}
}

// GetBrowseState returns the current browse state and display list.
func (h *CatalogHandler) GetBrowseState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// SetCategory switches the browsed category and reloads from page 1.
func (h *CatalogHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category types.Category `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.browser.SetCategory(r.Context(), req.Category); err != nil {
		if !req.Category.IsValid() {
			utils.RespondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.RespondError(w, "failed to load category", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// Search resets pagination and loads results for the given term.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.browser.Search(r.Context(), req.Query); err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			utils.RespondError(w, "search query must not be empty", http.StatusBadRequest)
			return
		}
		utils.RespondError(w, "search failed", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// NextPage appends the next page of the current listing.
func (h *CatalogHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	if err := h.browser.LoadNextPage(r.Context()); err != nil {
		utils.RespondError(w, "failed to load next page", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// ToggleFilter flips one of the display toggles ("favorites" or "watched").
func (h *CatalogHandler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	switch utils.GetPathParam(r, "filter") {
	case "favorites":
		h.browser.ToggleFavoritesFilter()
	case "watched":
		h.browser.ToggleWatchedFilter()
	default:
		utils.RespondError(w, "unknown filter", http.StatusBadRequest)
		return
	}
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// ResetFilters clears the search term and both display toggles.
func (h *CatalogHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.browser.ResetFilters(r.Context()); err != nil {
		utils.RespondError(w, "failed to reload", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// CardEvent dispatches a movie-card interaction.
func (h *CatalogHandler) CardEvent(w http.ResponseWriter, r *http.Request) {
	var event browse.CardEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.browser.HandleCard(r.Context(), event)
	utils.RespondJSON(w, h.state(), http.StatusOK)
}

// GetMovieDetails proxies the full details lookup, with credits, videos and
// images appended.
func (h *CatalogHandler) GetMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	details, err := h.tmdbClient.GetMovieDetails(r.Context(), id, utils.GetQueryParam(r, "language", ""))
	if err != nil {
		utils.RespondError(w, "failed to get movie details", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, details, http.StatusOK)
}

// GetMovieVideos proxies the trailers and clips lookup.
func (h *CatalogHandler) GetMovieVideos(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	videos, err := h.tmdbClient.GetMovieVideos(r.Context(), id, utils.GetQueryParam(r, "language", ""))
	if err != nil {
		utils.RespondError(w, "failed to get movie videos", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, videos, http.StatusOK)
}

// GetMovieCredits proxies the cast and crew lookup.
func (h *CatalogHandler) GetMovieCredits(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	credits, err := h.tmdbClient.GetMovieCredits(r.Context(), id, utils.GetQueryParam(r, "language", ""))
	if err != nil {
		utils.RespondError(w, "failed to get movie credits", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, credits, http.StatusOK)
}

// GetRecommendations proxies the recommendations lookup.
func (h *CatalogHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := utils.GetPathParamInt64(r, "id")
	if err != nil {
		utils.RespondError(w, "invalid movie ID", http.StatusBadRequest)
		return
	}

	params := services.MovieAPIParams{
		Page:     utils.GetQueryParamInt(r, "page", 1),
		Language: utils.GetQueryParam(r, "language", ""),
	}
	list, err := h.tmdbClient.GetMovieRecommendations(r.Context(), id, params)
	if err != nil {
		utils.RespondError(w, "failed to get recommendations", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, list, http.StatusOK)
}

// GetGenres proxies the genre list lookup.
func (h *CatalogHandler) GetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.tmdbClient.GetGenres(r.Context(), utils.GetQueryParam(r, "language", ""))
	if err != nil {
		utils.RespondError(w, "failed to get genres", http.StatusBadGateway)
		return
	}
	utils.RespondJSON(w, genres, http.StatusOK)
}
