package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviecatalog/internal/loading"
	"moviecatalog/internal/notify"
	"moviecatalog/internal/persist"
	"moviecatalog/internal/store"
	"moviecatalog/internal/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MovieStore) {
	t.Helper()
	st := store.New(context.Background(), persist.NewAdapter(persist.NewMemory()), notify.NewRecorder())

	movieHandler := NewMovieHandler(st)
	healthHandler := NewHealthHandler(loading.NewCounter())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /api/movies", movieHandler.ListMovies)
	mux.HandleFunc("POST /api/movies", movieHandler.CreateMovie)
	mux.HandleFunc("GET /api/movies/{id}", movieHandler.GetMovie)
	mux.HandleFunc("PUT /api/movies/{id}", movieHandler.UpdateMovie)
	mux.HandleFunc("DELETE /api/movies/{id}", movieHandler.DeleteMovie)
	mux.HandleFunc("POST /api/movies/{id}/favorite", movieHandler.ToggleFavorite)
	mux.HandleFunc("POST /api/movies/{id}/rating", movieHandler.RateMovie)
	mux.HandleFunc("GET /api/stats", movieHandler.GetStats)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestCreateAndGetMovie(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/movies", `{"title":"Homemade"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created types.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Negative(t, created.ID)
	assert.Equal(t, "Homemade", created.Title)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/movies/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetMovieNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/movies/12345", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMoviesViews(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	st.SetMovies(ctx, []types.Result{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	require.True(t, st.ToggleFavorite(ctx, 1))

	var listing struct {
		Results []types.Movie `json:"results"`
		Count   int           `json:"count"`
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/movies?view=favorites", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, int64(1), listing.Results[0].ID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/movies?view=bogus", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToggleFavoriteEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	st.SetMovies(context.Background(), []types.Result{{ID: 5, Title: "E"}})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/movies/5/favorite", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var movie types.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movie))
	assert.True(t, movie.IsFavorite)
}

func TestRateMovieEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	st.SetMovies(context.Background(), []types.Result{{ID: 5, Title: "E"}})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/movies/5/rating", `{"rating":8.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/movies/5/rating", `{"rating":12}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	st.SetMovies(ctx, []types.Result{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	require.True(t, st.ToggleWatched(ctx, 1))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats types.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Watched)
}
