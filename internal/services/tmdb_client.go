package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviecatalog/internal/config"
	"moviecatalog/internal/loading"
	"moviecatalog/internal/types"
)

// ErrEmptyQuery rejects a search with an empty term before any request goes out.
var ErrEmptyQuery = errors.New("search query must not be empty")

// TMDBClient talks to the TMDB HTTP API. Every request carries the API key,
// a language and a page; the transport chain underneath counts in-flight
// requests, rate-limits and retries transient failures.
type TMDBClient struct {
	APIKey          string
	BaseURL         string
	DefaultLanguage string
	ImageBaseURL    string
	ImageSizes      config.ImageSizes

	client *http.Client
}

// MovieAPIParams carries the caller-tunable list parameters. Zero values
// fall back to the client defaults.
type MovieAPIParams struct {
	Page     int
	Language string
}

// MovieDetails is the full details response, with credits, videos and images
// appended.
type MovieDetails struct {
	types.Result
	Runtime int           `json:"runtime"`
	Genres  []types.Genre `json:"genres"`
	Budget  int64         `json:"budget"`
	Revenue int64         `json:"revenue"`
	Status  string        `json:"status"`
	Tagline string        `json:"tagline"`
	Homepage string       `json:"homepage"`

	Credits *MovieCredits `json:"credits,omitempty"`
	Videos  *VideoList    `json:"videos,omitempty"`
	Images  *ImageList    `json:"images,omitempty"`
}

type MovieCredits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type CrewMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

type VideoList struct {
	ID      int64             `json:"id"`
	Results []types.VideoClip `json:"results"`
}

type ImageList struct {
	Backdrops []ImageInfo `json:"backdrops"`
	Posters   []ImageInfo `json:"posters"`
}

type ImageInfo struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	VoteAverage float64 `json:"vote_average"`
}

// ImageKind selects the size segment and the fallback asset of an image URL.
type ImageKind string

const (
	ImagePoster   ImageKind = "poster"
	ImageBackdrop ImageKind = "backdrop"
	ImageProfile  ImageKind = "profile"
)

// NewTMDBClient builds a client whose transport reports to the loading
// counter, respects the TMDB rate limit and retries transient failures.
func NewTMDBClient(cfg config.Config, counter *loading.Counter) *TMDBClient {
	transport := newLoadingTransport(counter,
		newRetryTransport(cfg.HTTPRetries,
			newRateLimitTransport(NewTMDBRateLimiter(), http.DefaultTransport)))

	return &TMDBClient{
		APIKey:          cfg.TMDBAPIKey,
		BaseURL:         cfg.TMDBAPIURL,
		DefaultLanguage: cfg.DefaultLanguage,
		ImageBaseURL:    cfg.ImageBaseURL,
		ImageSizes:      cfg.ImageSizes,
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// GetPopularMovies gets the popular movies list.
func (c *TMDBClient) GetPopularMovies(ctx context.Context, params MovieAPIParams) (*types.MovieList, error) {
	return c.getMovieList(ctx, "/movie/popular", params, nil)
}

// GetTopRatedMovies gets the top rated movies list.
func (c *TMDBClient) GetTopRatedMovies(ctx context.Context, params MovieAPIParams) (*types.MovieList, error) {
	return c.getMovieList(ctx, "/movie/top_rated", params, nil)
}

// GetNowPlayingMovies gets the movies currently in theaters.
func (c *TMDBClient) GetNowPlayingMovies(ctx context.Context, params MovieAPIParams) (*types.MovieList, error) {
	return c.getMovieList(ctx, "/movie/now_playing", params, nil)
}

// GetUpcomingMovies gets the upcoming releases list.
func (c *TMDBClient) GetUpcomingMovies(ctx context.Context, params MovieAPIParams) (*types.MovieList, error) {
	return c.getMovieList(ctx, "/movie/upcoming", params, nil)
}

// ListByCategory dispatches to the list endpoint for a category. The custom
// category has no remote endpoint and is rejected.
func (c *TMDBClient) ListByCategory(ctx context.Context, category types.Category, params MovieAPIParams) (*types.MovieList, error) {
	switch category {
	case types.CategoryPopular:
		return c.GetPopularMovies(ctx, params)
	case types.CategoryTopRated:
		return c.GetTopRatedMovies(ctx, params)
	case types.CategoryNowPlaying:
		return c.GetNowPlayingMovies(ctx, params)
	case types.CategoryUpcoming:
		return c.GetUpcomingMovies(ctx, params)
	default:
		return nil, fmt.Errorf("category %q has no remote endpoint", category)
	}
}

// SearchMovies searches movies by free text. The query must be non-empty
// after trimming; adult results are always excluded.
func (c *TMDBClient) SearchMovies(ctx context.Context, query string, params MovieAPIParams) (*types.MovieList, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}
	extra := map[string]string{
		"query":         trimmed,
		"include_adult": "false",
	}
	return c.getMovieList(ctx, "/search/movie", params, extra)
}

// GetMovieDetails gets the full details of a movie with credits, videos and
// images appended.
func (c *TMDBClient) GetMovieDetails(ctx context.Context, movieID int64, language string) (*MovieDetails, error) {
	extra := map[string]string{
		"append_to_response": "credits,videos,images",
	}
	var details MovieDetails
	endpoint := fmt.Sprintf("/movie/%d", movieID)
	if err := c.get(ctx, endpoint, MovieAPIParams{Language: language}, extra, &details); err != nil {
		return nil, fmt.Errorf("movie details request failed: %w", err)
	}
	return &details, nil
}

// GetMovieVideos gets the trailers and clips of a movie.
func (c *TMDBClient) GetMovieVideos(ctx context.Context, movieID int64, language string) (*VideoList, error) {
	var videos VideoList
	endpoint := fmt.Sprintf("/movie/%d/videos", movieID)
	if err := c.get(ctx, endpoint, MovieAPIParams{Language: language}, nil, &videos); err != nil {
		return nil, fmt.Errorf("movie videos request failed: %w", err)
	}
	return &videos, nil
}

// GetMovieCredits gets the cast and crew of a movie.
func (c *TMDBClient) GetMovieCredits(ctx context.Context, movieID int64, language string) (*MovieCredits, error) {
	var credits MovieCredits
	endpoint := fmt.Sprintf("/movie/%d/credits", movieID)
	if err := c.get(ctx, endpoint, MovieAPIParams{Language: language}, nil, &credits); err != nil {
		return nil, fmt.Errorf("movie credits request failed: %w", err)
	}
	return &credits, nil
}

// GetMovieRecommendations gets recommendations based on a movie.
func (c *TMDBClient) GetMovieRecommendations(ctx context.Context, movieID int64, params MovieAPIParams) (*types.MovieList, error) {
	endpoint := fmt.Sprintf("/movie/%d/recommendations", movieID)
	return c.getMovieList(ctx, endpoint, params, nil)
}

// GetGenres gets the movie genre list.
func (c *TMDBClient) GetGenres(ctx context.Context, language string) (*types.GenreResponse, error) {
	var genres types.GenreResponse
	if err := c.get(ctx, "/genre/movie/list", MovieAPIParams{Language: language}, nil, &genres); err != nil {
		return nil, fmt.Errorf("genres request failed: %w", err)
	}
	return &genres, nil
}

// GetImageURL builds the full URL for an image path. A nil or empty path
// yields the fallback asset for the kind; absolute URLs pass through.
func (c *TMDBClient) GetImageURL(imagePath *string, kind ImageKind) string {
	if imagePath == nil || *imagePath == "" {
		switch kind {
		case ImageBackdrop:
			return "assets/img/no-data.png"
		default:
			return "assets/img/image-not-found.png"
		}
	}

	path := *imagePath
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	size := c.ImageSizes.Poster
	switch kind {
	case ImageBackdrop:
		size = c.ImageSizes.Backdrop
	case ImageProfile:
		size = c.ImageSizes.Profile
	}
	return c.ImageBaseURL + size + path
}

// GetPosterURL builds a poster URL.
func (c *TMDBClient) GetPosterURL(posterPath *string) string {
	return c.GetImageURL(posterPath, ImagePoster)
}

// GetBackdropURL builds a backdrop URL.
func (c *TMDBClient) GetBackdropURL(backdropPath *string) string {
	return c.GetImageURL(backdropPath, ImageBackdrop)
}

// GetProfileURL builds a cast/crew profile URL.
func (c *TMDBClient) GetProfileURL(profilePath *string) string {
	return c.GetImageURL(profilePath, ImageProfile)
}

func (c *TMDBClient) getMovieList(ctx context.Context, endpoint string, params MovieAPIParams, extra map[string]string) (*types.MovieList, error) {
	var list types.MovieList
	if err := c.get(ctx, endpoint, params, extra, &list); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	return &list, nil
}

// get issues a GET and decodes the JSON body into out.
func (c *TMDBClient) get(ctx context.Context, endpoint string, params MovieAPIParams, extra map[string]string, out any) error {
	resp, err := c.makeRequest(ctx, endpoint, params, extra)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// makeRequest assembles the URL and query parameters. api_key, language and
// page always go out; defaults are overridden by the caller and empty extra
// values are omitted.
func (c *TMDBClient) makeRequest(ctx context.Context, endpoint string, params MovieAPIParams, extra map[string]string) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	query := u.Query()
	query.Set("api_key", c.APIKey)

	language := params.Language
	if language == "" {
		language = c.DefaultLanguage
	}
	query.Set("language", language)

	page := params.Page
	if page <= 0 {
		page = 1
	}
	query.Set("page", strconv.Itoa(page))

	for key, value := range extra {
		if value == "" {
			continue
		}
		query.Set(key, value)
	}

	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}
