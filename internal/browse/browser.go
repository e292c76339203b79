// Package browse drives paginated catalog fetching: category switching, free
// text search, viewport-triggered incremental loading and the display-side
// toggle filters. Results are folded into the movie store, which owns the
// merge semantics.
package browse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"moviecatalog/internal/notify"
	"moviecatalog/internal/services"
	"moviecatalog/internal/store"
	"moviecatalog/internal/types"
)

// CatalogClient is the slice of the TMDB client the browser needs.
type CatalogClient interface {
	ListByCategory(ctx context.Context, category types.Category, params services.MovieAPIParams) (*types.MovieList, error)
	SearchMovies(ctx context.Context, query string, params services.MovieAPIParams) (*types.MovieList, error)
}

// CardEvent is a movie-card interaction forwarded by the UI.
type CardEvent struct {
	Type    string `json:"type"`
	MovieID int64  `json:"movieId"`
}

// Card event types.
const (
	CardFavoriteToggle = "favoriteToggle"
	CardWatchedToggle  = "watchedToggle"
	CardViewDetails    = "viewDetails"
)

type Browser struct {
	api      CatalogClient
	store    *store.MovieStore
	notifier notify.Notifier

	mu                sync.Mutex
	category          types.Category
	searchTerm        string
	page              int
	totalPages        int
	showOnlyFavorites bool
	showOnlyWatched   bool
	loading           bool
	displayed         []types.Movie

	// fetchGen invalidates responses that settle after the state they were
	// issued under has changed; a stale response must not mutate anything.
	fetchGen uint64
}

func NewBrowser(api CatalogClient, st *store.MovieStore, notifier notify.Notifier) *Browser {
	return &Browser{
		api:        api,
		store:      st,
		notifier:   notifier,
		category:   types.CategoryPopular,
		page:       1,
		totalPages: 1,
	}
}

// State accessors.

func (b *Browser) Category() types.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.category
}

func (b *Browser) SearchTerm() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searchTerm
}

func (b *Browser) Page() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

func (b *Browser) TotalPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalPages
}

func (b *Browser) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// HasMorePages reports whether another page can be fetched.
func (b *Browser) HasMorePages() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page < b.totalPages
}

// Displayed returns the current display list (toggles applied, locals first).
func (b *Browser) Displayed() []types.Movie {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Movie, len(b.displayed))
	copy(out, b.displayed)
	return out
}

// SetCategory switches the browsed section and reloads from page 1. The
// search term is cleared; local entries survive because the store never
// drops them on a remote merge.
func (b *Browser) SetCategory(ctx context.Context, category types.Category) error {
	if !category.IsValid() {
		b.notifier.Warning("Browse", fmt.Sprintf("unknown category %q", category))
		return fmt.Errorf("unknown category %q", category)
	}
	b.mu.Lock()
	b.category = category
	b.searchTerm = ""
	b.resetLocked(ctx)
	b.mu.Unlock()
	return b.Fetch(ctx)
}

// Search resets pagination, clears the remote portion and fetches results
// for the trimmed term. An empty term falls back to the category listing.
func (b *Browser) Search(ctx context.Context, term string) error {
	b.mu.Lock()
	b.searchTerm = strings.TrimSpace(term)
	b.resetLocked(ctx)
	b.mu.Unlock()
	return b.Fetch(ctx)
}

// ResetFilters clears the search term and both display toggles, then reloads.
func (b *Browser) ResetFilters(ctx context.Context) error {
	b.mu.Lock()
	b.searchTerm = ""
	b.showOnlyFavorites = false
	b.showOnlyWatched = false
	b.resetLocked(ctx)
	b.mu.Unlock()
	return b.Fetch(ctx)
}

// resetLocked rewinds pagination and clears the remote portion. Callers hold b.mu.
func (b *Browser) resetLocked(ctx context.Context) {
	b.page = 1
	b.totalPages = 1
	b.loading = false
	b.fetchGen++
	b.store.SetMovies(ctx, nil)
	b.displayed = nil
}

// Fetch loads the current page for the current (category, searchTerm) pair.
// The pair and page are captured at entry; a response that settles after the
// pair has changed is discarded without touching any state.
func (b *Browser) Fetch(ctx context.Context) error {
	b.mu.Lock()
	if b.category == types.CategoryCustom {
		b.displayed = b.applyTogglesLocked(b.store.CustomMovies())
		b.totalPages = 1
		b.loading = false
		b.mu.Unlock()
		return nil
	}

	category := b.category
	term := b.searchTerm
	page := b.page
	b.fetchGen++
	gen := b.fetchGen
	b.loading = true
	b.mu.Unlock()

	resp, err := b.request(ctx, category, term, page)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.fetchGen || category != b.category || term != b.searchTerm {
		// Stale: a later interaction superseded this request. The loading
		// counter already settled inside the transport.
		return nil
	}
	b.loading = false

	if err != nil {
		b.notifier.Error("Error", "movies could not be loaded")
		return err
	}

	b.mergeLocked(ctx, resp.Results)
	b.totalPages = resp.TotalPages
	if b.totalPages < 1 {
		b.totalPages = 1
	}
	return nil
}

// LoadNextPage advances to the next page, guarded against overlapping loads
// and against running past the last page.
func (b *Browser) LoadNextPage(ctx context.Context) error {
	b.mu.Lock()
	if b.loading || b.page >= b.totalPages {
		b.mu.Unlock()
		return nil
	}
	b.page++
	b.mu.Unlock()
	return b.Fetch(ctx)
}

// Refresh re-fetches page 1 of the current pair and merges it without
// rewinding pagination. Used by the background refresh scheduler.
func (b *Browser) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.category == types.CategoryCustom {
		b.displayed = b.applyTogglesLocked(b.store.CustomMovies())
		b.mu.Unlock()
		return nil
	}
	category := b.category
	term := b.searchTerm
	gen := b.fetchGen
	b.mu.Unlock()

	resp, err := b.request(ctx, category, term, 1)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.fetchGen || category != b.category || term != b.searchTerm {
		return nil
	}
	b.mergeLocked(ctx, resp.Results)
	return nil
}

// ToggleFavoritesFilter flips the favorites-only display toggle.
func (b *Browser) ToggleFavoritesFilter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showOnlyFavorites = !b.showOnlyFavorites
	b.displayed = b.applyTogglesLocked(b.store.Movies())
}

// ToggleWatchedFilter flips the watched-only display toggle.
func (b *Browser) ToggleWatchedFilter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.showOnlyWatched = !b.showOnlyWatched
	b.displayed = b.applyTogglesLocked(b.store.Movies())
}

// HandleCard dispatches a movie-card interaction.
func (b *Browser) HandleCard(ctx context.Context, event CardEvent) {
	switch event.Type {
	case CardFavoriteToggle:
		b.store.ToggleFavorite(ctx, event.MovieID)
		b.RefreshDisplayed()
	case CardWatchedToggle:
		b.store.ToggleWatched(ctx, event.MovieID)
		b.RefreshDisplayed()
	case CardViewDetails:
		b.notifier.Info("Details", fmt.Sprintf("view details of movie %d", event.MovieID))
	}
}

// RefreshDisplayed recomputes the display list from the store.
func (b *Browser) RefreshDisplayed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displayed = b.applyTogglesLocked(b.store.Movies())
}

// request picks the search endpoint when a term is set, otherwise the
// category listing.
func (b *Browser) request(ctx context.Context, category types.Category, term string, page int) (*types.MovieList, error) {
	params := services.MovieAPIParams{Page: page}
	if term != "" {
		return b.api.SearchMovies(ctx, term, params)
	}
	return b.api.ListByCategory(ctx, category, params)
}

// mergeLocked dedupes the page against the known remote portion and folds it
// into the store, then recomputes the display list. Callers hold b.mu.
func (b *Browser) mergeLocked(ctx context.Context, results []types.Result) {
	prevRemote := b.store.TMDBMovies()
	prevIDs := make(map[int64]bool, len(prevRemote))
	combined := make([]types.Result, 0, len(prevRemote)+len(results))
	for _, m := range prevRemote {
		prevIDs[m.ID] = true
		combined = append(combined, m.Result)
	}
	for _, r := range results {
		if !prevIDs[r.ID] {
			combined = append(combined, r)
		}
	}

	b.store.SetMovies(ctx, combined)
	b.displayed = b.applyTogglesLocked(b.store.Movies())
}

// applyTogglesLocked filters conjunctively by the display toggles, then
// stably orders locally authored entries before remote ones.
func (b *Browser) applyTogglesLocked(movies []types.Movie) []types.Movie {
	list := movies
	if b.showOnlyFavorites {
		list = filterMovies(list, func(m types.Movie) bool { return m.IsFavorite })
	}
	if b.showOnlyWatched {
		list = filterMovies(list, func(m types.Movie) bool { return m.IsWatched })
	}

	out := make([]types.Movie, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < 0 && out[j].ID >= 0
	})
	return out
}

func filterMovies(in []types.Movie, keep func(types.Movie) bool) []types.Movie {
	out := make([]types.Movie, 0, len(in))
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
