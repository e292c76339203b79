// Package store is the single source of truth for the movie collection. It
// merges remote catalog pages with locally curated state, keeps the
// collection invariants, persists every successful mutation and publishes
// change notifications to subscribers.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"moviecatalog/internal/notify"
	"moviecatalog/internal/persist"
	"moviecatalog/internal/types"
)

type MovieStore struct {
	mu       sync.RWMutex
	movies   []types.Movie
	adapter  *persist.Adapter
	notifier notify.Notifier

	lastErr error

	subs    map[int]chan struct{}
	nextSub int

	// lowest id handed out by GenerateUniqueID, so rapid calls within the
	// same millisecond still mint distinct ids
	lastID int64
}

// New builds a store backed by the given adapter and loads the persisted
// collection. A malformed payload starts the session empty and records the
// load error; it never fails construction.
func New(ctx context.Context, adapter *persist.Adapter, notifier notify.Notifier) *MovieStore {
	s := &MovieStore{
		adapter:  adapter,
		notifier: notifier,
		subs:     make(map[int]chan struct{}),
	}
	movies, err := adapter.Load(ctx)
	s.movies = movies
	if err != nil {
		s.lastErr = err
		notifier.Warning("Storage", "stored data could not be read; starting with an empty collection")
	}
	return s
}

// Err returns the most recent persistence error, if any.
func (s *MovieStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe returns a channel that receives a tick after every collection
// change. The cancel func detaches the subscriber.
func (s *MovieStore) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Views. Each returns a copy computed from a consistent snapshot.

func (s *MovieStore) Movies() []types.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMovies(s.movies)
}

func (s *MovieStore) Favorites() []types.Movie {
	return s.filter(func(m types.Movie) bool { return m.IsFavorite })
}

func (s *MovieStore) Watched() []types.Movie {
	return s.filter(func(m types.Movie) bool { return m.IsWatched })
}

func (s *MovieStore) Unwatched() []types.Movie {
	return s.filter(func(m types.Movie) bool { return !m.IsWatched })
}

// CustomMovies returns the locally authored entries (negative ids).
func (s *MovieStore) CustomMovies() []types.Movie {
	return s.filter(func(m types.Movie) bool { return m.ID < 0 })
}

// TMDBMovies returns the remote-originated entries (positive ids).
func (s *MovieStore) TMDBMovies() []types.Movie {
	return s.filter(func(m types.Movie) bool { return m.ID > 0 })
}

// GetMovieByID looks up a single entry.
func (s *MovieStore) GetMovieByID(id int64) (types.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.movies[i], true
	}
	return types.Movie{}, false
}

// Stats summarizes the collection. averageRating is the mean personal rating
// over entries that are watched and rated; 0 when that set is empty.
func (s *MovieStore) Stats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{Total: len(s.movies)}
	var ratingSum float64
	var rated int
	for _, m := range s.movies {
		if m.IsFavorite {
			st.Favorites++
		}
		if m.IsWatched {
			st.Watched++
		} else {
			st.Unwatched++
		}
		if m.ID < 0 {
			st.TotalCustomMovies++
		}
		if m.IsWatched && m.PersonalRating != nil {
			ratingSum += *m.PersonalRating
			rated++
		}
	}
	if rated > 0 {
		st.AverageRating = ratingSum / float64(rated)
	}
	return st
}

// SetMovies folds a freshly fetched remote page into the collection.
// Previously known ids keep their user state verbatim (including
// addedToListDate) while their remote fields are refreshed; unknown ids get
// defaulted user state; locally authored entries not present in results are
// retained after the merged remote set.
func (s *MovieStore) SetMovies(ctx context.Context, results []types.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[int64]types.Movie, len(s.movies))
	for _, m := range s.movies {
		existing[m.ID] = m
	}

	merged := make([]types.Movie, 0, len(results))
	seen := make(map[int64]bool, len(results))
	for _, r := range results {
		if r.ID == 0 || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if prev, ok := existing[r.ID]; ok {
			merged = append(merged, refreshRemote(prev, r))
		} else {
			merged = append(merged, newMovieFromResult(r))
		}
	}

	// Locals survive every remote refresh, in their prior relative order.
	for _, m := range s.movies {
		if m.ID < 0 && !seen[m.ID] {
			merged = append(merged, m)
			seen[m.ID] = true
		}
	}

	s.movies = merged
	s.persistLocked(ctx)
	s.broadcastLocked()
}

// CreateMovie adds a new entry and returns it. An id of 0 gets a freshly
// minted local id; a duplicate id is rejected with a warning. The new entry
// is prepended.
func (s *MovieStore) CreateMovie(ctx context.Context, m types.Movie) (types.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = s.generateUniqueIDLocked()
	}
	if s.indexOf(m.ID) >= 0 {
		s.notifier.Warning("Create", fmt.Sprintf("a movie with id %d already exists", m.ID))
		return types.Movie{}, false
	}
	if m.PersonalRating != nil && (*m.PersonalRating < 0 || *m.PersonalRating > 10) {
		s.notifier.Warning("Create", "rating must be between 0 and 10")
		return types.Movie{}, false
	}
	if m.AddedToListDate.IsZero() {
		m.AddedToListDate = time.Now()
	}
	m.PersonalNotes = strings.TrimSpace(m.PersonalNotes)
	if m.IsWatched {
		if m.WatchedDate == nil {
			now := time.Now()
			m.WatchedDate = &now
		}
	} else {
		m.WatchedDate = nil
	}

	s.movies = append([]types.Movie{m}, s.movies...)
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Create", fmt.Sprintf("%q added", m.Title))
	return m, true
}

// UpdateMovie applies a partial update and returns the updated entry.
// addedToListDate is never editable.
func (s *MovieStore) UpdateMovie(ctx context.Context, id int64, patch types.MovieUpdate) (types.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Update", fmt.Sprintf("movie %d not found", id))
		return types.Movie{}, false
	}
	if patch.PersonalRating != nil && (*patch.PersonalRating < 0 || *patch.PersonalRating > 10) {
		s.notifier.Warning("Update", "rating must be between 0 and 10")
		return types.Movie{}, false
	}

	m := s.movies[i]
	applyUpdate(&m, patch)
	m.AddedToListDate = s.movies[i].AddedToListDate
	s.movies[i] = m

	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Update", fmt.Sprintf("%q updated", m.Title))
	return m, true
}

// DeleteMovie removes a single entry.
func (s *MovieStore) DeleteMovie(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Delete", fmt.Sprintf("movie %d not found", id))
		return false
	}
	title := s.movies[i].Title
	s.movies = append(s.movies[:i], s.movies[i+1:]...)
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Delete", fmt.Sprintf("%q removed", title))
	return true
}

// DeleteMultiple removes every listed id. It fails only when none matched.
func (s *MovieStore) DeleteMultiple(ctx context.Context, ids []int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.movies[:0:0]
	removed := 0
	for _, m := range s.movies {
		if drop[m.ID] {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	if removed == 0 {
		s.notifier.Error("Delete", "no matching movies found")
		return false
	}
	s.movies = kept
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Delete", fmt.Sprintf("%d movies removed", removed))
	return true
}

// ToggleFavorite flips the favorite flag.
func (s *MovieStore) ToggleFavorite(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Favorites", fmt.Sprintf("movie %d not found", id))
		return false
	}
	m := &s.movies[i]
	m.IsFavorite = !m.IsFavorite
	msg := fmt.Sprintf("%q removed from favorites", m.Title)
	if m.IsFavorite {
		msg = fmt.Sprintf("%q added to favorites", m.Title)
	}
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Favorites", msg)
	return true
}

// ToggleWatched flips the watched flag; watching stamps watchedDate with the
// current time, un-watching clears it.
func (s *MovieStore) ToggleWatched(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Watched", fmt.Sprintf("movie %d not found", id))
		return false
	}
	m := &s.movies[i]
	if m.IsWatched {
		m.IsWatched = false
		m.WatchedDate = nil
		s.notifier.Success("Watched", fmt.Sprintf("%q marked as unwatched", m.Title))
	} else {
		now := time.Now()
		m.IsWatched = true
		m.WatchedDate = &now
		s.notifier.Success("Watched", fmt.Sprintf("%q marked as watched", m.Title))
	}
	s.persistLocked(ctx)
	s.broadcastLocked()
	return true
}

// UpdateRating sets the personal rating. Out-of-range values are rejected
// without mutating.
func (s *MovieStore) UpdateRating(ctx context.Context, id int64, rating float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rating < 0 || rating > 10 {
		s.notifier.Warning("Rating", "rating must be between 0 and 10")
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Rating", fmt.Sprintf("movie %d not found", id))
		return false
	}
	m := &s.movies[i]
	m.PersonalRating = &rating
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Rating", fmt.Sprintf("%q: %g/10", m.Title, rating))
	return true
}

// UpdateNotes stores the trimmed note text.
func (s *MovieStore) UpdateNotes(ctx context.Context, id int64, notes string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.notifier.Error("Notes", fmt.Sprintf("movie %d not found", id))
		return false
	}
	s.movies[i].PersonalNotes = strings.TrimSpace(notes)
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Notes", "notes saved")
	return true
}

// ClearAll empties the collection and the primary persistence slot.
func (s *MovieStore) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.movies = []types.Movie{}
	if err := s.adapter.Clear(ctx); err != nil {
		s.lastErr = err
	}
	s.broadcastLocked()
	s.notifier.Success("Cleanup", "all data removed")
}

// GenerateUniqueID mints a fresh negative id for a locally authored movie.
func (s *MovieStore) GenerateUniqueID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateUniqueIDLocked()
}

func (s *MovieStore) generateUniqueIDLocked() int64 {
	id := -time.Now().UnixMilli()
	if s.lastID != 0 && id >= s.lastID {
		id = s.lastID - 1
	}
	for s.indexOf(id) >= 0 {
		id--
	}
	s.lastID = id
	return id
}

// internals; callers hold s.mu

func (s *MovieStore) indexOf(id int64) int {
	for i := range s.movies {
		if s.movies[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MovieStore) persistLocked(ctx context.Context) {
	if err := s.adapter.Save(ctx, s.movies); err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
	}
}

func (s *MovieStore) broadcastLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *MovieStore) filter(keep func(types.Movie) bool) []types.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Movie, 0)
	for _, m := range s.movies {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func copyMovies(in []types.Movie) []types.Movie {
	out := make([]types.Movie, len(in))
	copy(out, in)
	return out
}

func newMovieFromResult(r types.Result) types.Movie {
	return types.Movie{
		Result:          r,
		IsFavorite:      false,
		PersonalRating:  nil,
		PersonalNotes:   "",
		IsWatched:       false,
		WatchedDate:     nil,
		AddedToListDate: time.Now(),
	}
}

// refreshRemote takes the remote fields from r and re-applies the preserved
// user state from prev.
func refreshRemote(prev types.Movie, r types.Result) types.Movie {
	m := prev
	m.Result = r
	return m
}

func applyUpdate(m *types.Movie, p types.MovieUpdate) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.OriginalTitle != nil {
		m.OriginalTitle = *p.OriginalTitle
	}
	if p.Overview != nil {
		m.Overview = *p.Overview
	}
	if p.ReleaseDate != nil {
		m.ReleaseDate = *p.ReleaseDate
	}
	if p.GenreIDs != nil {
		m.GenreIDs = *p.GenreIDs
	}
	if p.VoteAverage != nil {
		m.VoteAverage = *p.VoteAverage
	}
	if p.PosterPath != nil {
		m.PosterPath = p.PosterPath
	}
	if p.BackdropPath != nil {
		m.BackdropPath = p.BackdropPath
	}
	if p.IsFavorite != nil {
		m.IsFavorite = *p.IsFavorite
	}
	if p.PersonalRating != nil {
		m.PersonalRating = p.PersonalRating
	}
	if p.PersonalNotes != nil {
		m.PersonalNotes = strings.TrimSpace(*p.PersonalNotes)
	}
	if p.Runtime != nil {
		m.Runtime = p.Runtime
	}
	if p.Budget != nil {
		m.Budget = p.Budget
	}
	if p.Revenue != nil {
		m.Revenue = p.Revenue
	}
	if p.Tagline != nil {
		m.Tagline = p.Tagline
	}
	if p.Homepage != nil {
		m.Homepage = p.Homepage
	}
	if p.Status != nil {
		m.Status = p.Status
	}
	if p.Videos != nil {
		m.Videos = *p.Videos
	}
}
