package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviecatalog/internal/notify"
	"moviecatalog/internal/persist"
	"moviecatalog/internal/types"
)

func newTestStore(t *testing.T) (*MovieStore, *notify.Recorder) {
	t.Helper()
	rec := notify.NewRecorder()
	adapter := persist.NewAdapter(persist.NewMemory())
	return New(context.Background(), adapter, rec), rec
}

func remoteResult(id int64, title string) types.Result {
	return types.Result{ID: id, Title: title, VoteAverage: 7.2, ReleaseDate: "2024-03-01"}
}

func ratingPtr(v float64) *float64 { return &v }

func TestSetMoviesPreservesUserState(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.SetMovies(ctx, []types.Result{remoteResult(100, "Dune")})

	require.True(t, s.ToggleFavorite(ctx, 100))
	require.True(t, s.UpdateRating(ctx, 100, 9))
	before, ok := s.GetMovieByID(100)
	require.True(t, ok)
	added := before.AddedToListDate

	// Refresh with updated remote fields for the same id.
	refreshed := remoteResult(100, "Dune: Part One")
	refreshed.VoteAverage = 8.1
	s.SetMovies(ctx, []types.Result{refreshed})

	got, ok := s.GetMovieByID(100)
	require.True(t, ok)
	assert.Equal(t, "Dune: Part One", got.Title)
	assert.Equal(t, 8.1, got.VoteAverage)
	assert.True(t, got.IsFavorite)
	require.NotNil(t, got.PersonalRating)
	assert.Equal(t, 9.0, *got.PersonalRating)
	assert.Equal(t, added, got.AddedToListDate)
}

func TestSetMoviesRetainsLocalEntries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	local, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Home Movie"}})
	require.True(t, ok)
	require.Negative(t, local.ID)

	s.SetMovies(ctx, []types.Result{remoteResult(1, "A"), remoteResult(2, "B")})

	movies := s.Movies()
	require.Len(t, movies, 3)
	// Remote set first, locals retained after it.
	assert.Equal(t, int64(1), movies[0].ID)
	assert.Equal(t, int64(2), movies[1].ID)
	assert.Equal(t, local.ID, movies[2].ID)

	// A second refresh that drops one remote id removes it but keeps the local.
	s.SetMovies(ctx, []types.Result{remoteResult(2, "B")})
	movies = s.Movies()
	require.Len(t, movies, 2)
	assert.Equal(t, int64(2), movies[0].ID)
	assert.Equal(t, local.ID, movies[1].ID)
}

func TestSetMoviesSkipsInvalidAndDuplicateIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.SetMovies(ctx, []types.Result{
		remoteResult(0, "invalid"),
		remoteResult(5, "first"),
		remoteResult(5, "dupe"),
	})

	movies := s.Movies()
	require.Len(t, movies, 1)
	assert.Equal(t, "first", movies[0].Title)
}

func TestCreateMovieMintsLocalID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	m, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Short Film"}})
	require.True(t, ok)
	assert.Negative(t, m.ID)
	assert.False(t, m.AddedToListDate.IsZero())

	// New entries are prepended.
	m2, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Second"}})
	require.True(t, ok)
	movies := s.Movies()
	require.Len(t, movies, 2)
	assert.Equal(t, m2.ID, movies[0].ID)
}

func TestCreateMovieRejectsDuplicateID(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	_, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{ID: -42, Title: "First"}})
	require.True(t, ok)

	_, ok = s.CreateMovie(ctx, types.Movie{Result: types.Result{ID: -42, Title: "Clone"}})
	assert.False(t, ok)
	_, warned := rec.Last(notify.KindWarning)
	assert.True(t, warned)
	assert.Len(t, s.Movies(), 1)
}

func TestGenerateUniqueIDMintsDistinctNegativeIDs(t *testing.T) {
	s, _ := newTestStore(t)

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		id := s.GenerateUniqueID()
		assert.Negative(t, id)
		assert.False(t, seen[id], "id %d minted twice", id)
		seen[id] = true
	}
}

func TestUpdateMovieKeepsAddedToListDate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Original"}})
	require.True(t, ok)

	title := "Renamed"
	updated, ok := s.UpdateMovie(ctx, created.ID, types.MovieUpdate{Title: &title})
	require.True(t, ok)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, created.AddedToListDate, updated.AddedToListDate)
}

func TestUpdateMovieRejectsOutOfRangeRating(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Film"}})
	require.True(t, ok)

	_, ok = s.UpdateMovie(ctx, created.ID, types.MovieUpdate{PersonalRating: ratingPtr(11)})
	assert.False(t, ok)
	got, _ := s.GetMovieByID(created.ID)
	assert.Nil(t, got.PersonalRating)
}

func TestToggleWatchedStampsAndClearsDate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(7, "Heat")})

	require.True(t, s.ToggleWatched(ctx, 7))
	got, _ := s.GetMovieByID(7)
	assert.True(t, got.IsWatched)
	require.NotNil(t, got.WatchedDate)
	assert.WithinDuration(t, time.Now(), *got.WatchedDate, time.Minute)

	require.True(t, s.ToggleWatched(ctx, 7))
	got, _ = s.GetMovieByID(7)
	assert.False(t, got.IsWatched)
	assert.Nil(t, got.WatchedDate)
}

func TestToggleFavoriteFlipsFlag(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(7, "Heat")})

	require.True(t, s.ToggleFavorite(ctx, 7))
	got, _ := s.GetMovieByID(7)
	assert.True(t, got.IsFavorite)

	require.True(t, s.ToggleFavorite(ctx, 7))
	got, _ = s.GetMovieByID(7)
	assert.False(t, got.IsFavorite)

	assert.False(t, s.ToggleFavorite(ctx, 999))
}

func TestUpdateRatingValidatesRange(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(3, "Alien")})

	assert.True(t, s.UpdateRating(ctx, 3, 8.5))
	got, _ := s.GetMovieByID(3)
	require.NotNil(t, got.PersonalRating)
	assert.Equal(t, 8.5, *got.PersonalRating)

	assert.False(t, s.UpdateRating(ctx, 3, -1))
	assert.False(t, s.UpdateRating(ctx, 3, 10.5))
	got, _ = s.GetMovieByID(3)
	assert.Equal(t, 8.5, *got.PersonalRating)
	_, warned := rec.Last(notify.KindWarning)
	assert.True(t, warned)
}

func TestUpdateNotesTrims(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(3, "Alien")})

	require.True(t, s.UpdateNotes(ctx, 3, "  scary  "))
	got, _ := s.GetMovieByID(3)
	assert.Equal(t, "scary", got.PersonalNotes)
}

func TestDeleteMultiple(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(1, "A"), remoteResult(2, "B"), remoteResult(3, "C")})

	assert.True(t, s.DeleteMultiple(ctx, []int64{1, 3, 99}))
	movies := s.Movies()
	require.Len(t, movies, 1)
	assert.Equal(t, int64(2), movies[0].ID)

	// Fails only when nothing matched.
	assert.False(t, s.DeleteMultiple(ctx, []int64{77, 88}))
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(1, "A"), remoteResult(2, "B"), remoteResult(3, "C")})
	_, ok := s.CreateMovie(ctx, types.Movie{Result: types.Result{Title: "Mine"}})
	require.True(t, ok)

	s.ToggleFavorite(ctx, 1)
	s.ToggleWatched(ctx, 1)
	s.UpdateRating(ctx, 1, 8)
	s.ToggleWatched(ctx, 2)
	s.UpdateRating(ctx, 2, 6)
	// Rated but not watched: excluded from the average.
	s.UpdateRating(ctx, 3, 10)

	st := s.Stats()
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Favorites)
	assert.Equal(t, 2, st.Watched)
	assert.Equal(t, 2, st.Unwatched)
	assert.Equal(t, 1, st.TotalCustomMovies)
	assert.Equal(t, 7.0, st.AverageRating)
}

func TestStatsEmptyAverageIsZero(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Zero(t, s.Stats().AverageRating)
}

func TestClearAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.SetMovies(ctx, []types.Result{remoteResult(1, "A")})

	s.ClearAll(ctx)
	assert.Empty(t, s.Movies())
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := persist.NewMemory()
	adapter := persist.NewAdapter(kv)

	s := New(ctx, adapter, notify.NewRecorder())
	s.SetMovies(ctx, []types.Result{remoteResult(10, "Persisted")})
	require.True(t, s.ToggleFavorite(ctx, 10))

	// A fresh store over the same slot sees the same collection.
	s2 := New(ctx, adapter, notify.NewRecorder())
	got, ok := s2.GetMovieByID(10)
	require.True(t, ok)
	assert.Equal(t, "Persisted", got.Title)
	assert.True(t, got.IsFavorite)
	assert.NoError(t, s2.Err())
}

func TestMalformedPersistedDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := persist.NewMemory()
	require.NoError(t, kv.Set(ctx, persist.DataKey, "{not json"))

	rec := notify.NewRecorder()
	s := New(ctx, persist.NewAdapter(kv), rec)
	assert.Empty(t, s.Movies())
	assert.Error(t, s.Err())
	_, warned := rec.Last(notify.KindWarning)
	assert.True(t, warned)
}

func TestSubscribeTicksOnChange(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetMovies(ctx, []types.Result{remoteResult(1, "A")})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change tick")
	}
}
