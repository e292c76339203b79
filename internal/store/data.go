package store

import (
	"context"
	"encoding/json"
	"time"

	"moviecatalog/internal/types"
)

// exportVersion tags exported payloads.
const exportVersion = "1.0"

// ExportData emits the collection as a pretty-printed JSON blob wrapped with
// an export date and a version tag.
func (s *MovieStore) ExportData() (string, error) {
	s.mu.RLock()
	payload := types.ExportPayload{
		Movies:     copyMovies(s.movies),
		ExportDate: time.Now(),
		Version:    exportVersion,
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportData replaces the collection with the movies of an exported payload.
// Anything that is not an object with a movies array is rejected.
func (s *MovieStore) ImportData(ctx context.Context, data string) bool {
	var payload types.ExportPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil || payload.Movies == nil {
		s.notifier.Error("Import", "invalid import format: expected an object with a movies array")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.movies = sanitizeImported(payload.Movies)
	s.persistLocked(ctx)
	s.broadcastLocked()
	s.notifier.Success("Import", "collection imported")
	return true
}

// CreateBackup copies the primary persistence slot into the backup slot.
func (s *MovieStore) CreateBackup(ctx context.Context) bool {
	if err := s.adapter.Snapshot(ctx); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.notifier.Error("Backup", "backup failed")
		return false
	}
	s.notifier.Success("Backup", "backup created")
	return true
}

// RestoreFromBackup replaces the collection with the backup contents.
func (s *MovieStore) RestoreFromBackup(ctx context.Context) bool {
	movies, err := s.adapter.Restore(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.notifier.Error("Backup", "restore failed")
		return false
	}

	s.mu.Lock()
	s.movies = movies
	s.broadcastLocked()
	s.mu.Unlock()
	s.notifier.Success("Backup", "backup restored")
	return true
}

// sanitizeImported enforces the collection invariants on foreign data:
// entries with id 0 or a repeated id are dropped, out-of-range ratings are
// discarded and watchedDate is reconciled with isWatched.
func sanitizeImported(movies []types.Movie) []types.Movie {
	out := make([]types.Movie, 0, len(movies))
	seen := make(map[int64]bool, len(movies))
	for _, m := range movies {
		if m.ID == 0 || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if m.PersonalRating != nil && (*m.PersonalRating < 0 || *m.PersonalRating > 10) {
			m.PersonalRating = nil
		}
		if !m.IsWatched {
			m.WatchedDate = nil
		} else if m.WatchedDate == nil {
			d := m.AddedToListDate
			m.WatchedDate = &d
		}
		out = append(out, m)
	}
	return out
}
