package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moviecatalog/internal/types"
)

// Slot keys. The layout is shared with earlier releases, so the names stay.
const (
	DataKey   = "movieApp_data"
	BackupKey = "movieApp_backup"
)

// backupVersion tags the backup wrapper; the primary slot itself is an
// unversioned movie array.
const backupVersion = "1.0"

var (
	// ErrNoData means the requested slot is empty.
	ErrNoData = errors.New("no persisted data")
	// ErrMalformed means the slot contents did not parse.
	ErrMalformed = errors.New("malformed persisted data")
)

// backupEnvelope wraps the primary payload when it is copied to the backup slot.
type backupEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
}

// Adapter converts the movie collection to and from the durable slots.
// All operations are best-effort: a failure is reported to the caller, which
// keeps its in-memory state and records the error instead of aborting.
type Adapter struct {
	kv KV
}

func NewAdapter(kv KV) *Adapter { return &Adapter{kv: kv} }

// Save serializes the full collection into the primary slot in one write.
func (a *Adapter) Save(ctx context.Context, movies []types.Movie) error {
	if movies == nil {
		movies = []types.Movie{}
	}
	data, err := json.Marshal(movies)
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}
	if err := a.kv.Set(ctx, DataKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}
	return nil
}

// Load reads the primary slot. An empty slot yields an empty collection and
// no error; a malformed payload yields an empty collection and ErrMalformed
// so the caller can surface a load-error signal without losing the session.
func (a *Adapter) Load(ctx context.Context) ([]types.Movie, error) {
	raw, ok := a.kv.Get(ctx, DataKey)
	if !ok || raw == "" {
		return []types.Movie{}, nil
	}
	movies, err := decodeMovies([]byte(raw))
	if err != nil {
		return []types.Movie{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return movies, nil
}

// Snapshot copies the current primary payload into the backup slot, wrapped
// with a timestamp and a version tag.
func (a *Adapter) Snapshot(ctx context.Context) error {
	raw, ok := a.kv.Get(ctx, DataKey)
	if !ok {
		return ErrNoData
	}
	env := backupEnvelope{
		Data:      json.RawMessage(raw),
		Timestamp: time.Now(),
		Version:   backupVersion,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize backup: %w", err)
	}
	if err := a.kv.Set(ctx, BackupKey, string(data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Restore reads the backup slot, writes its payload back to the primary slot
// and returns the restored collection.
func (a *Adapter) Restore(ctx context.Context) ([]types.Movie, error) {
	raw, ok := a.kv.Get(ctx, BackupKey)
	if !ok {
		return nil, ErrNoData
	}
	var env backupEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	movies, err := decodeMovies(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := a.kv.Set(ctx, DataKey, string(env.Data)); err != nil {
		return nil, fmt.Errorf("failed to restore primary slot: %w", err)
	}
	return movies, nil
}

// Clear removes the primary slot.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.kv.Delete(ctx, DataKey)
}

// decodeMovies parses a persisted movie array and repairs what it can:
// entries with a zero id are dropped, missing user-state fields keep their
// zero defaults, out-of-range ratings are discarded and watchedDate is
// reconciled with isWatched.
func decodeMovies(data []byte) ([]types.Movie, error) {
	var movies []types.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, err
	}
	out := make([]types.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID == 0 {
			continue
		}
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
	return out, nil
}
