package types

import "time"

// Result is a movie entity as the remote catalog returns it. Positive IDs
// come from TMDB; negative IDs mark locally authored entries; 0 is invalid.
type Result struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
}

// IsLocal reports whether the entry was authored by the user.
func (r Result) IsLocal() bool { return r.ID < 0 }

// ReleaseTime parses the ISO release date. Zero time when absent or malformed.
func (r Result) ReleaseTime() time.Time {
	t, err := time.Parse("2006-01-02", r.ReleaseDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Movie extends Result with the user's personal state and, for locally
// authored entries, optional extended metadata.
type Movie struct {
	Result

	IsFavorite      bool       `json:"isFavorite"`
	PersonalRating  *float64   `json:"personalRating"`
	PersonalNotes   string     `json:"personalNotes"`
	IsWatched       bool       `json:"isWatched"`
	WatchedDate     *time.Time `json:"watchedDate"`
	AddedToListDate time.Time  `json:"addedToListDate"`

	// Extended fields, meaningful for locally authored movies only.
	Runtime  *int        `json:"runtime,omitempty"`
	Budget   *int64      `json:"budget,omitempty"`
	Revenue  *int64      `json:"revenue,omitempty"`
	Tagline  *string     `json:"tagline,omitempty"`
	Homepage *string     `json:"homepage,omitempty"`
	Status   *string     `json:"status,omitempty"`
	Videos   []VideoClip `json:"videos,omitempty"`
}

// VideoClip is a video attachment (trailer, teaser, ...) hosted on YouTube.
type VideoClip struct {
	Name     string `json:"name"`
	Key      string `json:"key"` // 11-char YouTube video id
	Type     string `json:"type"`
	Site     string `json:"site"`
	Size     int    `json:"size"`
	Official bool   `json:"official"`
}

// Allowed video clip types.
const (
	VideoTypeTrailer         = "Trailer"
	VideoTypeClip            = "Clip"
	VideoTypeTeaser          = "Teaser"
	VideoTypeBehindTheScenes = "Behind the Scenes"
	VideoTypeFeaturette      = "Featurette"
)

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreResponse struct {
	Genres []Genre `json:"genres"`
}

// MovieList is the paginated list wrapper every TMDB list endpoint returns.
type MovieList struct {
	Page         int        `json:"page"`
	Results      []Result   `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Dates        *DateRange `json:"dates,omitempty"`
}

type DateRange struct {
	Minimum string `json:"minimum"`
	Maximum string `json:"maximum"`
}

// Stats summarizes the collection for the dashboard.
type Stats struct {
	Total             int     `json:"total"`
	Favorites         int     `json:"favorites"`
	Watched           int     `json:"watched"`
	Unwatched         int     `json:"unwatched"`
	AverageRating     float64 `json:"averageRating"`
	TotalCustomMovies int     `json:"totalCustomMovies"`
}

// Category is a browsable catalog section.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryNowPlaying Category = "now_playing"
	CategoryUpcoming   Category = "upcoming"
	CategoryCustom     Category = "custom"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPopular, CategoryTopRated, CategoryNowPlaying, CategoryUpcoming, CategoryCustom:
		return true
	}
	return false
}

// MovieUpdate is a partial update; nil fields are left untouched.
// addedToListDate is deliberately absent: it is immutable after creation.
type MovieUpdate struct {
	Title          *string      `json:"title,omitempty"`
	OriginalTitle  *string      `json:"original_title,omitempty"`
	Overview       *string      `json:"overview,omitempty"`
	ReleaseDate    *string      `json:"release_date,omitempty"`
	GenreIDs       *[]int       `json:"genre_ids,omitempty"`
	VoteAverage    *float64     `json:"vote_average,omitempty"`
	PosterPath     *string      `json:"poster_path,omitempty"`
	BackdropPath   *string      `json:"backdrop_path,omitempty"`
	IsFavorite     *bool        `json:"isFavorite,omitempty"`
	PersonalRating *float64     `json:"personalRating,omitempty"`
	PersonalNotes  *string      `json:"personalNotes,omitempty"`
	Runtime        *int         `json:"runtime,omitempty"`
	Budget         *int64       `json:"budget,omitempty"`
	Revenue        *int64       `json:"revenue,omitempty"`
	Tagline        *string      `json:"tagline,omitempty"`
	Homepage       *string      `json:"homepage,omitempty"`
	Status         *string      `json:"status,omitempty"`
	Videos         *[]VideoClip `json:"videos,omitempty"`
}

// ExportPayload is the shape emitted by the store's export operation.
type ExportPayload struct {
	Movies     []Movie   `json:"movies"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

// Request types for the REST surface.

type RateMovieRequest struct {
	Rating float64 `json:"rating"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type DeleteMultipleRequest struct {
	IDs []int64 `json:"ids"`
}

type ImportRequest struct {
	Data string `json:"data"`
}
