package config

import (
	"os"
	"strconv"
	"time"
)

// ImageSizes maps an image kind to the TMDB size segment of its URL.
type ImageSizes struct {
	Poster   string
	Backdrop string
	Profile  string
}

// Config holds runtime configuration loaded from env.
type Config struct {
	Port         string
	DatabasePath string

	// Optional remote KV backend; sqlite is used when unset.
	ValkeyAddr     string
	ValkeyPassword string

	TMDBAPIKey      string
	TMDBAPIURL      string
	DefaultLanguage string
	ImageBaseURL    string
	ImageSizes      ImageSizes

	// Transport behavior.
	HTTPRetries int

	// Background catalog refresh; disabled when <= 0.
	RefreshInterval time.Duration

	Env string
}

func FromEnv() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "./moviecatalog.db"),
		ValkeyAddr:      os.Getenv("VALKEY_ADDR"),
		ValkeyPassword:  os.Getenv("VALKEY_PASSWORD"),
		TMDBAPIKey:      os.Getenv("TMDB_API_KEY"),
		TMDBAPIURL:      getEnv("TMDB_API_URL", "https://api.themoviedb.org/3"),
		DefaultLanguage: getEnv("TMDB_LANGUAGE", "en-US"),
		ImageBaseURL:    getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/"),
		ImageSizes: ImageSizes{
			Poster:   getEnv("TMDB_POSTER_SIZE", "w500"),
			Backdrop: getEnv("TMDB_BACKDROP_SIZE", "w1280"),
			Profile:  getEnv("TMDB_PROFILE_SIZE", "w185"),
		},
		HTTPRetries:     getEnvInt("HTTP_RETRIES", 2),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 24*time.Hour),
		Env:             getEnv("ENV", "development"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
