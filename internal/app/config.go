package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Input selection: a single article URL, or a feed URL for batch runs.
	URL     string
	FeedURL string
	// MaxFeedArticles bounds how many feed items a batch run analyzes.
	MaxFeedArticles int

	OutputPath    string
	OutputPDFPath string
	// JSONPath receives the raw analysis result. Empty disables the sidecar.
	JSONPath string

	// Analysis API
	APIBaseURL string
	UserAgent  string

	// Behavior
	RequestTimeout time.Duration
	MaxAttempts    int
	BypassCache    bool
	Verbose        bool

	// Caching
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	// RedisAddr switches the result cache from files to Redis when set.
	RedisAddr string
	RedisTTL  time.Duration
}
