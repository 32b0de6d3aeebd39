package api

// API limits and constants.
const (
	// MaxUploadSize is the maximum allowed size for photo uploads (10 MB).
	MaxUploadSize = 10 << 20

	// DefaultLeaderboardLimit caps leaderboard responses when no limit is given.
	DefaultLeaderboardLimit = 50
)

// Cache-Control header values.
const (
	CachePhoto   = "private, max-age=604800, immutable"
	CacheNoStore = "no-cache"
)
