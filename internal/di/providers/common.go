package providers

import "time"

const (
	// shutdownTimeout bounds graceful shutdown of a service and the initial
	// Redis connection attempt.
	shutdownTimeout = 30 * time.Second

	// sessionCleanupInterval is how often expired sessions are purged.
	sessionCleanupInterval = time.Hour
)
