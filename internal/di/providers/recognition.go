package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/metrics"
	"github.com/findshroom/findshroom-server/internal/recognition"
)

// RecognizerHandle wraps the configured recognizer and the optional Redis
// cache behind it.
type RecognizerHandle struct {
	recognition.Recognizer
	cache *recognition.RedisCache
}

// Shutdown implements do.Shutdownable.
func (h *RecognizerHandle) Shutdown() error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Close()
}

// ProvideRecognizer builds the recognition backend selected by configuration.
// A Redis cache is put in front when configured; if Redis is unreachable the
// server starts without it.
func ProvideRecognizer(i do.Injector) (*RecognizerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	var observer recognition.Observer
	if m != nil {
		observer = m
	}

	var backend recognition.Backend
	switch cfg.Recognition.Backend {
	case config.BackendGemini:
		gemini, err := recognition.NewGeminiBackend(recognition.GeminiConfig{
			APIKey:   cfg.Recognition.GeminiAPIKey,
			Model:    cfg.Recognition.GeminiModel,
			Endpoint: cfg.Recognition.GeminiEndpoint,
			Timeout:  cfg.Recognition.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini backend: %w", err)
		}
		backend = gemini
	default:
		backend = recognition.NewSpaceBackend(recognition.SpaceConfig{URL: cfg.Recognition.SpaceURL})
	}

	rlog := log.Component("recognition")
	var recognizer recognition.Recognizer = recognition.NewClient(backend, observer, rlog)

	handle := &RecognizerHandle{}
	if cfg.Cache.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		cache, err := recognition.NewRedisCache(ctx, recognition.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Warn("Recognition cache unavailable, continuing without it", "error", err)
		} else {
			handle.cache = cache
			recognizer = recognition.NewCachingRecognizer(recognizer, cache, cfg.Cache.TTL, observer, rlog)
			log.Info("Recognition cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		}
	}
	handle.Recognizer = recognizer

	log.Info("Recognition backend ready", "backend", backend.Name())
	return handle, nil
}
