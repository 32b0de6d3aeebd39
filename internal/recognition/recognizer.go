// Package recognition identifies mushrooms in photos through a remote model.
//
// Two backends are supported: the Generative Language API and a hosted
// inference Space. Both return free text which Normalize turns into
// Attributes. An optional Redis cache keyed by image hash sits in front.
package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/findshroom/findshroom-server/internal/metrics"
)

// Recognizer identifies the mushroom in an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*Result, error)
	Name() string
}

// Backend fetches raw recognition text from a remote model.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, image []byte) (string, error)
}

// Observer receives one observation per recognition call.
type Observer interface {
	ObserveRecognition(backend, outcome string, d time.Duration)
}

// Result is a normalized recognition outcome.
type Result struct {
	Attributes Attributes `json:"attributes"`
	Raw        string     `json:"raw"`
	// Degraded is set when the backend text was not parseable JSON.
	Degraded bool   `json:"degraded"`
	Backend  string `json:"backend"`
}

// Client runs a Backend and normalizes its output.
type Client struct {
	backend  Backend
	observer Observer
	logger   *slog.Logger
}

var _ Recognizer = (*Client)(nil)

// NewClient creates a Client. observer may be nil.
func NewClient(backend Backend, observer Observer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{backend: backend, observer: observer, logger: logger}
}

// Name returns the backend name.
func (c *Client) Name() string {
	return c.backend.Name()
}

// Recognize sends the image to the backend once. There is no retry.
func (c *Client) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	start := time.Now()
	raw, err := c.backend.Fetch(ctx, image)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(metrics.OutcomeError, elapsed)
		c.logger.Warn("recognition failed",
			"backend", c.backend.Name(),
			"duration", elapsed,
			"error", err,
		)
		return nil, fmt.Errorf("%s: %w", c.backend.Name(), err)
	}

	attrs, ok := Normalize(raw)
	outcome := metrics.OutcomeOK
	if !ok {
		outcome = metrics.OutcomeDegraded
		c.logger.Info("recognition returned unparseable text",
			"backend", c.backend.Name(),
			"length", len(raw),
		)
	}
	c.observe(outcome, elapsed)

	return &Result{
		Attributes: attrs,
		Raw:        raw,
		Degraded:   !ok,
		Backend:    c.backend.Name(),
	}, nil
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRecognition(c.backend.Name(), outcome, d)
	}
}
