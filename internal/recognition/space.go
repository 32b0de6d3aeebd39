package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/media/images"
)

// DefaultSpaceURL is the hosted inference endpoint.
const DefaultSpaceURL = "https://stardust2811-findshroomapi.hf.space/predict"

// SpacePhaseTimeout bounds each phase of a Space exchange: connecting,
// every write of the upload, waiting for response headers and every read of
// the body. It is fixed and not configurable.
const SpacePhaseTimeout = 60 * time.Second

// SpaceConfig configures SpaceBackend.
type SpaceConfig struct {
	URL string
}

// SpaceBackend uploads a JPEG to an inference Space and returns its reply.
type SpaceBackend struct {
	url    string
	client *http.Client
}

// NewSpaceBackend creates a Space backend.
func NewSpaceBackend(cfg SpaceConfig) *SpaceBackend {
	return newSpaceBackend(cfg, SpacePhaseTimeout)
}

func newSpaceBackend(cfg SpaceConfig, phase time.Duration) *SpaceBackend {
	if cfg.URL == "" {
		cfg.URL = DefaultSpaceURL
	}

	dialer := &net.Dialer{Timeout: phase, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &deadlineConn{Conn: conn, timeout: phase}, nil
	}
	transport.ResponseHeaderTimeout = phase

	return &SpaceBackend{
		url:    cfg.URL,
		client: &http.Client{Transport: transport},
	}
}

// deadlineConn renews the read or write deadline before every I/O call, so a
// stalled upload or download fails after timeout regardless of total size.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// Name implements Backend.
func (s *SpaceBackend) Name() string { return "space" }

// Fetch implements Backend.
func (s *SpaceBackend) Fetch(ctx context.Context, image []byte) (string, error) {
	jpeg, _, err := images.ToJPEG(image)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="mushroom.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	text := strings.TrimSpace(string(payload))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, text)
	}
	if text == "" {
		return "", errors.New("empty response body")
	}
	return text, nil
}
