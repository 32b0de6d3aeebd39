package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/media/images"
)

const (
	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-2.0-flash"
	// DefaultGeminiEndpoint is the Generative Language API base URL.
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

	maxResponseBytes = 1 << 20
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from AI")

const geminiPrompt = `Identify the mushroom in this photo.
Reply with a single JSON object and nothing else, using exactly these keys:
{
  "name": "common name",
  "scientificName": "Latin name",
  "isEdible": true or false,
  "description": "short description",
  "habitat": "where it grows",
  "season": "when it fruits",
  "characteristics": "distinguishing features"
}
If the photo does not show a mushroom, set "isEdible" to false and "description" to "no mushroom detected".
When unsure about edibility, answer false.`

// GeminiConfig configures GeminiBackend.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// GeminiBackend calls generateContent on the Generative Language REST API.
type GeminiBackend struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiBackend creates a Gemini backend.
func NewGeminiBackend(cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements Backend.
func (g *GeminiBackend) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
	Text       string            `json:"text,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch implements Backend.
func (g *GeminiBackend) Fetch(ctx context.Context, image []byte) (string, error) {
	mimeType, data, err := geminiImage(image)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: geminiPrompt},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.Endpoint, "/"),
		url.PathEscape(g.cfg.Model),
		url.QueryEscape(g.cfg.APIKey),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// The URL carries the API key; drop it from the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed geminiResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if json.Unmarshal(payload, &parsed) == nil && parsed.Error != nil {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, p := range parsed.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// geminiImage passes JPEG, PNG and WebP through and converts anything else
// the decoders understand to JPEG.
func geminiImage(data []byte) (string, []byte, error) {
	switch mimeType := http.DetectContentType(data); mimeType {
	case "image/jpeg", "image/png", "image/webp":
		return mimeType, data, nil
	}
	converted, _, err := images.ToJPEG(data)
	if err != nil {
		return "", nil, err
	}
	return "image/jpeg", converted, nil
}
