package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/models"
)

// emptyAnswer is used when the envelope carries no text part.
const emptyAnswer = "{}"

type part struct {
	InlineData *models.InlineData `json:"inlineData,omitempty"`
	Text       string             `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction content          `json:"systemInstruction"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client talks to a hosted inference proxy that forwards generateContent
// requests upstream. The proxy owns the upstream credentials, no key is sent.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns a client for the proxy at endpoint. httpTimeout bounds how
// long an abandoned request may keep its connection; zero disables the bound.
func NewClient(endpoint string, httpTimeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("proxy endpoint must not be empty")
	}
	log.Info().Str("endpoint", endpoint).Msg("[Proxy Client] initialized")
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: httpTimeout},
	}, nil
}

// Name identifies the engine in logs.
func (c *Client) Name() string { return "proxy" }

// Generate sends one request and returns the text of the first candidate's
// first part. A non-2xx answer is reported as *models.UpstreamStatusError.
func (c *Client) Generate(ctx context.Context, in models.GenerateRequest) (string, error) {
	parts := make([]part, 0, len(in.Images)+1)
	for _, img := range in.Images {
		data := models.EncodeImage(img)
		parts = append(parts, part{InlineData: &data})
	}
	parts = append(parts, part{Text: in.Prompt})

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		SystemInstruction: content{
			Parts: []part{{Text: in.SystemInstruction}},
		},
		GenerationConfig: generationConfig{Temperature: in.Temperature},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Int("images", len(in.Images)).Int("bytes", len(payload)).Msg("[Proxy Client] sending request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return "", &models.UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &models.EnvelopeError{Err: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return emptyAnswer, nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
