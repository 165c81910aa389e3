package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"battle-arena/internal/models"
)

const defaultModel = "gemini-2.5-flash"

// emptyAnswer mirrors the proxy engine when the model returns no text.
const emptyAnswer = "{}"

// Client calls the Gemini API directly through the genai SDK.
type Client struct {
	sdk       *genai.Client
	modelName string
}

// NewClient creates a Gemini client. endpoint overrides the API host and may be
// empty.
func NewClient(ctx context.Context, apiKey string, modelName string, endpoint string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini API key must not be empty")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
		log.Warn().Str("model", modelName).Msg("[Gemini Client] no model name given, using default")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	sdk, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	log.Info().Str("model", modelName).Msg("[Gemini Client] initialized")
	return &Client{sdk: sdk, modelName: modelName}, nil
}

// Name identifies the engine in logs.
func (c *Client) Name() string { return "gemini" }

// Close releases the SDK client.
func (c *Client) Close() error {
	return c.sdk.Close()
}

// Generate runs one generateContent call. A fresh model handle is built per
// call because system instruction and temperature are set on the handle.
func (c *Client) Generate(ctx context.Context, in models.GenerateRequest) (string, error) {
	model := c.sdk.GenerativeModel(c.modelName)
	model.SetTemperature(in.Temperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(in.SystemInstruction)},
	}

	parts := make([]genai.Part, 0, len(in.Images)+1)
	for _, img := range in.Images {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	parts = append(parts, genai.Text(in.Prompt))

	log.Debug().Str("model", c.modelName).Int("images", len(in.Images)).Msg("[Gemini Client] sending request")
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", mapError(err)
	}
	return answerText(resp), nil
}

// mapError turns an API error status into the engine-neutral
// UpstreamStatusError. Other errors are wrapped.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if body == "" {
			body = apiErr.Message
		}
		return &models.UpstreamStatusError{StatusCode: apiErr.Code, Body: body}
	}
	return fmt.Errorf("gemini generateContent: %w", err)
}

// answerText returns the text of the first part of the first candidate, or
// emptyAnswer when there is none.
func answerText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return emptyAnswer
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			for _, rating := range candidate.SafetyRatings {
				log.Warn().Str("category", rating.Category.String()).Str("probability", rating.Probability.String()).Msg("[Gemini Client] safety rating")
			}
			log.Warn().Str("finishReason", candidate.FinishReason.String()).Msg("[Gemini Client] candidate has no content")
		}
		return emptyAnswer
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok || string(txt) == "" {
		log.Warn().Str("type", fmt.Sprintf("%T", candidate.Content.Parts[0])).Msg("[Gemini Client] first part is not text")
		return emptyAnswer
	}
	return string(txt)
}
