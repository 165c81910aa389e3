package models

import "fmt"

// GenerateRequest is one engine-neutral inference call: a system instruction,
// the images in upload order, a short user prompt and the sampling temperature.
type GenerateRequest struct {
	SystemInstruction string
	Prompt            string
	Images            []Image
	Temperature       float32
}

// UpstreamStatusError is returned by an inference back end that answered with a
// non-success HTTP status.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

// EnvelopeError means a back end answered 2xx with a body that is not a
// generateContent response.
type EnvelopeError struct {
	Err error
}

func (e *EnvelopeError) Error() string {
	return "decode inference response: " + e.Err.Error()
}

func (e *EnvelopeError) Unwrap() error { return e.Err }
