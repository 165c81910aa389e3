package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies why an analysis attempt failed.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindInvalidStructure  ErrorKind = "invalid_structure"
)

// Sentinels for errors.Is. Every *AnalysisError matches the one of its kind.
var (
	ErrTimeout           = errors.New("battle analysis timed out")
	ErrTransport         = errors.New("inference request failed")
	ErrMalformedResponse = errors.New("AI response could not be processed")
	ErrInvalidStructure  = errors.New("invalid response format from AI")
)

var kindSentinels = map[ErrorKind]error{
	KindTimeout:           ErrTimeout,
	KindTransport:         ErrTransport,
	KindMalformedResponse: ErrMalformedResponse,
	KindInvalidStructure:  ErrInvalidStructure,
}

// AnalysisError is the single failure value of the pipeline. All kinds end the
// attempt; none is retried.
type AnalysisError struct {
	Kind ErrorKind
	// StatusCode and Body are set for transport errors that got an HTTP answer.
	StatusCode int
	Body       string
	Detail     string
	Err        error
}

func (e *AnalysisError) Error() string {
	switch e.Kind {
	case KindTransport:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s: %d - %s", ErrTransport, e.StatusCode, e.Body)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
		}
		return ErrTransport.Error()
	default:
		msg := "battle analysis failed"
		if s, ok := kindSentinels[e.Kind]; ok {
			msg = s.Error()
		}
		if e.Detail != "" {
			return msg + ": " + e.Detail
		}
		return msg
	}
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *AnalysisError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

func timeoutError(after time.Duration) *AnalysisError {
	return &AnalysisError{Kind: KindTimeout, Detail: fmt.Sprintf("no answer within %s", after)}
}
