package services

import (
	"context"

	"battle-arena/internal/models"
)

// Generator is an inference back end that answers a GenerateRequest with the
// model's raw text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in models.GenerateRequest) (string, error)
}
