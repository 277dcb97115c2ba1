// Package generate provides the response generation backends driven by the
// worker: a rule-based mock and an OpenAI-compatible HTTP client.
package generate

import (
	"context"

	"github.com/convoflow/coordinator/internal/domain"
)

// Generator produces a full assistant response for a conversation history.
// The worker owns tokenization and streaming; generators only return text.
type Generator interface {
	Generate(ctx context.Context, history []domain.Message) (string, error)
}
