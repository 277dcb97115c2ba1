package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/convoflow/coordinator/internal/domain"
)

// MockGenerator produces canned responses by keyword matching on the last
// user message. Used in tests and when no generation backend is configured.
type MockGenerator struct{}

// NewMockGenerator creates a new mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(ctx context.Context, history []domain.Message) (string, error) {
	var lastUser string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			lastUser = history[i].Content
			break
		}
	}

	lower := strings.ToLower(lastUser)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! I'm a mock AI assistant. How can I help you today?", nil
	case strings.Contains(lower, "how are you"):
		return "I'm doing well, thank you for asking! I'm a demo chatbot showcasing FSM-based state management.", nil
	case strings.Contains(lower, "bye") || strings.Contains(lower, "goodbye"):
		return "Goodbye! Thanks for chatting with me. Feel free to start a new conversation anytime.", nil
	case strings.Contains(lower, "name"):
		return "I'm FSM Bot, a demonstration chatbot built to showcase distributed systems patterns.", nil
	default:
		return fmt.Sprintf("I received your message: '%s'. This is a mock response demonstrating token streaming and state management.", lastUser), nil
	}
}
