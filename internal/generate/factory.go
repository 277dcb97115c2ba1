package generate

import (
	"log"
	"time"
)

// NewGenerator selects a generation backend: the rule-based mock when no
// backend URL is configured (or mock mode is forced), otherwise the
// OpenAI-compatible HTTP client.
func NewGenerator(mode, baseURL, apiKey, model string, timeout time.Duration) Generator {
	if mode == "MOCK" || baseURL == "" {
		log.Println("Using mock generator")
		return NewMockGenerator()
	}
	return NewClient(baseURL, apiKey, model, timeout)
}
