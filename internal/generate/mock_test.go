package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/convoflow/coordinator/internal/domain"
)

func TestMockGeneratorKeywordRules(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator()

	cases := []struct {
		input string
		want  string
	}{
		{"Hello!", "Hello! I'm a mock AI assistant"},
		{"hi there", "Hello! I'm a mock AI assistant"},
		{"how are you doing?", "I'm doing well"},
		{"bye for now", "Goodbye!"},
		{"what is your name?", "FSM Bot"},
	}
	for _, tc := range cases {
		got, err := gen.Generate(ctx, []domain.Message{
			{ID: "m1", Role: "user", Content: tc.input},
		})
		if err != nil {
			t.Fatalf("Generate(%q) failed: %v", tc.input, err)
		}
		if !strings.Contains(got, tc.want) {
			t.Errorf("Generate(%q) = %q, want substring %q", tc.input, got, tc.want)
		}
	}
}

func TestMockGeneratorEchoesUnknownInput(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator()

	got, err := gen.Generate(ctx, []domain.Message{
		{ID: "m1", Role: "user", Content: "tell me about goroutines"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(got, "tell me about goroutines") {
		t.Errorf("default response should echo the input, got %q", got)
	}
}

func TestMockGeneratorUsesLastUserMessage(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator()

	got, err := gen.Generate(ctx, []domain.Message{
		{ID: "m1", Role: "user", Content: "what is your name?"},
		{ID: "m2", Role: "assistant", Content: "I'm FSM Bot"},
		{ID: "m3", Role: "user", Content: "goodbye"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(got, "Goodbye!") {
		t.Errorf("expected the goodbye rule to fire, got %q", got)
	}
}
