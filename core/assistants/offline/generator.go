package offline

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const personaPrompt = "You are JARVIS, a composed and quietly witty English butler serving as a voice assistant. " +
	"Address the user as sir. Answer in one or two short sentences suitable for being spoken aloud. " +
	"You are currently running without internet access, so do not offer to look anything up."

// LocalGenerator produces free-text replies from an OpenAI-compatible local
// inference server (llama.cpp, Ollama and the like).
type LocalGenerator struct {
	client *openai.Client
	model  string
}

func NewLocalGenerator(baseURL, model string) *LocalGenerator {
	config := openai.DefaultConfig("")
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &LocalGenerator{client: openai.NewClientWithConfig(config), model: model}
}

func (g *LocalGenerator) Generate(ctx context.Context, text string) (string, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: personaPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			MaxTokens: 256,
		},
	)
	if err != nil {
		return "", fmt.Errorf("local generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("local generation returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
