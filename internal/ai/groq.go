package ai

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.1-8b-instant"
)

// GroqProvider talks to Groq's OpenAI-compatible endpoint.
type GroqProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewGroqProvider(apiKey string, timeout time.Duration) *GroqProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &GroqProvider{
		client:  openai.NewClientWithConfig(cfg),
		model:   groqModel,
		timeout: timeout,
	}
}

func (p *GroqProvider) GenerateResponse(ctx context.Context, systemPrompt, history, topic string) (string, error) {
	return openAICompatChat(ctx, p.client, p.model, p.timeout, systemPrompt, history, topic)
}

func (p *GroqProvider) ValidateKey(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.client.ListModels(cctx)
	return err == nil
}

// openAICompatChat is shared between Groq and DeepSeek; both speak the
// chat/completions dialect.
func openAICompatChat(ctx context.Context, client *openai.Client, model string, timeout time.Duration, systemPrompt, history, topic string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent(topic, history)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
