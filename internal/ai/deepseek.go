package ai

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	deepseekBaseURL = "https://api.deepseek.com/v1"
	deepseekModel   = "deepseek-chat"
)

// DeepSeekProvider talks to DeepSeek's OpenAI-compatible endpoint.
type DeepSeekProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewDeepSeekProvider(apiKey string, timeout time.Duration) *DeepSeekProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = deepseekBaseURL
	return &DeepSeekProvider{
		client:  openai.NewClientWithConfig(cfg),
		model:   deepseekModel,
		timeout: timeout,
	}
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, systemPrompt, history, topic string) (string, error) {
	return openAICompatChat(ctx, p.client, p.model, p.timeout, systemPrompt, history, topic)
}

func (p *DeepSeekProvider) ValidateKey(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.client.ListModels(cctx)
	return err == nil
}
