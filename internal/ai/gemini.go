package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// GeminiProvider uses the official Generative AI SDK. A client is opened per
// call because each call may carry a different user-supplied credential.
type GeminiProvider struct {
	apiKey  string
	model   string
	timeout time.Duration
}

func NewGeminiProvider(apiKey string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey, model: geminiModel, timeout: timeout}
}

func (p *GeminiProvider) GenerateResponse(ctx context.Context, systemPrompt, history, topic string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := genai.NewClient(cctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(cctx, genai.Text(userContent(topic, history)))
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func (p *GeminiProvider) ValidateKey(ctx context.Context) bool {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := genai.NewClient(cctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return false
	}
	defer client.Close()

	iter := client.ListModels(cctx)
	_, err = iter.Next()
	return err == nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text parts in response")
	}
	return b.String(), nil
}
