package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	claudeBaseURL    = "https://api.anthropic.com/v1"
	claudeModel      = "claude-3-5-haiku-latest"
	claudeAPIVersion = "2023-06-01"
	claudeMaxTokens  = 1024
)

// ClaudeProvider speaks the Anthropic messages API directly.
type ClaudeProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type claudeMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeChatReq struct {
	Model     string      `json:"model"`
	MaxTokens int         `json:"max_tokens"`
	System    string      `json:"system,omitempty"`
	Messages  []claudeMsg `json:"messages"`
}

type claudeChatResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewClaudeProvider(apiKey string, timeout time.Duration) *ClaudeProvider {
	return &ClaudeProvider{
		BaseURL: claudeBaseURL,
		APIKey:  apiKey,
		Model:   claudeModel,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *ClaudeProvider) GenerateResponse(ctx context.Context, systemPrompt, history, topic string) (string, error) {
	if p.Client == nil {
		return "", errors.New("claude: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", errors.New("claude: api key is required")
	}

	reqBody := claudeChatReq{
		Model:     p.Model,
		MaxTokens: claudeMaxTokens,
		System:    systemPrompt,
		Messages: []claudeMsg{
			{Role: "user", Content: userContent(topic, history)},
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/messages", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("claude: %s", msg)
	}

	var decoded claudeChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	var out strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("claude: empty response")
	}
	return out.String(), nil
}

func (p *ClaudeProvider) ValidateKey(ctx context.Context) bool {
	if p.Client == nil || strings.TrimSpace(p.APIKey) == "" {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/models", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-api-key", p.APIKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
