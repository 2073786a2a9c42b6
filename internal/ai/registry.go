package ai

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Service tags for the supported vendors.
const (
	ServiceGroq     = "groq"
	ServiceGemini   = "gemini"
	ServiceClaude   = "claude"
	ServiceDeepSeek = "deepseek"
)

// ServiceLabels maps service tags to the names shown in chat menus.
var ServiceLabels = map[string]string{
	ServiceGroq:     "Llama3 (Groq)",
	ServiceGemini:   "Gemini (Google)",
	ServiceClaude:   "Claude (Anthropic)",
	ServiceDeepSeek: "DeepSeek",
}

// ProviderFactory builds a Provider bound to one decrypted credential.
type ProviderFactory func(credential string) Provider

type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(service string, f ProviderFactory) {
	service = strings.ToLower(strings.TrimSpace(service))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[service] = f
}

func (r *Registry) Get(service, credential string) (Provider, error) {
	service = strings.ToLower(strings.TrimSpace(service))
	r.mu.RLock()
	f, ok := r.factories[service]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai service: %s", service)
	}
	return f(credential), nil
}

func (r *Registry) Known(service string) bool {
	service = strings.ToLower(strings.TrimSpace(service))
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[service]
	return ok
}

// DefaultRegistry wires the four production vendors.
func DefaultRegistry(timeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(ServiceGroq, func(credential string) Provider {
		return NewGroqProvider(credential, timeout)
	})
	r.Register(ServiceDeepSeek, func(credential string) Provider {
		return NewDeepSeekProvider(credential, timeout)
	})
	r.Register(ServiceGemini, func(credential string) Provider {
		return NewGeminiProvider(credential, timeout)
	})
	r.Register(ServiceClaude, func(credential string) Provider {
		return NewClaudeProvider(credential, timeout)
	})
	return r
}
