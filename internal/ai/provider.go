package ai

import (
	"context"
	"fmt"
	"strings"
)

// Provider is one vendor backend bound to a single credential. Vendors differ
// only in request construction; the debate loop treats them interchangeably.
type Provider interface {
	// GenerateResponse produces one debate turn from the participant's system
	// prompt, the shared history text and the topic.
	GenerateResponse(ctx context.Context, systemPrompt, history, topic string) (string, error)

	// ValidateKey probes whether the credential is usable with a minimal
	// call. It reports false on any error.
	ValidateKey(ctx context.Context) bool
}

// GenerationErrorMarker prefixes in-band error strings produced by
// SafeGenerate, so a failed turn is still displayable and detectable.
const GenerationErrorMarker = "⚠️ generation failed"

// SafeGenerate never fails: any vendor-side error comes back as a marked,
// human-readable string in the normal return channel.
func SafeGenerate(ctx context.Context, p Provider, systemPrompt, history, topic string) string {
	text, err := p.GenerateResponse(ctx, systemPrompt, history, topic)
	if err != nil {
		return fmt.Sprintf("%s: %v", GenerationErrorMarker, err)
	}
	return text
}

// IsGenerationError reports whether a response text is an in-band error
// string rather than a real model answer.
func IsGenerationError(text string) bool {
	return strings.HasPrefix(text, GenerationErrorMarker)
}

// userContent frames the shared debate context the same way for every vendor.
func userContent(topic, history string) string {
	var b strings.Builder
	b.WriteString("Debate topic: ")
	b.WriteString(topic)
	b.WriteString("\n")
	if strings.TrimSpace(history) != "" {
		b.WriteString("History of previous turns:\n")
		b.WriteString(history)
		b.WriteString("\n")
	}
	b.WriteString("\nTask: follow the system instructions and give your answer. Be concise and persuasive.")
	return b.String()
}
