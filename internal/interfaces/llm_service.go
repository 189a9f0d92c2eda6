package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service uses local/offline LLM models
	LLMModeOffline LLMMode = "offline"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model chat completions.
// Implementations may use cloud APIs (Anthropic) or local models.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context including
	// system prompts, user messages, and previous assistant responses.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Error if chat completion fails
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the LLM service is operational and can handle
	// requests. For cloud services this checks API connectivity and
	// authentication.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the LLM service
	GetMode() LLMMode

	// Close releases resources and performs cleanup operations
	Close() error
}
