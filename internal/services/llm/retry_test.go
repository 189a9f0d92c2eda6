package llm

import (
	"errors"
	"testing"
	"time"
)

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"rate limit 429", errors.New("Claude API call failed: 429 Too Many Requests"), true},
		{"overloaded 529", errors.New("529 overloaded_error: Overloaded"), true},
		{"server error", errors.New("500 internal server error"), true},
		{"bad gateway", errors.New("502 bad gateway"), true},
		{"timeout", errors.New("context deadline exceeded"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"auth failure", errors.New("401 authentication_error: invalid x-api-key"), false},
		{"bad request", errors.New("400 invalid_request_error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil error", nil, 0},
		{"no delay hint", errors.New("429 Too Many Requests"), 0},
		{"retry after seconds", errors.New("429: retry after 30s"), 30 * time.Second},
		{"retry-after header style", errors.New("rate limited, retry-after: 15"), 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRetryDelay(tt.err); got != tt.want {
				t.Errorf("ExtractRetryDelay(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    10 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}

	if got := config.CalculateBackoff(0, 0); got != 10*time.Second {
		t.Errorf("attempt 0 = %v, want 10s", got)
	}
	if got := config.CalculateBackoff(1, 0); got != 20*time.Second {
		t.Errorf("attempt 1 = %v, want 20s", got)
	}
	if got := config.CalculateBackoff(2, 0); got != 40*time.Second {
		t.Errorf("attempt 2 = %v, want 40s", got)
	}

	// Capped at MaxBackoff
	if got := config.CalculateBackoff(5, 0); got != 60*time.Second {
		t.Errorf("attempt 5 = %v, want capped 60s", got)
	}

	// API-provided delay takes precedence over InitialBackoff
	if got := config.CalculateBackoff(0, 30*time.Second); got != 31*time.Second {
		t.Errorf("api delay = %v, want 31s", got)
	}
}
