package shared

import "time"

// HTTP Client Configuration
const (
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultDialTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Upstream Configuration
const (
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultCredentialName  = "GEMINI_API_KEY"
	DefaultModel           = "gemini-1.5-flash"
	FallbackModel          = "gemini-1.5-flash-latest"
	DefaultTemperature     = 0.2
	DefaultMaxOutputTokens = 1024
	DefaultMaxErrorChars   = 500
)

// API Configuration
const (
	RequestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	RequestIDLength   = 28
)

// DefaultModels is the fallback chain tried after a caller supplied model.
func DefaultModels() []string {
	return []string{DefaultModel, FallbackModel}
}
