package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxChatMessageLength bounds a chat question.
	MaxChatMessageLength = 1000
	// MaxSelectedTextLength bounds the excerpt in selected-text mode.
	MaxSelectedTextLength = 5000
	// MaxDocumentContentLength bounds a single corpus file.
	MaxDocumentContentLength = 100000
)

// ValidateChatMessage rejects empty or oversized chat messages.
func ValidateChatMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return NewValidationError("message", "must not be empty")
	}
	if utf8.RuneCountInString(message) > MaxChatMessageLength {
		return NewValidationError("message", "exceeds maximum length")
	}
	return nil
}

// ValidateSelectedText rejects empty or oversized selected text.
func ValidateSelectedText(text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("selected_text", "must not be empty")
	}
	if utf8.RuneCountInString(text) > MaxSelectedTextLength {
		return NewValidationError("selected_text", "exceeds maximum length")
	}
	return nil
}

// ValidateDocumentContent rejects empty or oversized document content.
func ValidateDocumentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxDocumentContentLength {
		return NewValidationError("content", "exceeds maximum length")
	}
	return nil
}

// ValidateSessionID accepts an empty session id (a new session is created)
// or a well-formed UUID.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return NewValidationError("session_id", "must be a UUID")
	}
	return nil
}
