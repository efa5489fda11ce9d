package domain_test

import (
	"strings"
	"testing"

	"book-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateChatMessage(t *testing.T) {
	assert.NoError(t, domain.ValidateChatMessage("What is this chapter about?"))
	assert.Error(t, domain.ValidateChatMessage(""))
	assert.Error(t, domain.ValidateChatMessage("   \n\t  "))
	assert.NoError(t, domain.ValidateChatMessage(strings.Repeat("a", domain.MaxChatMessageLength)))
	assert.Error(t, domain.ValidateChatMessage(strings.Repeat("a", domain.MaxChatMessageLength+1)))
}

func TestValidateSelectedText(t *testing.T) {
	assert.NoError(t, domain.ValidateSelectedText("An excerpt from the book."))
	assert.Error(t, domain.ValidateSelectedText(""))
	assert.NoError(t, domain.ValidateSelectedText(strings.Repeat("b", domain.MaxSelectedTextLength)))
	assert.Error(t, domain.ValidateSelectedText(strings.Repeat("b", domain.MaxSelectedTextLength+1)))
}

func TestValidateDocumentContent(t *testing.T) {
	assert.NoError(t, domain.ValidateDocumentContent("# Title\n\nBody."))
	assert.Error(t, domain.ValidateDocumentContent(" "))
	assert.Error(t, domain.ValidateDocumentContent(strings.Repeat("c", domain.MaxDocumentContentLength+1)))
}

func TestValidateSessionID(t *testing.T) {
	t.Run("Accepts empty for a fresh session", func(t *testing.T) {
		assert.NoError(t, domain.ValidateSessionID(""))
	})

	t.Run("Accepts a well-formed UUID", func(t *testing.T) {
		assert.NoError(t, domain.ValidateSessionID(uuid.NewString()))
	})

	t.Run("Rejects malformed ids", func(t *testing.T) {
		err := domain.ValidateSessionID("not-a-uuid")
		assert.Error(t, err)

		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "session_id", validationErr.Field)
	})
}
