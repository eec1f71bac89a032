package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")

	// ErrConversationSuppressed is returned for turns on conversations
	// already handed off to a human; the caller must not auto-reply.
	ErrConversationSuppressed = errors.New("conversation is handed off")
)
