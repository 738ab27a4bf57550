package service

import (
	"context"
	"strings"

	"chatpush/internal/constants"
)

// ContextKey is a package-local type to prevent context key collisions
// See staticcheck SA1029 guidance
type ContextKey string

// VerboseContextKey is the strongly-typed context key for verbose logging flag
const VerboseContextKey ContextKey = "verbose"

// IsVerboseLogging checks if verbose logging is enabled from context
func IsVerboseLogging(ctx context.Context) bool {
	if verbose, ok := ctx.Value(VerboseContextKey).(bool); ok {
		return verbose
	}
	return false
}

// SanitizeMessageID shortens a message ID for logs
func SanitizeMessageID(msgID string) string {
	if msgID == "" {
		return ""
	}
	if len(msgID) > constants.DefaultMessageIDLength {
		return msgID[:constants.DefaultMessageIDLength] + "..."
	}
	return msgID
}

// SanitizeMessageIDs renders a bounded, shortened list of ids for logs
func SanitizeMessageIDs(ctx context.Context, ids []string) string {
	if IsVerboseLogging(ctx) {
		return strings.Join(ids, ",")
	}

	const maxShown = 5
	shown := ids
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, id := range shown {
		parts = append(parts, SanitizeMessageID(id))
	}
	if len(ids) > maxShown {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ",")
}
