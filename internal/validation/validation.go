package validation

import (
	"fmt"
	"net/http"
	"net/url"

	"chatpush/internal/constants"
	"chatpush/internal/errors"
)

// ValidateMessageID validates message ID format and length
func ValidateMessageID(messageID string) error {
	if messageID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "message ID cannot be empty")
	}

	if len(messageID) > constants.MaxMessageIDLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("message ID too long (max %d characters)", constants.MaxMessageIDLength))
	}

	// Check for control characters that could cause issues
	for _, char := range messageID {
		if char == '\x00' || char == '\n' || char == '\r' || char == '\t' {
			return errors.New(errors.ErrCodeInvalidInput, "message ID contains invalid characters")
		}
	}

	return nil
}

// ValidateMessageIDs validates the id list of a delete request
func ValidateMessageIDs(ids []string) error {
	if len(ids) == 0 {
		return errors.NewValidationError("messageIds", "messageIds must be a non-empty array")
	}

	if len(ids) > constants.MaxDeleteBatchSize {
		return errors.NewValidationError("messageIds",
			fmt.Sprintf("too many message IDs (max %d)", constants.MaxDeleteBatchSize))
	}

	for i, id := range ids {
		if err := ValidateMessageID(id); err != nil {
			return errors.NewValidationError("messageIds",
				fmt.Sprintf("invalid message ID at index %d: %s", i, errors.GetUserMessage(err)))
		}
	}

	return nil
}

// ValidateWindowURL checks the URL a window reports for itself
func ValidateWindowURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ErrCodeInvalidInput, "window URL cannot be empty")
	}

	if len(raw) > constants.MaxWindowURLLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("window URL too long (max %d characters)", constants.MaxWindowURLLength))
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.ErrCodeInvalidInput, "window URL must be absolute")
	}

	return nil
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength > maxSizeBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("request too large: %d bytes (max %d bytes)", r.ContentLength, maxSizeBytes))
	}

	return nil
}

// ValidateStringLength validates string length against bounds
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	if len(value) < minLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too short (min %d characters)", fieldName, minLength))
	}

	if len(value) > maxLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too long (max %d characters)", fieldName, maxLength))
	}

	return nil
}

// ValidateNumericRange validates numeric values against bounds
func ValidateNumericRange(value int, fieldName string, min, max int) error {
	if value < min {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too small (min %d)", fieldName, min))
	}

	if value > max {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d)", fieldName, max))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > 3600 { // Max 1 hour
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max 3600 seconds)", fieldName))
	}

	return nil
}
