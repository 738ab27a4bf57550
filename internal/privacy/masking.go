package privacy

import (
	"net/url"
	"strings"

	"chatpush/internal/constants"
)

// MaskUserID masks a user identifier
// Example: "7b6f0c2e-...-a1" -> "****...00a1"
func MaskUserID(userID string) string {
	if userID == "" {
		return ""
	}
	return maskString(userID, constants.DefaultIDMaskLength)
}

// MaskUserIDs masks every id and joins them for a log field
func MaskUserIDs(userIDs []string) string {
	masked := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		masked = append(masked, MaskUserID(id))
	}
	return strings.Join(masked, ",")
}

// MaskMessageID masks a message ID showing only the last 8 characters
func MaskMessageID(messageID string) string {
	if messageID == "" {
		return ""
	}
	return maskString(messageID, constants.DefaultMessageIDLength)
}

// MaskSecret hides a secret completely, keeping only whether it was set
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

// MaskWindowURL drops query and fragment from a window URL
// Example: "https://chat.example.com/c/42?token=x" -> "https://chat.example.com/c/42"
func MaskWindowURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return maskString(raw, 4)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}

	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}

	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		s, isString := v.(string)
		if !isString {
			masked[k] = v
			continue
		}
		switch k {
		case "message_id", "messageId", "msg_id":
			masked[k] = MaskMessageID(s)
		case "user_id", "userId":
			masked[k] = MaskUserID(s)
		case "secret", "admin_secret", "api_key", "apiKey":
			masked[k] = MaskSecret(s)
		case "url", "window_url":
			masked[k] = MaskWindowURL(s)
		default:
			masked[k] = v
		}
	}

	return masked
}
