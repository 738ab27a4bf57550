package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"chatpush/internal/constants"
	"chatpush/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessageID(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		expectError bool
	}{
		{name: "uuid", id: "5f0d7c4e-6a2b-4f7e-9d8a-0c1b2a3d4e5f", expectError: false},
		{name: "short", id: "m1", expectError: false},
		{name: "empty", id: "", expectError: true},
		{name: "too long", id: strings.Repeat("a", constants.MaxMessageIDLength+1), expectError: true},
		{name: "null byte", id: "abc\x00def", expectError: true},
		{name: "newline", id: "abc\ndef", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageID(tt.id)
			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessageIDs(t *testing.T) {
	t.Run("valid list", func(t *testing.T) {
		assert.NoError(t, ValidateMessageIDs([]string{"a", "b", "c"}))
	})

	t.Run("nil list", func(t *testing.T) {
		err := ValidateMessageIDs(nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidationFailed, errors.GetCode(err))
		assert.Equal(t, "messageIds must be a non-empty array", errors.GetUserMessage(err))
	})

	t.Run("empty list", func(t *testing.T) {
		err := ValidateMessageIDs([]string{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidationFailed, errors.GetCode(err))
	})

	t.Run("empty id inside list", func(t *testing.T) {
		err := ValidateMessageIDs([]string{"a", ""})
		require.Error(t, err)
		assert.Contains(t, errors.GetUserMessage(err), "index 1")
	})

	t.Run("too many ids", func(t *testing.T) {
		ids := make([]string, constants.MaxDeleteBatchSize+1)
		for i := range ids {
			ids[i] = "id"
		}
		err := ValidateMessageIDs(ids)
		require.Error(t, err)
		assert.Contains(t, errors.GetUserMessage(err), "too many")
	})
}

func TestValidateWindowURL(t *testing.T) {
	assert.NoError(t, ValidateWindowURL("https://chat.example.com/c/1"))
	assert.NoError(t, ValidateWindowURL("http://localhost:5173/"))
	assert.Error(t, ValidateWindowURL(""))
	assert.Error(t, ValidateWindowURL("/relative/path"))
	assert.Error(t, ValidateWindowURL("https://x.io/"+strings.Repeat("a", constants.MaxWindowURLLength)))
}

func TestValidateHTTPRequestSize(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("small"))
	assert.NoError(t, ValidateHTTPRequestSize(req, 100))

	req = httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 200)))
	err := ValidateHTTPRequestSize(req, 100)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("hello", "prompt", 1, 10))
	assert.Error(t, ValidateStringLength("", "prompt", 1, 10))
	assert.Error(t, ValidateStringLength("hello world!", "prompt", 1, 10))
}

func TestValidateNumericRange(t *testing.T) {
	assert.NoError(t, ValidateNumericRange(5, "port", 1, 10))
	assert.Error(t, ValidateNumericRange(0, "port", 1, 10))
	assert.Error(t, ValidateNumericRange(11, "port", 1, 10))
}

func TestValidateTimeout(t *testing.T) {
	assert.NoError(t, ValidateTimeout(30, "timeout"))
	assert.Error(t, ValidateTimeout(0, "timeout"))
	assert.Error(t, ValidateTimeout(3601, "timeout"))
}
