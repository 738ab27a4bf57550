package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// assertAssistantRequests compares the whole assistant_requests_total family
func assertAssistantRequests(t *testing.T, m *metrics.Metrics, counts map[string]int) {
	t.Helper()

	results := make([]string, 0, len(counts))
	for r := range counts {
		results = append(results, r)
	}
	sort.Strings(results)

	var b strings.Builder
	b.WriteString("# HELP chatpush_assistant_requests_total Assistant requests by result\n")
	b.WriteString("# TYPE chatpush_assistant_requests_total counter\n")
	for _, r := range results {
		fmt.Fprintf(&b, "chatpush_assistant_requests_total{result=%q} %d\n", r, counts[r])
	}

	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(b.String()), "chatpush_assistant_requests_total"))
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestNew_DisabledWithoutAPIKey(t *testing.T) {
	m := metrics.New()
	c := New(models.AssistantConfig{}, quietLogger()).WithMetrics(m)
	assert.False(t, c.Enabled())

	reply, err := c.Reply(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Equal(t, "", reply)
	assertAssistantRequests(t, m, map[string]int{"disabled": 1})
}

func TestNew_EnabledWithAPIKey(t *testing.T) {
	c := New(models.AssistantConfig{APIKey: "sk-test"}, quietLogger())
	assert.True(t, c.Enabled())
	assert.Equal(t, "gpt-4o-mini", c.model)
}

func TestReply_Success(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "test-model" &&
			len(req.Messages) == 2 &&
			req.Messages[1].Role == openai.ChatMessageRoleUser &&
			req.Messages[1].Content == "how are you?"
	})).Return(completion("fine, thanks"), nil)

	c := NewWithCompleter(completer, "test-model", quietLogger()).WithMetrics(metrics.New())

	reply, err := c.Reply(context.Background(), "  how are you?  ")
	require.NoError(t, err)
	assert.Equal(t, "fine, thanks", reply)
	completer.AssertExpectations(t)
}

func TestReply_EmptyPrompt(t *testing.T) {
	completer := new(mockCompleter)
	c := NewWithCompleter(completer, "", quietLogger()).WithMetrics(metrics.New())

	_, err := c.Reply(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
	completer.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestReply_APIError(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("upstream 503"))

	c := NewWithCompleter(completer, "", quietLogger()).WithMetrics(metrics.New())

	_, err := c.Reply(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAssistantAPI, apperrors.GetCode(err))
	assert.Equal(t, 502, apperrors.HTTPStatusCode(err))
}

func TestReply_EmptyCompletionIsError(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	c := NewWithCompleter(completer, "", quietLogger()).WithMetrics(metrics.New())

	_, err := c.Reply(context.Background(), "hi")
	assert.Error(t, err)
}

func TestReply_BreakerOpensAfterFailures(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("boom"))

	m := metrics.New()
	c := NewWithCompleter(completer, "", quietLogger()).WithMetrics(m)

	for i := 0; i < 5; i++ {
		_, err := c.Reply(context.Background(), "hi")
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, c.breaker.State())

	_, err := c.Reply(context.Background(), "hi")
	require.Error(t, err)

	var openErr *OpenError
	assert.True(t, errors.As(err, &openErr))
	completer.AssertNumberOfCalls(t, "CreateChatCompletion", 5)
	assertAssistantRequests(t, m, map[string]int{"error": 5, "rejected": 1})
}

func TestReply_AgainstHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("echo: " + req.Messages[len(req.Messages)-1].Content))
	}))
	defer server.Close()

	c := New(models.AssistantConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"}, quietLogger()).
		WithMetrics(metrics.New())

	reply, err := c.Reply(context.Background(), "ping")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "echo: ping"))
}
