package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"chatpush/internal/assistant"
	"chatpush/internal/clients"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/models"
	"chatpush/internal/push"
	"chatpush/internal/service"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret-admin"

// fakeStore records the deletions the admin service asks for
type fakeStore struct {
	mu          sync.Mutex
	filters     []models.PurgeFilter
	idBatches   [][]string
	purgeErr    error
	deleteErr   error
	existingIDs map[string]bool
}

func (f *fakeStore) DeleteRecentMessages(ctx context.Context, filter models.PurgeFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	return 3, nil
}

func (f *fakeStore) DeleteMessagesByID(ctx context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idBatches = append(f.idBatches, ids)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	var deleted []string
	for _, id := range ids {
		if f.existingIDs[id] {
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

type failingDisplayer struct{}

func (failingDisplayer) ShowNotification(ctx context.Context, n *push.Notification) error {
	return errors.New("no display surface")
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *models.Config {
	return &models.Config{
		Admin: models.AdminConfig{Secret: testSecret},
		Purge: models.PurgeConfig{
			Location:            "lobby",
			UserIDs:             []string{"user-a", "user-b"},
			DefaultSinceMinutes: 180,
		},
		Push: models.PushConfig{AppOrigin: "https://chat.example.com"},
	}
}

type testEnv struct {
	server *Server
	store  *fakeStore
	hub    *clients.Hub
	m      *metrics.Metrics
}

func newTestServer(t *testing.T, cfg *models.Config, assistantClient *assistant.Client) *testEnv {
	t.Helper()
	logger := quietLogger()
	m := metrics.New()

	store := &fakeStore{existingIDs: map[string]bool{"m1": true, "m2": true}}
	hub := clients.NewHub(logger).WithMetrics(m)

	receivers := map[string]*push.Receiver{}
	for name, profile := range push.Profiles("") {
		receivers[name] = push.NewReceiver(profile, hub, logger, push.WithMetrics(m))
	}
	receivers["broken"] = push.NewReceiver(push.StandardProfile(), failingDisplayer{}, logger, push.WithMetrics(m))

	if assistantClient == nil {
		assistantClient = assistant.New(models.AssistantConfig{}, logger)
	}

	server := NewServer(cfg, ServerDeps{
		Admin:     service.NewAdminService(store, cfg.Purge, logger),
		Receivers: receivers,
		Hub:       hub,
		Assistant: assistantClient,
		Metrics:   m,
	}, logger)

	return &testEnv{server: server, store: store, hub: hub, m: m}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type, x-admin-secret", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestServer_HandleHealth(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestServer_HandleMetrics(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)
	env.do(http.MethodGet, "/health", "", nil)

	w := env.do(http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `chatpush_http_requests_total{method="GET",route="/health",status_code="200"} 1`)
}

func TestServer_NotFound(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	for _, path := range []string{"/does-not-exist", "/functions/v1/unknown", "/push"} {
		t.Run(path, func(t *testing.T) {
			w := env.do(http.MethodGet, path, "", nil)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "<h1>404</h1>")
			assert.Contains(t, w.Body.String(), "Page not found")
			assert.Contains(t, w.Body.String(), `<a href="/">`)
		})
	}
}

func TestServer_DeleteRecentMessagesUnreadableBody(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/delete-recent-messages",
		iotest.ErrReader(errors.New("connection reset")))
	req.Header.Set("x-admin-secret", testSecret)
	w := httptest.NewRecorder()
	env.server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":2,"success":true,"sinceMinutes":180}`, w.Body.String())
	require.Len(t, env.store.filters, 1)
}

func TestServer_NotFoundGetsDetailedLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	cfg := testConfig()
	server := NewServer(cfg, ServerDeps{
		Admin:   service.NewAdminService(&fakeStore{}, cfg.Purge, logger),
		Metrics: metrics.New(),
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/missing-page", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var requestLogged, completedLogged bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}
		switch entry["msg"] {
		case "Detailed request logging":
			requestLogged = true
			assert.Contains(t, entry["url"], "/missing-page")
		case "HTTP request completed":
			completedLogged = true
		}
	}
	assert.True(t, requestLogged, "404 requests should pass through detailed logging")
	assert.True(t, completedLogged)
}

func TestDeleteRecentMessages_Preflight(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodOptions, "/functions/v1/delete-recent-messages", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)
	assert.Empty(t, env.store.filters)
}

func TestDeleteRecentMessages_Unauthorized(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		headers map[string]string
		body    string
	}{
		{"missing header", testSecret, nil, `{"sinceMinutes":5}`},
		{"wrong secret", testSecret, map[string]string{"x-admin-secret": "guess"}, `{"sinceMinutes":5}`},
		{"secret prefix", testSecret, map[string]string{"x-admin-secret": testSecret[:4]}, ""},
		{"unset secret matches nothing", "", map[string]string{"x-admin-secret": ""}, ""},
		{"malformed body", testSecret, map[string]string{"x-admin-secret": "guess"}, `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Admin.Secret = tt.secret
			env := newTestServer(t, cfg, nil)

			w := env.do(http.MethodPost, "/functions/v1/delete-recent-messages", tt.body, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			assertCORS(t, w)
			assert.Empty(t, env.store.filters, "no deletion may happen")
		})
	}
}

func TestDeleteRecentMessages_Success(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		body    string
		minutes int
	}{
		{"explicit window", http.MethodPost, `{"sinceMinutes":30}`, 30},
		{"fraction truncated", http.MethodPost, `{"sinceMinutes":45.9}`, 45},
		{"numeric string", http.MethodPost, `{"sinceMinutes":"15"}`, 15},
		{"missing field", http.MethodPost, `{}`, 180},
		{"empty body", http.MethodPost, "", 180},
		{"unparseable body", http.MethodPost, `not json`, 180},
		{"zero", http.MethodPost, `{"sinceMinutes":0}`, 180},
		{"negative", http.MethodPost, `{"sinceMinutes":-10}`, 180},
		{"wrong type", http.MethodPost, `{"sinceMinutes":[1]}`, 180},
		{"other method", http.MethodDelete, `{"sinceMinutes":10}`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t, testConfig(), nil)

			before := time.Now()
			w := env.do(tt.method, "/functions/v1/delete-recent-messages", tt.body, map[string]string{"x-admin-secret": testSecret})

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.JSONEq(t, `{"version":2,"success":true,"sinceMinutes":`+strconv.Itoa(tt.minutes)+`}`, w.Body.String())
			assertCORS(t, w)

			require.Len(t, env.store.filters, 1)
			filter := env.store.filters[0]
			assert.Equal(t, "lobby", filter.Location)
			assert.Equal(t, []string{"user-a", "user-b"}, filter.UserIDs)
			window := time.Duration(tt.minutes) * time.Minute
			assert.WithinDuration(t, before.Add(-window), filter.Since, 2*time.Second)
		})
	}
}

func TestDeleteRecentMessages_DatabaseError(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)
	env.store.purgeErr = apperrors.NewDatabaseError("delete", errors.New("database is locked"))

	w := env.do(http.MethodPost, "/functions/v1/delete-recent-messages", `{}`, map[string]string{"x-admin-secret": testSecret})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"database is locked"}`, w.Body.String())
	assertCORS(t, w)
}

func TestDeleteMessages_Preflight(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodOptions, "/functions/v1/delete-messages", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)
}

func TestDeleteMessages_Success(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodPost, "/functions/v1/delete-messages", `{"messageIds":["m1","m2","gone"]}`, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted":2,"ids":["m1","m2"]}`, w.Body.String())
	assertCORS(t, w)
	assert.Equal(t, [][]string{{"m1", "m2", "gone"}}, env.store.idBatches)
}

func TestDeleteMessages_NothingMatched(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodPost, "/functions/v1/delete-messages", `{"messageIds":["unknown"]}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0,"ids":[]}`, w.Body.String())
}

func TestDeleteMessages_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing field", `{}`, messageIDsRequiredMessage},
		{"null", `{"messageIds":null}`, messageIDsRequiredMessage},
		{"empty array", `{"messageIds":[]}`, messageIDsRequiredMessage},
		{"not an array", `{"messageIds":"m1"}`, messageIDsRequiredMessage},
		{"non-string element", `{"messageIds":[1,2]}`, messageIDsRequiredMessage},
		{"empty id", `{"messageIds":["m1",""]}`, "invalid message ID at index 1"},
		{"invalid json", `{"messageIds":`, "invalid JSON body"},
		{"empty body", ``, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t, testConfig(), nil)

			w := env.do(http.MethodPost, "/functions/v1/delete-messages", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w)["error"], tt.want)
			assertCORS(t, w)
			assert.Empty(t, env.store.idBatches)
		})
	}
}

func TestDeleteMessages_DatabaseError(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)
	env.store.deleteErr = apperrors.NewDatabaseError("delete", errors.New("connection refused"))

	w := env.do(http.MethodPost, "/functions/v1/delete-messages", `{"messageIds":["m1"]}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"connection refused"}`, w.Body.String())
}

func TestHandlePush(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	t.Run("empty payload", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/standard", "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 0, env.hub.ActiveCount())
	})

	t.Run("standard profile", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/standard", `{"title":"Hi","body":"there","conversationId":"c1"}`, nil)
		require.Equal(t, http.StatusAccepted, w.Code)

		var n push.Notification
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
		assert.Equal(t, "Hi", n.Title)
		assert.Equal(t, "there", n.Body)
		assert.Equal(t, "chat-message", n.Tag)
		assert.False(t, n.RequireInteraction)
		assert.Equal(t, []int{200, 100, 200}, n.Vibrate)
		assert.Equal(t, "c1", n.Data.ConversationID)
		assert.NotNil(t, env.hub.Notification("chat-message"))
	})

	t.Run("persistent profile with plain text", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/persistent", "hello world", nil)
		require.Equal(t, http.StatusAccepted, w.Code)

		var n push.Notification
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
		assert.Equal(t, "New Message", n.Title)
		assert.Equal(t, "hello world", n.Body)
		assert.Equal(t, "chat-notification", n.Tag)
		assert.True(t, n.RequireInteraction)
		assert.Equal(t, "/", n.Data.URL)
	})

	t.Run("unknown profile", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/mystery", `{}`, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"push profile not found"}`, w.Body.String())
	})

	t.Run("display failure", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/broken", `{"title":"x"}`, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("payload too large", func(t *testing.T) {
		w := env.do(http.MethodPost, "/push/standard", strings.Repeat("a", 64*1024+1), nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestAssistantReply_Disabled(t *testing.T) {
	env := newTestServer(t, testConfig(), nil)

	w := env.do(http.MethodPost, "/assistant/reply", `{"prompt":"hello"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false,"reply":""}`, w.Body.String())
}

func TestAssistantReply_Enabled(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "Hello back"}}},
	}, nil)

	client := assistant.NewWithCompleter(completer, "test-model", quietLogger()).WithMetrics(metrics.New())
	env := newTestServer(t, testConfig(), client)

	w := env.do(http.MethodPost, "/assistant/reply", `{"prompt":"hello"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":true,"reply":"Hello back"}`, w.Body.String())

	w = env.do(http.MethodPost, "/assistant/reply", `{"prompt":"   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/assistant/reply", `nope`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	completer.AssertNumberOfCalls(t, "CreateChatCompletion", 1)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ReadTimeoutSec = 5
	cfg.Server.WriteTimeoutSec = 5
	env := newTestServer(t, cfg, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() { errCh <- env.server.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
