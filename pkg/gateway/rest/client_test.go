package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Headers: r.Header.Clone(), Body: body})
		f.mu.Unlock()
	}

	mux.HandleFunc("/api/v9/gateway/bot", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url": "wss://gateway.example.test", "shards": 1}`))
	})
	mux.HandleFunc("/api/v9/users/@me", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "1", "username": "roulette-bot", "bot": true}`))
	})
	mux.HandleFunc("/api/v9/channels/77/messages", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	})
	return mux
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	client, err := NewClient().
		WithToken("secret").
		WithBaseURL(server.URL + "/api").
		WithLogger(zap.NewNop()).
		Build()
	require.NoError(t, err)
	return client
}

func TestClientBuilder(t *testing.T) {
	t.Run("fluent interface returns same builder", func(t *testing.T) {
		builder := NewClient()
		assert.Same(t, builder, builder.WithToken("x"))
		assert.Same(t, builder, builder.WithBaseURL("http://localhost"))
		assert.Same(t, builder, builder.WithAPIVersion(10))
		assert.Same(t, builder, builder.WithTimeout(time.Second))
		assert.Same(t, builder, builder.WithUserAgent("https://example.test", "1.0"))
		assert.Same(t, builder, builder.WithLogger(zap.NewNop()))
	})

	t.Run("build fails without token", func(t *testing.T) {
		_, err := NewClient().Build()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "token is required")
	})

	t.Run("defaults", func(t *testing.T) {
		builder := NewClient()
		assert.Equal(t, "https://discord.com/api/v9", builder.APIURL())
		assert.Equal(t, "DiscordBot (https://github.com/gweinbach/russian-roulette, 0.1)", builder.UserAgent())
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		builder := NewClient().WithAPIVersion(0).WithBaseURL("").WithTimeout(-1)
		assert.Equal(t, "https://discord.com/api/v9", builder.APIURL())
		assert.Equal(t, 30*time.Second, builder.timeout)
	})
}

func TestGatewayURL(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api)

	url, err := client.GatewayURL(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "wss://gateway.example.test?v=9&encoding=json", url)

	req := api.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "Bot secret", req.Headers.Get("Authorization"))
	assert.Equal(t, "DiscordBot (https://github.com/gweinbach/russian-roulette, 0.1)", req.Headers.Get("User-Agent"))
}

func TestCurrentUser(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api)

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "roulette-bot", user["username"])
	assert.Equal(t, "/api/v9/users/@me", api.last().Path)
}

func TestCreateMessage(t *testing.T) {
	t.Run("posts the payload", func(t *testing.T) {
		api := &fakeAPI{}
		client := newTestClient(t, api)

		err := client.CreateMessage(context.Background(), "77", map[string]any{"content": "ok", "type": 19})
		require.NoError(t, err)

		req := api.last()
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/v9/channels/77/messages", req.Path)
		assert.Contains(t, req.Headers.Get("Content-Type"), "application/json")

		var body map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "ok", body["content"])
		assert.Equal(t, float64(19), body["type"])
	})

	t.Run("non-2xx status is an APIError", func(t *testing.T) {
		api := &fakeAPI{status: http.StatusForbidden}
		client := newTestClient(t, api)

		err := client.CreateMessage(context.Background(), "77", map[string]any{"content": "nope"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.Status)
		assert.Equal(t, http.MethodPost, apiErr.Method)
	})
}
