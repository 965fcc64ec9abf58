package explain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okBody(content string) GenerateResponse {
	return GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}}
}

// sequenceServer answers /chat/completions with statuses[i] on the i-th call,
// repeating the last one.
func sequenceServer(t *testing.T, statuses []int, headers []http.Header) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&calls, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		if i < len(headers) {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		w.WriteHeader(statuses[i])
		if statuses[i] == http.StatusOK {
			_ = json.NewEncoder(w).Encode(okBody("ok"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "try later"}})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func chat() GenerateRequest {
	return GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1}
}

func TestGenerateRetriesOn429(t *testing.T) {
	srv, calls := sequenceServer(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}})
	c := NewClientWithBaseURL("k", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond, srv.URL)

	resp, err := c.Generate(context.Background(), chat())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestRetryAfterHonored(t *testing.T) {
	srv, _ := sequenceServer(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}})
	c := NewClientWithBaseURL("k", 5*time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)

	start := time.Now()
	_, err := c.Generate(context.Background(), chat())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestGenerateGivesUpOnServerErrors(t *testing.T) {
	srv, calls := sequenceServer(t, []int{503}, nil)
	c := NewClientWithBaseURL("k", 2*time.Second, 2, time.Millisecond, 5*time.Millisecond, srv.URL)

	_, err := c.Generate(context.Background(), chat())
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		body   map[string]any
		check  func(error) bool
	}{
		{401, map[string]any{"error": map[string]any{"message": "no key"}}, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{404, map[string]any{"error": map[string]any{"message": "model not found"}}, func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{400, map[string]any{"error": map[string]any{"message": "bad"}}, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{402, map[string]any{"error": map[string]any{"message": "billing required"}}, func(err error) bool { var e *QuotaExceededError; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-Id", "req_123")
			w.WriteHeader(tt.status)
			_ = json.NewEncoder(w).Encode(tt.body)
		}))
		c := NewClientWithBaseURL("k", time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)
		_, err := c.Generate(context.Background(), chat())
		srv.Close()
		require.Error(t, err, tt.status)
		assert.True(t, tt.check(err), "status %d: %v", tt.status, err)
		assert.Contains(t, err.Error(), "req_123")
	}
}

func TestGenerateRequiresKey(t *testing.T) {
	c := NewClient("", time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), chat())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewRuntime(t *testing.T) {
	rt, err := NewRuntime(RuntimeConfig{Provider: "dashscope", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1", rt.(*Client).BaseURL())

	rt, err = NewRuntime(RuntimeConfig{Provider: "openai", BaseURL: "http://gw.local/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://gw.local/v1", rt.(*Client).BaseURL())

	rt, err = NewRuntime(RuntimeConfig{Provider: "local"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, rt)

	_, err = NewRuntime(RuntimeConfig{Provider: "nope"})
	assert.Error(t, err)
}

func TestOllamaGenerate(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	req := chat()
	req.Messages = append([]Message{{Role: "system", Content: "sys"}}, req.Messages...)
	req.Temperature = 0.3
	resp, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello from ollama", resp.Text())
	assert.NotEmpty(t, resp.RequestID)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.3, got.Options["temperature"])
	assert.Equal(t, float64(1), got.Options["num_predict"])
}

func TestOllamaErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'x' not found"})
	}))
	c := NewOllamaClient(srv.URL, time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), chat())
	var mnf *ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.Equal(t, "model 'x' not found", mnf.Message)

	url := srv.URL
	srv.Close()
	c = NewOllamaClient(url, time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), chat())
	var ue *UnreachableError
	assert.ErrorAs(t, err, &ue)

	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m"})
	assert.EqualError(t, err, "messages cannot be empty")
}
