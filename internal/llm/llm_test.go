package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/bugsy/internal/config"
)

func testConfig(provider, baseURL string) config.LLM {
	return config.LLM{
		Provider:    provider,
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     baseURL,
		Timeout:     "5s",
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

func TestNew_MissingKey(t *testing.T) {
	cfg := testConfig(config.ProviderDeepSeek, "http://unused")
	cfg.APIKey = ""

	_, err := New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY environment variable required")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(testConfig("mystery", ""))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_Offline(t *testing.T) {
	cfg := testConfig(config.ProviderOpenAI, "http://unused")
	cfg.Offline = true

	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_BadTimeout(t *testing.T) {
	cfg := testConfig(config.ProviderOpenAI, "http://unused")
	cfg.Timeout = "never"

	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_Providers(t *testing.T) {
	tests := []struct {
		provider string
		want     any
	}{
		{config.ProviderDeepSeek, &OpenAIClient{}},
		{config.ProviderOpenAI, &OpenAIClient{}},
		{config.ProviderAnthropic, &AnthropicClient{}},
		{config.ProviderGoogle, &GoogleClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			gen, err := New(testConfig(tt.provider, ""))
			require.NoError(t, err)
			assert.IsType(t, tt.want, gen)
		})
	}
}

func TestNew_RateLimitWraps(t *testing.T) {
	cfg := testConfig(config.ProviderOpenAI, "http://unused")
	cfg.RequestsPerMinute = 30

	gen, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &limited{}, gen)
}

func TestWithRateLimit_Disabled(t *testing.T) {
	gen := Static{Reply: "x"}
	assert.Equal(t, gen, WithRateLimit(gen, 0))
}

func TestWithRateLimit_HonoursContext(t *testing.T) {
	gen := WithRateLimit(Static{Reply: "ok"}, 1)

	out, err := gen.Generate(context.Background(), "", "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	// The single token is spent; the next call would wait a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = gen.Generate(ctx, "", "p")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestStubGenerators(t *testing.T) {
	ctx := context.Background()

	out, err := Static{Reply: `{"a":1}`}.Generate(ctx, "s", "p")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	_, err = Failing{}.Generate(ctx, "s", "p")
	assert.ErrorIs(t, err, ErrBackend)

	cause := errors.New("no key")
	_, err = Unavailable{Err: cause}.Generate(ctx, "s", "p")
	assert.Equal(t, cause, err)

	_, err = Unavailable{}.Generate(ctx, "s", "p")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 0.2, req.Temperature)
		assert.Equal(t, []openAIMessage{
			{Role: "system", Content: "be strict"},
			{Role: "user", Content: "the prompt"},
		}, req.Messages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"id\":\"A\"}]"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(testConfig(config.ProviderDeepSeek, server.URL+"/"), server.Client())
	out, err := client.Generate(context.Background(), "be strict", "the prompt")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"A"}]`, out)
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"non-200", http.StatusUnauthorized, `{"error":"bad key"}`, "API error (401)"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "empty response"},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, "empty response"},
		{"not json", http.StatusOK, `<html>`, "failed to parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOpenAIClient(testConfig(config.ProviderOpenAI, server.URL), server.Client())
			_, err := client.Generate(context.Background(), "s", "p")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBackend)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	httpClient := server.Client()
	httpClient.Timeout = 50 * time.Millisecond
	client := NewOpenAIClient(testConfig(config.ProviderOpenAI, server.URL), httpClient)

	_, err := client.Generate(context.Background(), "s", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "be strict", req.System)
		assert.Equal(t, 1024, req.MaxTokens)
		assert.Equal(t, []anthropicMessage{{Role: "user", Content: "prompt"}}, req.Messages)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"query\":"},{"type":"tool_use"},{"type":"text","text":"\"q\"}"}]}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(testConfig(config.ProviderAnthropic, server.URL), server.Client())
	out, err := client.Generate(context.Background(), "be strict", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"query":"q"}`, out)
}

func TestAnthropicClient_DefaultMaxTokens(t *testing.T) {
	cfg := testConfig(config.ProviderAnthropic, "http://unused")
	cfg.MaxTokens = 0
	client := NewAnthropicClient(cfg, http.DefaultClient)
	assert.Equal(t, 4096, client.maxTokens)
}

func TestAnthropicClient_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(testConfig(config.ProviderAnthropic, server.URL), server.Client())
	_, err := client.Generate(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestGoogleClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "test-model:generateContent")

		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		genCfg, _ := req["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", genCfg["responseMimeType"])
		assert.Contains(t, req, "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[1,2]"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(), testConfig(config.ProviderGoogle, server.URL), server.Client())
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "be strict", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", out)
}

func TestGoogleClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer server.Close()

	client, err := NewGoogleClient(context.Background(), testConfig(config.ProviderGoogle, server.URL), server.Client())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrBackend)
}
