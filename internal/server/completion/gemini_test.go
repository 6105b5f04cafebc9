package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate_OK(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k3y", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello there"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL+"/", "k3y", time.Second)
	text, err := c.Generate(context.Background(), "gemini-1.5-flash", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hi", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.7, got.GenerationConfig.Temperature)
	assert.Equal(t, 40, got.GenerationConfig.TopK)
	assert.Equal(t, 0.95, got.GenerationConfig.TopP)
	assert.Equal(t, 2048, got.GenerationConfig.MaxOutputTokens)
	require.Len(t, got.SafetySettings, 2)
	assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", got.SafetySettings[1].Threshold)
}

func TestGeminiClient_Generate_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	text, err := NewGeminiClient(srv.URL, "k", time.Second).Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, FallbackText, text)
}

func TestGeminiClient_Generate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models/broken:generateContent" {
			_, _ = w.Write([]byte("<html>gateway</html>"))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"from ok"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL, "k", time.Second)
	_, err := c.Generate(context.Background(), "broken", "p")
	require.Error(t, err)

	// a broken answer moves the gateway on to the next model
	g := NewGateway(c, WithModels([]string{"broken", "ok"}), WithRetry(0, 0))
	res, err := g.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "from ok", res.Text)
	assert.Equal(t, "ok", res.Model)
}

func TestGeminiClient_Generate_APIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		transient bool
	}{
		{"overloaded", 503, `{"error":{"message":"The model is overloaded."}}`, "503: The model is overloaded.", true},
		{"rate limited", 429, `{"error":{"message":"quota"}}`, "429: quota", true},
		{"bad request", 400, `{"error":{"message":"bad"}}`, "400: bad", false},
		{"garbage body", 500, `oops`, "500: Unknown error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGeminiClient(srv.URL, "k", time.Second).Generate(context.Background(), "m", "p")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
			assert.Equal(t, tt.transient, apiErr.Transient())
		})
	}
}

func TestGeminiClient_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGeminiClient(url, "super-secret", time.Second).Generate(context.Background(), "m", "p")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret")
}
