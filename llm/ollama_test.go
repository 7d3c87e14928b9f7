package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccumulatesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "gemma2:2b", req.Model)
		assert.Contains(t, req.Prompt, "the question")

		for _, line := range []string{
			`{"response":"The answer","done":false}`,
			`{"response":" is 42.","done":false}`,
			`{"response":"","done":true}`,
		} {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))
	answer, err := gen.Generate(context.Background(), "the question")

	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
}

func TestGenerateSendsFixedOptions(t *testing.T) {
	var gotOptions map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotOptions = req.Options
		w.Write([]byte(`{"response":"ok","done":true}` + "\n"))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))
	_, err := gen.Generate(context.Background(), "q")
	require.NoError(t, err)

	assert.EqualValues(t, 200, gotOptions["num_predict"])
	assert.EqualValues(t, 1024, gotOptions["num_ctx"])
	assert.InDelta(t, 0.1, gotOptions["temperature"], 0.001)
	assert.InDelta(t, 0.9, gotOptions["top_p"], 0.001)
}

func TestGenerateTokenCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"a","done":false}` + "\n"))
		w.Write([]byte(`{"response":"b","done":true}` + "\n"))
	}))
	defer server.Close()

	var tokens []string
	gen := NewOllamaGenerator(
		WithOllamaBaseURL(server.URL),
		WithTokenCallback(func(token string) { tokens = append(tokens, token) }),
	)

	answer, err := gen.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ab", answer)
	assert.Equal(t, []string{"a", "b"}, tokens)
}

func TestGenerateStreamWithoutDoneFails(t *testing.T) {
	// The connection closes cleanly but the done marker never arrives.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"partial answer","done":false}` + "\n"))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))
	_, err := gen.Generate(context.Background(), "q")

	require.Error(t, err)
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Contains(t, err.Error(), "completion signal")
}

func TestGenerateHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))
	_, err := gen.Generate(context.Background(), "q")

	require.Error(t, err)
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read starts and the
		// client disconnect cancels the request context; otherwise the
		// handler blocks forever and server.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gen.Generate(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "timed out")
}

func TestGenerateMalformedStreamLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json\n"))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(WithOllamaBaseURL(server.URL))
	_, err := gen.Generate(context.Background(), "q")

	require.Error(t, err)
	var infErr *InferenceError
	assert.ErrorAs(t, err, &infErr)
}

func TestTimeoutOrClassification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, timeoutOr(ctx, "request", context.Canceled), ErrTimeout)

	err := timeoutOr(context.Background(), "stream", assert.AnError)
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, "stream", infErr.Op)
}
