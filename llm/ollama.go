package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// OllamaDefaultURL is the default Ollama API endpoint.
const OllamaDefaultURL = "http://localhost:11434"

// OllamaDefaultModel is the default generation model.
const OllamaDefaultModel = "gemma2:2b"

// Default generation options: short answers, small context window, near
// deterministic sampling. Chosen for speed over creativity, appropriate
// for factual lookup against a supplied context.
const (
	defaultNumPredict  = 200
	defaultNumCtx      = 1024
	defaultTemperature = 0.1
	defaultTopP        = 0.9
)

// OllamaGenerator is a streaming generation client for the Ollama
// /api/generate endpoint.
type OllamaGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	onToken    TokenCallback
	// Generation options
	numPredict  int
	numCtx      int
	temperature float32
	topP        float32
}

// OllamaOption configures an OllamaGenerator.
type OllamaOption func(*OllamaGenerator)

// WithOllamaBaseURL sets the base URL.
func WithOllamaBaseURL(baseURL string) OllamaOption {
	return func(o *OllamaGenerator) {
		o.baseURL = baseURL
	}
}

// WithOllamaModel sets the generation model.
func WithOllamaModel(model string) OllamaOption {
	return func(o *OllamaGenerator) {
		o.model = model
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(o *OllamaGenerator) {
		o.httpClient = client
	}
}

// WithOllamaNumPredict sets the max tokens to generate.
func WithOllamaNumPredict(numPredict int) OllamaOption {
	return func(o *OllamaGenerator) {
		o.numPredict = numPredict
	}
}

// WithOllamaNumCtx sets the context window size.
func WithOllamaNumCtx(numCtx int) OllamaOption {
	return func(o *OllamaGenerator) {
		o.numCtx = numCtx
	}
}

// WithOllamaTemperature sets the sampling temperature.
func WithOllamaTemperature(temperature float32) OllamaOption {
	return func(o *OllamaGenerator) {
		o.temperature = temperature
	}
}

// WithOllamaTopP sets the nucleus-sampling cutoff.
func WithOllamaTopP(topP float32) OllamaOption {
	return func(o *OllamaGenerator) {
		o.topP = topP
	}
}

// WithTokenCallback registers an observer for streamed fragments.
func WithTokenCallback(cb TokenCallback) OllamaOption {
	return func(o *OllamaGenerator) {
		o.onToken = cb
	}
}

// NewOllamaGenerator creates a new Ollama generation client.
func NewOllamaGenerator(opts ...OllamaOption) *OllamaGenerator {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = OllamaDefaultURL
	}

	o := &OllamaGenerator{
		baseURL:     baseURL,
		model:       OllamaDefaultModel,
		httpClient:  http.DefaultClient,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		numPredict:  defaultNumPredict,
		numCtx:      defaultNumCtx,
		temperature: defaultTemperature,
		topP:        defaultTopP,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate streams a completion and accumulates the fragments. The
// endpoint's done flag is the sole success signal; a stream that ends
// without it is reported as an InferenceError, not as a short answer.
func (o *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	o.logger.Info("Generate called", "model", o.model, "prompt_len", len(prompt))

	reqBody := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: true,
		Options: map[string]interface{}{
			"num_predict": o.numPredict,
			"num_ctx":     o.numCtx,
			"temperature": o.temperature,
			"top_p":       o.topP,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &InferenceError{Op: "request encoding", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", &InferenceError{Op: "request creation", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", timeoutOr(ctx, "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &InferenceError{Op: "request", Err: fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))}
	}

	var answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return "", timeoutOr(ctx, "stream", ctx.Err())
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var streamResp ollamaGenerateResponse
		if err := json.Unmarshal(line, &streamResp); err != nil {
			return "", &InferenceError{Op: "stream decoding", Err: err}
		}

		if streamResp.Response != "" {
			answer.WriteString(streamResp.Response)
			if o.onToken != nil {
				o.onToken(streamResp.Response)
			}
		}

		if streamResp.Done {
			return strings.TrimSpace(answer.String()), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", timeoutOr(ctx, "stream", err)
	}

	// The connection closed without the completion marker; a dropped
	// connection is a failure, not a short answer.
	return "", &InferenceError{Op: "stream", Err: fmt.Errorf("stream ended before completion signal")}
}

// Ensure OllamaGenerator implements Generator.
var _ Generator = (*OllamaGenerator)(nil)
