package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator is a streaming generation client for OpenAI-compatible
// chat-completion endpoints.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	logger  *slog.Logger
	onToken TokenCallback
	// Generation options
	maxTokens   int
	temperature float32
	topP        float32
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAITokenCallback registers an observer for streamed fragments.
func WithOpenAITokenCallback(cb TokenCallback) OpenAIOption {
	return func(o *OpenAIGenerator) {
		o.onToken = cb
	}
}

// WithOpenAIMaxTokens sets the max tokens to generate.
func WithOpenAIMaxTokens(maxTokens int) OpenAIOption {
	return func(o *OpenAIGenerator) {
		o.maxTokens = maxTokens
	}
}

// NewOpenAIGenerator creates a generation client for an OpenAI-compatible
// endpoint. An empty apiKey falls back to OPENAI_API_KEY; an empty
// baseURL uses the default API.
func NewOpenAIGenerator(apiKey, baseURL, model string, opts ...OpenAIOption) *OpenAIGenerator {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	o := &OpenAIGenerator{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		maxTokens:   defaultNumPredict,
		temperature: defaultTemperature,
		topP:        defaultTopP,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Generate streams a completion and accumulates the fragments. go-openai
// signals graceful completion by returning io.EOF from Recv after the
// endpoint's [DONE] marker; any other receive error is a failure.
func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	o.logger.Info("Generate called", "model", o.model, "prompt_len", len(prompt))

	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		TopP:        o.topP,
		Stream:      true,
	})
	if err != nil {
		return "", timeoutOr(ctx, "request", err)
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(answer.String()), nil
		}
		if err != nil {
			return "", timeoutOr(ctx, "stream", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		if token != "" {
			answer.WriteString(token)
			if o.onToken != nil {
				o.onToken(token)
			}
		}
	}
}

// Ensure OpenAIGenerator implements Generator.
var _ Generator = (*OpenAIGenerator)(nil)
