package rag

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/aqua777/mediquery/llm"
	"github.com/aqua777/mediquery/prompts"
	"github.com/aqua777/mediquery/schema"
)

// DefaultDeadline bounds a single generation call.
const DefaultDeadline = 60 * time.Second

// Retriever retrieves fused documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]schema.RetrievedDocument, error)
}

// Engine is the question-answering pipeline: retrieve, assemble context,
// prompt, generate, append disclaimer. All collaborators are injected;
// the engine holds no global state.
type Engine struct {
	retriever Retriever
	assembler *Assembler
	generator llm.Generator
	template  *prompts.Template
	deadline  time.Duration
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDeadline sets the generation deadline.
func WithDeadline(deadline time.Duration) EngineOption {
	return func(e *Engine) {
		e.deadline = deadline
	}
}

// WithAssembler sets a custom context assembler.
func WithAssembler(assembler *Assembler) EngineOption {
	return func(e *Engine) {
		e.assembler = assembler
	}
}

// WithTemplate sets a custom query template. The template must expose
// {context} and {question} variables.
func WithTemplate(template *prompts.Template) EngineOption {
	return func(e *Engine) {
		e.template = template
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an answering engine over the given retriever and
// generator.
func NewEngine(ret Retriever, gen llm.Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		retriever: ret,
		assembler: NewAssembler(),
		generator: gen,
		template:  prompts.NewTemplate(prompts.DefaultQueryTemplate),
		deadline:  DefaultDeadline,
		logger:    slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Answer runs the full pipeline for a question and always returns a
// user-presentable string. Failures are rendered as descriptive messages
// rather than propagated; the disclaimer is appended on success only, so
// an error message never reads as medical guidance.
func (e *Engine) Answer(ctx context.Context, question string) string {
	answer, err := e.Query(ctx, question)
	if err != nil {
		return RenderError(err)
	}
	return answer + "\n\n" + prompts.Disclaimer
}

// Query runs the pipeline and returns the raw answer, without the
// disclaimer, alongside any error. Callers that need to distinguish
// failure classes programmatically use this instead of Answer.
func (e *Engine) Query(ctx context.Context, question string) (string, error) {
	e.logger.Info("query received", "question_len", len(question))

	docs, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		e.logger.Error("retrieval failed", "error", err)
		return "", err
	}

	promptContext := e.assembler.Assemble(docs)
	prompt := e.template.Format(map[string]string{
		"context":  promptContext,
		"question": question,
	})
	e.logger.Info("context assembled", "context_len", len(promptContext), "prompt_len", len(prompt))

	genCtx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	answer, err := e.generator.Generate(genCtx, prompt)
	if err != nil {
		e.logger.Error("generation failed", "error", err)
		return "", err
	}

	e.logger.Info("answer generated", "answer_len", len(answer))
	return answer, nil
}

// RenderError turns a pipeline error into the message shown to the user.
// The caller decides whether to expose it; nothing in the pipeline
// panics past this boundary.
func RenderError(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return "Error: the request timed out. Try reducing context size or using a smaller model."
	default:
		return "Error: " + err.Error()
	}
}
