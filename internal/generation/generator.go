// Package generation calls the chat model that produces grounded answers.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// Model is the chat model used for answer generation.
	Model = openai.ChatModelGPT4o

	// DefaultMaxPromptChars bounds the prompt before it is sent. Retrieval is
	// already bounded by top_k, so this only guards against oversized chunks.
	DefaultMaxPromptChars = 64000
)

// ErrProvider marks generation failures originating from the external
// provider. The core never retries a whole request; only rate-limit backoff
// happens inside a single call.
var ErrProvider = errors.New("generation provider error")

// Generator produces answer text from a fully assembled prompt. The returned
// string is the final answer verbatim; there is no structured output
// contract and no streaming.
type Generator struct {
	client         *openai.Client
	maxPromptChars int
	logger         *slog.Logger
}

// NewGenerator creates a Generator sharing the given OpenAI client.
func NewGenerator(client *openai.Client, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:         client,
		maxPromptChars: DefaultMaxPromptChars,
		logger:         logger,
	}
}

// Generate sends the prompt and returns the model's reply as-is. Temperature
// is pinned to zero: answers must be reproducible for auditing.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = g.truncate(prompt)

	var answer string
	operation := func() error {
		resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model:       Model,
			Temperature: openai.Float(0),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("no choices in response"))
		}
		answer = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return answer, nil
}

func (g *Generator) truncate(prompt string) string {
	if len(prompt) <= g.maxPromptChars {
		return prompt
	}
	g.logger.Warn("truncating oversized prompt",
		"chars", len(prompt), "limit", g.maxPromptChars)
	return prompt[:g.maxPromptChars]
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
