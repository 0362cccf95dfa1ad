package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/domain"
	"github.com/clipdeck/clipdeck/internal/generation"
)

// System prompts framing the two generation tasks.
const (
	questionSystemPrompt = "You turn captured web text into a single flashcard question. " +
		"Answer with the question only, no preamble."

	clozeSystemPrompt = "You rewrite captured web text as an Anki cloze deletion using " +
		"{{c1::...}} markers. Answer with the rewritten text only."
)

// Generator implements generation.QuestionGenerator and
// generation.ClozeGenerator over the chat completions wire format.
type Generator struct {
	client ChatCompleter
	cfg    config.LLMConfig
	logger *slog.Logger
}

// ChatCompleter is the transport slice of the OpenAI client used by the
// Generator. Narrowed to an interface so retry behavior is testable without
// a network.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewGenerator creates a Generator backed by the real OpenAI client.
func NewGenerator(cfg config.LLMConfig, logger *slog.Logger) *Generator {
	return NewGeneratorWithClient(openai.NewClient(cfg.APIKey), cfg, logger)
}

// NewGeneratorWithClient creates a Generator with an explicit transport.
func NewGeneratorWithClient(client ChatCompleter, cfg config.LLMConfig, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "openai_generator"),
	}
}

// GenerateQuestion produces a front-side question for the given text. The
// call is single-shot: any failure is returned to the caller, which routes
// to manual entry.
func (g *Generator) GenerateQuestion(ctx context.Context, text string, page generation.PageContext) (string, error) {
	if err := generation.ValidateAPIKey(g.cfg.APIKey); err != nil {
		return "", err
	}

	prompt := generation.RenderPrompt(g.cfg.QuestionTemplate, text, page)
	return g.complete(ctx, questionSystemPrompt, prompt)
}

// GenerateCloze rewrites the given text with cloze markers, retrying
// transient failures up to cfg.MaxRetries attempts with exponential
// backoff. Permanent failures abort immediately; after the attempt bound is
// exhausted the last error surfaces unchanged.
func (g *Generator) GenerateCloze(ctx context.Context, text, guidance string, page generation.PageContext) (string, error) {
	if err := generation.ValidateAPIKey(g.cfg.APIKey); err != nil {
		return "", err
	}

	prompt := generation.RenderPrompt(g.cfg.ClozeTemplate, text, page)
	if guidance != "" {
		prompt += "\n\nAdditional guidance: " + guidance
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		result, err := g.complete(ctx, clozeSystemPrompt, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !domain.IsKind(err, domain.FaultTransientGeneration) {
			g.logger.Warn("cloze generation failed with permanent error",
				"attempt", attempt,
				"error", err)
			return "", err
		}

		if attempt == g.cfg.MaxRetries {
			break
		}

		// attempt n waits base * 2^(n-1)
		delay := g.cfg.RetryBaseDelay() * (1 << (attempt - 1))
		g.logger.Info("retrying cloze generation after transient error",
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", domain.NewFault(domain.FaultTransientGeneration,
				fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err()))
		}
	}

	g.logger.Warn("cloze generation exhausted retry attempts",
		"attempts", g.cfg.MaxRetries,
		"error", lastErr)
	return "", lastErr
}

// complete issues one chat completion call and extracts the first choice.
func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewFault(domain.FaultPermanentGeneration,
			fmt.Errorf("%w: no choices in completion", generation.ErrInvalidResponse))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.NewFault(domain.FaultPermanentGeneration,
			fmt.Errorf("%w: empty completion content", generation.ErrInvalidResponse))
	}

	return content, nil
}
