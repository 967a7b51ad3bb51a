package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/KathiravanBCS/nexa-ai/pkg/apikey"
	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
	"github.com/KathiravanBCS/nexa-ai/pkg/gemini"
	"github.com/KathiravanBCS/nexa-ai/pkg/logger"
)

type KeyResolver interface {
	Resolve(override string) (string, error)
}

type Gateway interface {
	GenerateContent(ctx context.Context, contents []gemini.Content, key, modelID string) (string, error)
}

const noResponseText = "No response generated. Please try again."

// GenerateService is the façade for one bounded generate-reply attempt:
// resolve a key, encode the conversation, call the gateway, all under a
// single wall-clock deadline.
type GenerateService struct {
	keys    KeyResolver
	gateway Gateway
	modelID string
	timeout time.Duration
}

func NewGenerateService(keys KeyResolver, gateway Gateway, modelID string, timeout time.Duration) *GenerateService {
	return &GenerateService{
		keys:    keys,
		gateway: gateway,
		modelID: modelID,
		timeout: timeout,
	}
}

// GenerateReply always returns a uniform result: Text on success, otherwise
// a Failure carrying the user-facing status and message. Single attempt, no
// retries; when the deadline fires the in-flight call is cancelled and its
// late result discarded.
func (s *GenerateService) GenerateReply(ctx context.Context, messages []domain.Message, keyOverride string) domain.GenerationResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	outCh := make(chan outcome, 1)

	go func() {
		key, err := s.keys.Resolve(keyOverride)
		if err != nil {
			outCh <- outcome{err: err}
			return
		}
		slog.DebugContext(ctx, "Generating reply", "model", s.modelID, "key", apikey.Mask(key))

		contents := gemini.BuildContents(messages)
		text, err := s.gateway.GenerateContent(ctx, contents, key, s.modelID)
		outCh <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		// Only the deadline is a timeout; the caller going away (client
		// disconnect) is not.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return s.timeoutFailure()
		}
		return s.failureFrom(ctx, ctx.Err())
	case out := <-outCh:
		if out.err != nil {
			return s.failureFrom(ctx, out.err)
		}
		text, _ := lo.Coalesce(strings.TrimSpace(out.text), noResponseText)
		return domain.GenerationResult{Text: text}
	}
}

func (s *GenerateService) timeoutFailure() domain.GenerationResult {
	return domain.GenerationResult{Failure: &domain.GenerationFailure{
		Kind:    domain.FailureTimeout,
		Status:  504,
		Message: fmt.Sprintf("Model did not respond within %dms", s.timeout.Milliseconds()),
	}}
}

func (s *GenerateService) failureFrom(ctx context.Context, err error) domain.GenerationResult {
	var provErr *domain.ProviderError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		// The gateway lost the race and reported the cancellation itself.
		return s.timeoutFailure()
	case errors.Is(err, domain.ErrMissingCredential):
		return domain.GenerationResult{Failure: &domain.GenerationFailure{
			Kind:    domain.FailureMissingCredential,
			Status:  401,
			Message: err.Error(),
		}}
	case errors.As(err, &provErr):
		return domain.GenerationResult{Failure: &domain.GenerationFailure{
			Kind:    domain.FailureProvider,
			Status:  provErr.Status,
			Message: provErr.Message,
		}}
	default:
		slog.ErrorContext(ctx, "Generating reply", logger.Err(err))
		return domain.GenerationResult{Failure: &domain.GenerationFailure{
			Kind:    domain.FailureInternal,
			Status:  500,
			Message: err.Error(),
		}}
	}
}
