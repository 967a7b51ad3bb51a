package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
	"github.com/KathiravanBCS/nexa-ai/pkg/logger"
)

var (
	ErrEmptyMessage = errors.New("message has no content")
	ErrSendInFlight = errors.New("a send is already in flight")
)

type Generator interface {
	GenerateReply(ctx context.Context, messages []domain.Message, keyOverride string) domain.GenerationResult
}

type ThreadStore interface {
	EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error)
	SaveMessage(ctx context.Context, threadID string, message domain.Message) error
	LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error)
}

type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// Controller coordinates one conversation view: optimistic message appends,
// reply generation and best-effort persistence of both turns. Sends are
// single-flight; view state may be read concurrently while a send runs, so
// all state access is guarded. The generator and store are called outside
// the lock.
type Controller struct {
	generator   Generator
	store       ThreadStore
	ownerID     string
	keyOverride string

	mu       sync.Mutex
	state    State
	threadID string
	messages []domain.Message
}

func NewController(generator Generator, store ThreadStore, ownerID string) *Controller {
	return &Controller{
		generator: generator,
		store:     store,
		ownerID:   ownerID,
		state:     StateIdle,
	}
}

// SetKeyOverride installs a local dev credential forwarded with every
// generate call. Never set in production configurations.
func (c *Controller) SetKeyOverride(key string) { c.keyOverride = key }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadID
}

// Messages returns a snapshot of the optimistic view of the conversation.
// The view is authoritative for the current session regardless of store
// outcomes.
func (c *Controller) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message(nil), c.messages...)
}

// OpenThread loads a persisted thread into the view. On store failure the
// view is cleared rather than left stale.
func (c *Controller) OpenThread(ctx context.Context, threadID string) error {
	messages, err := c.store.LoadMessages(ctx, threadID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.threadID = threadID
	if err != nil {
		c.messages = nil
		return err
	}
	c.messages = messages
	return nil
}

// Send runs one full exchange: append the user turn, generate a reply and
// append exactly one assistant turn whatever the outcome, persisting both.
// The assistant message is returned for display.
func (c *Controller) Send(ctx context.Context, text string, images []domain.ImageData) (domain.Message, error) {
	parts := composeParts(text, images)
	if len(parts) == 0 {
		return domain.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == StateSending {
		c.mu.Unlock()
		return domain.Message{}, ErrSendInFlight
	}
	c.state = StateSending
	c.mu.Unlock()
	defer c.setState(StateIdle)

	c.ensureThreadID(ctx, text)

	userMessage := domain.Message{Role: domain.RoleUser, Content: parts, CreatedAt: time.Now()}
	history := c.appendMessage(userMessage)
	c.persist(ctx, userMessage)

	result := c.generator.GenerateReply(ctx, history, c.keyOverride)

	replyText := result.Text
	if !result.OK() {
		replyText = displayText(result.Failure)
	}

	assistantMessage := domain.Message{
		Role:      domain.RoleAssistant,
		Content:   []domain.Part{{Type: domain.PartTypeText, Text: replyText}},
		CreatedAt: time.Now(),
	}
	c.appendMessage(assistantMessage)
	c.persist(ctx, assistantMessage)

	return assistantMessage, nil
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// appendMessage adds a message to the view and returns a snapshot of the
// transcript including it.
func (c *Controller) appendMessage(message domain.Message) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return append([]domain.Message(nil), c.messages...)
}

// ensureThreadID binds a thread id before the first turn is stored. A store
// failure falls back to a local-only id so the conversation stays usable;
// such threads will not reload across sessions.
func (c *Controller) ensureThreadID(ctx context.Context, titleHint string) {
	c.mu.Lock()
	bound := c.threadID != ""
	c.mu.Unlock()
	if bound {
		return
	}

	id, err := c.store.EnsureThread(ctx, strings.TrimSpace(titleHint), c.ownerID)
	if err != nil {
		slog.WarnContext(ctx, "Creating thread failed, using local id", logger.Err(err))
		id = "local-" + uuid.NewString()
	}

	c.mu.Lock()
	c.threadID = id
	c.mu.Unlock()
}

// persist is best-effort: the optimistic view is not rolled back on save
// failure, but the failure is logged.
func (c *Controller) persist(ctx context.Context, message domain.Message) {
	threadID := c.ThreadID()
	if err := c.store.SaveMessage(ctx, threadID, message); err != nil {
		slog.ErrorContext(ctx, "Saving message", "threadID", threadID, logger.Err(err))
	}
}

func composeParts(text string, images []domain.ImageData) []domain.Part {
	var parts []domain.Part
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		parts = append(parts, domain.Part{Type: domain.PartTypeText, Text: trimmed})
	}
	for _, img := range images {
		parts = append(parts, domain.Part{
			Type:     domain.PartTypeImage,
			Image:    img.Base64,
			MimeType: img.MimeType,
			Name:     img.Name,
		})
	}
	return parts
}

// displayText converts a failure into the short human-readable string shown
// as the assistant turn, keeping the thread coherent.
func displayText(failure *domain.GenerationFailure) string {
	switch failure.Kind {
	case domain.FailureTimeout:
		return "Request timed out. Please try again."
	case domain.FailureNetwork:
		return "Network error. Please try again."
	default:
		if failure.Message != "" {
			return failure.Message
		}
		return "Sorry, something went wrong. Please try again."
	}
}
