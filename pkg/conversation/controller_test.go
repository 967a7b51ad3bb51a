package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

type fakeGenerator struct {
	result domain.GenerationResult

	gotMessages []domain.Message
	gotOverride string
	onGenerate  func()
}

func (f *fakeGenerator) GenerateReply(ctx context.Context, messages []domain.Message, keyOverride string) domain.GenerationResult {
	f.gotMessages = messages
	f.gotOverride = keyOverride
	if f.onGenerate != nil {
		f.onGenerate()
	}
	return f.result
}

type savedMessage struct {
	threadID string
	message  domain.Message
}

type fakeStore struct {
	threadID   string
	ensureErr  error
	saveErr    error
	loaded     []domain.Message
	loadErr    error
	saved      []savedMessage
	ensureHint string
	ensureOwn  string
}

func (f *fakeStore) EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error) {
	f.ensureHint = titleHint
	f.ensureOwn = ownerID
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	return f.threadID, nil
}

func (f *fakeStore) SaveMessage(ctx context.Context, threadID string, message domain.Message) error {
	f.saved = append(f.saved, savedMessage{threadID: threadID, message: message})
	return f.saveErr
}

func (f *fakeStore) LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	return f.loaded, f.loadErr
}

func success(text string) domain.GenerationResult {
	return domain.GenerationResult{Text: text}
}

func TestSendFullExchange(t *testing.T) {
	generator := &fakeGenerator{result: success("Hi there!")}
	store := &fakeStore{threadID: "thread-1"}
	c := NewController(generator, store, "user-42")

	reply, err := c.Send(context.Background(), "Hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Role != domain.RoleAssistant || reply.Content[0].Text != "Hi there!" {
		t.Errorf("unexpected assistant reply %+v", reply)
	}

	messages := c.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages in view, got %d", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[0].Content[0].Text != "Hello" {
		t.Errorf("unexpected user turn %+v", messages[0])
	}
	if messages[1].Role != domain.RoleAssistant || messages[1].Content[0].Text != "Hi there!" {
		t.Errorf("unexpected assistant turn %+v", messages[1])
	}

	if len(store.saved) != 2 {
		t.Fatalf("expected both turns persisted, got %d saves", len(store.saved))
	}
	if store.saved[0].threadID != "thread-1" || store.saved[1].threadID != "thread-1" {
		t.Errorf("expected saves against the resolved thread id, got %+v", store.saved)
	}
	if store.ensureOwn != "user-42" {
		t.Errorf("expected owner forwarded to the store, got %q", store.ensureOwn)
	}
}

func TestSendOptimisticAppendBeforeGenerate(t *testing.T) {
	generator := &fakeGenerator{result: success("ok")}
	store := &fakeStore{threadID: "thread-1"}
	c := NewController(generator, store, "")

	var viewAtGenerate int
	generator.onGenerate = func() {
		viewAtGenerate = len(c.Messages())
	}

	if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viewAtGenerate != 1 {
		t.Errorf("expected user turn visible before the generate call, view had %d messages", viewAtGenerate)
	}
}

func TestSendEmptyContentRejected(t *testing.T) {
	c := NewController(&fakeGenerator{}, &fakeStore{}, "")

	if _, err := c.Send(context.Background(), "   \n\t", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected no messages appended, got %d", len(c.Messages()))
	}
}

func TestSendImagesOnlyIsAllowed(t *testing.T) {
	generator := &fakeGenerator{result: success("a cat")}
	store := &fakeStore{threadID: "thread-1"}
	c := NewController(generator, store, "")

	images := []domain.ImageData{{Name: "cat.png", MimeType: "image/png", Base64: "iVBORw0KGgo="}}
	if _, err := c.Send(context.Background(), "", images); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userTurn := c.Messages()[0]
	if len(userTurn.Content) != 1 || userTurn.Content[0].Type != domain.PartTypeImage {
		t.Errorf("expected a single image part, got %+v", userTurn.Content)
	}
}

func TestSendSingleFlight(t *testing.T) {
	store := &fakeStore{threadID: "thread-1"}
	generator := &fakeGenerator{result: success("ok")}
	c := NewController(generator, store, "")

	// Re-entrant send while the first is in flight must be refused.
	var nestedErr error
	generator.onGenerate = func() {
		_, nestedErr = c.Send(context.Background(), "again", nil)
	}

	if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(nestedErr, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight for nested send, got %v", nestedErr)
	}
	if c.State() != StateIdle {
		t.Errorf("expected controller back to idle, got %q", c.State())
	}
}

func TestSendThreadCreationFallsBackToLocalID(t *testing.T) {
	store := &fakeStore{ensureErr: &domain.PersistenceError{Op: "creating thread", Err: errors.New("store unreachable")}}
	c := NewController(&fakeGenerator{result: success("ok")}, store, "")

	if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(c.ThreadID(), "local-") {
		t.Errorf("expected local fallback thread id, got %q", c.ThreadID())
	}
	if len(store.saved) != 2 {
		t.Errorf("expected both turns still persisted against the local id, got %d", len(store.saved))
	}
}

func TestSendFailureStillAppendsAssistantTurn(t *testing.T) {
	tests := []struct {
		name     string
		failure  *domain.GenerationFailure
		wantText string
	}{
		{
			name:     "timeout",
			failure:  &domain.GenerationFailure{Kind: domain.FailureTimeout, Status: 504, Message: "Model did not respond within 10ms"},
			wantText: "Request timed out. Please try again.",
		},
		{
			name:     "network",
			failure:  &domain.GenerationFailure{Kind: domain.FailureNetwork, Message: "dial tcp: connection refused"},
			wantText: "Network error. Please try again.",
		},
		{
			name:     "server message passes through",
			failure:  &domain.GenerationFailure{Kind: domain.FailureProvider, Status: 429, Message: "rate limited"},
			wantText: "rate limited",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := &fakeStore{threadID: "thread-1"}
			c := NewController(&fakeGenerator{result: domain.GenerationResult{Failure: test.failure}}, store, "")

			reply, err := c.Send(context.Background(), "Hello", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reply.Content[0].Text != test.wantText {
				t.Errorf("expected assistant text %q, got %q", test.wantText, reply.Content[0].Text)
			}
			if len(c.Messages()) != 2 {
				t.Errorf("expected exactly one assistant turn appended, view has %d messages", len(c.Messages()))
			}
			if len(store.saved) != 2 {
				t.Errorf("expected both turns persisted, got %d", len(store.saved))
			}
		})
	}
}

func TestSendSaveFailureDoesNotRollBackView(t *testing.T) {
	store := &fakeStore{threadID: "thread-1", saveErr: &domain.PersistenceError{Op: "saving message", Err: errors.New("down")}}
	c := NewController(&fakeGenerator{result: success("ok")}, store, "")

	if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Messages()) != 2 {
		t.Errorf("expected optimistic view kept, got %d messages", len(c.Messages()))
	}
}

func TestConcurrentViewReadsDuringSend(t *testing.T) {
	generator := &fakeGenerator{result: success("ok")}
	store := &fakeStore{threadID: "thread-1"}
	c := NewController(generator, store, "")

	// Readers poll the view while Send mutates it, mirroring a UI loop
	// redrawing during an in-flight send.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = c.Messages()
					_ = c.ThreadID()
					_ = c.State()
				}
			}
		}()
	}

	generator.onGenerate = func() {
		time.Sleep(10 * time.Millisecond)
	}

	for i := 0; i < 5; i++ {
		if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	if len(c.Messages()) != 10 {
		t.Errorf("expected 10 messages after 5 exchanges, got %d", len(c.Messages()))
	}
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	store := &fakeStore{threadID: "thread-1"}
	c := NewController(&fakeGenerator{result: success("ok")}, store, "")

	if _, err := c.Send(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := c.Messages()
	snapshot[0] = domain.Message{Role: domain.RoleAssistant}

	if got := c.Messages(); len(got) != 2 || got[0].Role != domain.RoleUser {
		t.Errorf("expected view unaffected by snapshot mutation, got %+v", got)
	}
}

func TestOpenThreadClearsViewOnFailure(t *testing.T) {
	store := &fakeStore{loadErr: &domain.PersistenceError{Op: "loading messages", Err: errors.New("down")}}
	c := NewController(&fakeGenerator{}, store, "")
	c.messages = []domain.Message{{Role: domain.RoleUser}}

	if err := c.OpenThread(context.Background(), "thread-9"); err == nil {
		t.Fatal("expected error")
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected view cleared on load failure, got %d messages", len(c.Messages()))
	}
}
