package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

type fakeThreadRepo struct {
	threads   []domain.Thread
	ensureErr error
	renameErr error
	deleteErr error

	gotHint  string
	gotOwner string
	gotID    string
	gotTitle string
}

func (f *fakeThreadRepo) EnsureThread(ctx context.Context, titleHint, ownerID string) (string, error) {
	f.gotHint = titleHint
	f.gotOwner = ownerID
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	return "thread-1", nil
}

func (f *fakeThreadRepo) ListThreads(ctx context.Context, ownerID string) ([]domain.Thread, error) {
	f.gotOwner = ownerID
	return f.threads, nil
}

func (f *fakeThreadRepo) RenameThread(ctx context.Context, id, title string) error {
	f.gotID = id
	f.gotTitle = title
	return f.renameErr
}

func (f *fakeThreadRepo) DeleteThread(ctx context.Context, id string) error {
	f.gotID = id
	return f.deleteErr
}

type fakeMessageRepo struct {
	messages []domain.Message
	saved    []domain.Message
	saveErr  error
}

func (f *fakeMessageRepo) SaveMessage(ctx context.Context, threadID string, message domain.Message) error {
	f.saved = append(f.saved, message)
	return f.saveErr
}

func (f *fakeMessageRepo) LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	return f.messages, nil
}

func TestCreateThreadForwardsOwner(t *testing.T) {
	repo := &fakeThreadRepo{}
	h := NewThreads(repo, &fakeMessageRepo{})

	req := httptest.NewRequest(http.MethodPost, "/threads", strings.NewReader(`{"title": "Hello there"}`))
	req.Header.Set("x-user-id", "user-42")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.gotOwner != "user-42" {
		t.Errorf("expected owner from header, got %q", repo.gotOwner)
	}
	if repo.gotHint != "Hello there" {
		t.Errorf("expected title hint forwarded, got %q", repo.gotHint)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["id"] != "thread-1" {
		t.Errorf("expected created thread id, got %q", body["id"])
	}
}

func TestListThreadsScopesToCaller(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantOwner string
	}{
		{"anonymous", "", ""},
		{"authenticated", "user-42", "user-42"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := &fakeThreadRepo{threads: []domain.Thread{{ID: "t1", Title: "New chat"}}}
			h := NewThreads(repo, &fakeMessageRepo{})

			req := httptest.NewRequest(http.MethodGet, "/threads", nil)
			if test.header != "" {
				req.Header.Set("x-user-id", test.header)
			}
			rec := httptest.NewRecorder()
			h.List(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if repo.gotOwner != test.wantOwner {
				t.Errorf("expected owner %q passed to the repository, got %q", test.wantOwner, repo.gotOwner)
			}
		})
	}
}

func TestRenameThreadNotFound(t *testing.T) {
	repo := &fakeThreadRepo{renameErr: domain.ErrNotFound}
	h := NewThreads(repo, &fakeMessageRepo{})

	req := httptest.NewRequest(http.MethodPatch, "/threads/missing", strings.NewReader(`{"title": "New name"}`))
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.Rename(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteThread(t *testing.T) {
	tests := []struct {
		name       string
		deleteErr  error
		wantStatus int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"missing", domain.ErrNotFound, http.StatusNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := &fakeThreadRepo{deleteErr: test.deleteErr}
			h := NewThreads(repo, &fakeMessageRepo{})

			req := httptest.NewRequest(http.MethodDelete, "/threads/t1", nil)
			req.SetPathValue("id", "t1")
			rec := httptest.NewRecorder()
			h.Delete(rec, req)

			if rec.Code != test.wantStatus {
				t.Errorf("expected %d, got %d", test.wantStatus, rec.Code)
			}
			if repo.gotID != "t1" {
				t.Errorf("expected delete against t1, got %q", repo.gotID)
			}
		})
	}
}

func TestSaveMessageRejectsBadBody(t *testing.T) {
	h := NewThreads(&fakeThreadRepo{}, &fakeMessageRepo{})

	req := httptest.NewRequest(http.MethodPost, "/threads/t1/messages", strings.NewReader("not json"))
	req.SetPathValue("id", "t1")
	rec := httptest.NewRecorder()
	h.SaveMessage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
