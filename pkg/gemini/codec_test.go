package gemini

import (
	"reflect"
	"testing"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

func TestBuildContents(t *testing.T) {
	tests := []struct {
		name     string
		messages []domain.Message
		want     []Content
	}{
		{
			name: "roles map to provider vocabulary",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{{Type: domain.PartTypeText, Text: "Hello"}}},
				{Role: domain.RoleAssistant, Content: []domain.Part{{Type: domain.PartTypeText, Text: "Hi there!"}}},
			},
			want: []Content{
				{Role: "user", Parts: []Part{{Text: "Hello"}}},
				{Role: "model", Parts: []Part{{Text: "Hi there!"}}},
			},
		},
		{
			name: "text parts are trimmed",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{{Type: domain.PartTypeText, Text: "  padded  "}}},
			},
			want: []Content{
				{Role: "user", Parts: []Part{{Text: "padded"}}},
			},
		},
		{
			name: "whitespace-only message is dropped entirely",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{
					{Type: domain.PartTypeText, Text: "   "},
					{Type: domain.PartTypeText, Text: "\n\t"},
				}},
			},
			want: []Content{},
		},
		{
			name: "data URL prefix is stripped from image data",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{
					{Type: domain.PartTypeImage, Image: "data:image/png;base64,iVBORw0KGgo=", MimeType: "image/png"},
				}},
			},
			want: []Content{
				{Role: "user", Parts: []Part{{InlineData: &InlineData{MimeType: "image/png", Data: "iVBORw0KGgo="}}}},
			},
		},
		{
			name: "raw base64 image passes through unchanged",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{
					{Type: domain.PartTypeImage, Image: "iVBORw0KGgo=", MimeType: "image/png"},
				}},
			},
			want: []Content{
				{Role: "user", Parts: []Part{{InlineData: &InlineData{MimeType: "image/png", Data: "iVBORw0KGgo="}}}},
			},
		},
		{
			name: "image without mime type is dropped",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{
					{Type: domain.PartTypeImage, Image: "iVBORw0KGgo="},
					{Type: domain.PartTypeText, Text: "what is this"},
				}},
			},
			want: []Content{
				{Role: "user", Parts: []Part{{Text: "what is this"}}},
			},
		},
		{
			name: "image with only a prefix yields no data and is dropped",
			messages: []domain.Message{
				{Role: domain.RoleUser, Content: []domain.Part{
					{Type: domain.PartTypeImage, Image: "data:image/png;base64,", MimeType: "image/png"},
				}},
			},
			want: []Content{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := BuildContents(test.messages)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("expected %+v, got %+v", test.want, got)
			}
		})
	}
}

func TestBuildContentsIsDeterministic(t *testing.T) {
	messages := []domain.Message{
		{Role: domain.RoleUser, Content: []domain.Part{
			{Type: domain.PartTypeText, Text: " Hello "},
			{Type: domain.PartTypeImage, Image: "data:image/jpeg;base64,abc", MimeType: "image/jpeg"},
		}},
	}

	first := BuildContents(messages)
	second := BuildContents(messages)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output across calls, got %+v and %+v", first, second)
	}
}
