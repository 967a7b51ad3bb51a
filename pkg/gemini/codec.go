package gemini

import (
	"strings"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

const base64Marker = "base64,"

// BuildContents converts application messages into provider turns. Pure:
// whitespace-only text parts and incomplete image parts are dropped, and a
// message left with no parts is dropped entirely rather than sent as an
// empty turn.
func BuildContents(messages []domain.Message) []Content {
	contents := make([]Content, 0, len(messages))
	for _, m := range messages {
		parts := make([]Part, 0, len(m.Content))
		for _, p := range m.Content {
			switch p.Type {
			case domain.PartTypeText:
				if text := strings.TrimSpace(p.Text); text != "" {
					parts = append(parts, Part{Text: text})
				}
			case domain.PartTypeImage:
				if p.Image == "" || p.MimeType == "" {
					continue
				}
				data := stripBase64Prefix(p.Image)
				if data == "" {
					continue
				}
				parts = append(parts, Part{InlineData: &InlineData{
					MimeType: p.MimeType,
					Data:     data,
				}})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, Content{Role: toGeminiRole(m.Role), Parts: parts})
	}
	return contents
}

func toGeminiRole(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "model"
	}
	return "user"
}

// stripBase64Prefix drops a data-URL transport prefix, keeping only the
// substring after the "base64," marker.
func stripBase64Prefix(data string) string {
	if i := strings.Index(data, base64Marker); i >= 0 {
		return data[i+len(base64Marker):]
	}
	return data
}
