package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image"
)

// Part is one atomic unit of message content. Type selects which fields are
// meaningful: Text for text parts, Image/MimeType/Name for image parts.
// Image holds base64 data, possibly with a data-URL transport prefix that is
// stripped at the provider boundary.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	Image    string   `json:"image,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Name     string   `json:"name,omitempty"`
}

type Message struct {
	Role      Role      `json:"role"`
	Content   []Part    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ImageData is the record shape produced by an external image picker.
type ImageData struct {
	Name     string
	MimeType string
	Base64   string
}
