package chat

import "time"

// Roles of a conversation turn, matching the remote API contract.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// InlineData carries base64-encoded bytes inside a message part.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one content unit of a message: text or an inline image. Exactly one
// field is set. The JSON shape doubles as the remote wire shape, so parts
// serialize straight into the request payload.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(mimeType, base64Data string) Part {
	return Part{InlineData: &InlineData{MIMEType: mimeType, Data: base64Data}}
}

// IsImage reports whether the part carries inline image data.
func (p Part) IsImage() bool { return p.InlineData != nil }

// Message is a single conversation turn. Messages are append-only; slice
// order is causal conversation order.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

func NewModelMessage(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{TextPart(text)}}
}

// Text returns the concatenated text content of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// Session is one persisted conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Empty reports whether the session has no turns yet (the popup shows its
// welcome card for these).
func (s *Session) Empty() bool { return len(s.Messages) == 0 }

// PageContext is the extracted page text plus a screenshot, captured at most
// once per popup lifetime and reused for every turn in that lifetime. It is
// never persisted.
type PageContext struct {
	ExtractedText string
	Screenshot    string // base64 JPEG
}

// UploadedFile is a user-attached document, decoded to text. At most one is
// active per popup lifetime; it is never persisted.
type UploadedFile struct {
	Name      string
	SizeBytes int64
	Content   string
	Extension string
}
