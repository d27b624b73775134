package model

// EntityType mirrors the platform's structured text annotations. Only the
// kinds the moderation pipeline cares about are listed.
type EntityType string

const (
	EntityMention  EntityType = "mention"
	EntityURL      EntityType = "url"
	EntityTextLink EntityType = "text_link"
)

// MessageEntity is a structured annotation over a message's text or caption.
// Offset and Length are in UTF-16 code units, as the platform reports them.
type MessageEntity struct {
	Type   EntityType
	Offset int
	Length int
	URL    string // set for text_link
}

// Sender identifies the author of a message.
type Sender struct {
	TelegramID int64
	Handle     string
	FirstName  string
	LastName   string
}

// DisplayName renders the sender for user-facing warnings.
func (s Sender) DisplayName() string {
	if s.Handle != "" {
		return "@" + s.Handle
	}
	name := s.FirstName
	if s.LastName != "" {
		name += " " + s.LastName
	}
	if name == "" {
		name = "User"
	}
	return name
}

// Message is the platform-neutral view of an inbound group message the
// decision engine evaluates. Edited messages reuse the same shape with
// Edited set.
type Message struct {
	ChatID          int64
	MessageID       int
	From            Sender
	Text            string
	Caption         string
	Entities        []MessageEntity
	CaptionEntities []MessageEntity
	Edited          bool
}

// Content returns the text body of the message, falling back to the caption
// for media messages.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// AllEntities returns text and caption annotations as one slice.
func (m *Message) AllEntities() []MessageEntity {
	if len(m.CaptionEntities) == 0 {
		return m.Entities
	}
	out := make([]MessageEntity, 0, len(m.Entities)+len(m.CaptionEntities))
	out = append(out, m.Entities...)
	out = append(out, m.CaptionEntities...)
	return out
}
