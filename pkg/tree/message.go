package tree

import (
	"time"

	"github.com/go-go-golems/arbor/pkg/ids"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageID string

func NewMessageID() MessageID { return MessageID(ids.New("msg")) }

type HighlightID string

func NewHighlightID() HighlightID { return HighlightID(ids.New("hl")) }

// Selection is the span of message text a branch was anchored to. Offsets
// are byte offsets into the UTF-8 text, half-open [StartOffset, EndOffset).
// Text is a redundant cached copy of the spanned substring so display code
// never has to re-derive it.
type Selection struct {
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

// Validate checks the selection against the text it was taken from.
func (sel Selection) Validate(text string) error {
	if sel.StartOffset < 0 || sel.EndOffset <= sel.StartOffset || sel.EndOffset > len(text) {
		return &SelectionError{
			StartOffset: sel.StartOffset,
			EndOffset:   sel.EndOffset,
			TextLength:  len(text),
		}
	}
	return nil
}

// Highlight links a span of a message's text to the child node it spawned.
// IsActive is derived state: true iff the child node lies on the currently
// active path. It is the only mutable field, rewritten by the reconciler.
type Highlight struct {
	ID          HighlightID `json:"id"`
	StartOffset int         `json:"startOffset"`
	EndOffset   int         `json:"endOffset"`
	Text        string      `json:"text"`
	ChildNodeID NodeID      `json:"childNodeId"`
	IsActive    bool        `json:"isActive"`
}

// Message is a single turn of the conversation. Messages are append-only:
// they are never edited or deleted once committed. Highlights are only
// populated on messages that spawned branches.
type Message struct {
	ID         MessageID    `json:"id"`
	Role       Role         `json:"role"`
	Text       string       `json:"text"`
	CreatedAt  time.Time    `json:"createdAt"`
	Highlights []*Highlight `json:"highlights,omitempty"`
}

type MessageOption func(*Message)

func WithMessageID(id MessageID) MessageOption {
	return func(m *Message) { m.ID = id }
}

func WithCreatedAt(t time.Time) MessageOption {
	return func(m *Message) { m.CreatedAt = t }
}

func NewMessage(role Role, text string, options ...MessageOption) *Message {
	ret := &Message{
		ID:        NewMessageID(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}
