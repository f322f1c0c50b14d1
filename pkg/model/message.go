package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type MessageID string

// NewMessageID generates a time-ordered unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Source is a citation attached to a search grounded reply
type Source struct {
	Title string `json:"title" firestore:"title"`
	URI   string `json:"uri" firestore:"uri"`
}

// Message is one conversational turn. Only Text of a streaming agent reply
// changes after creation, and the store applies that change by replacing
// the message with a copy.
type Message struct {
	ID        MessageID `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Image is a data URI (data:<mime>;base64,<payload>)
	Image   string   `json:"image,omitempty"`
	IsError bool     `json:"is_error,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

// NewUserMessage creates a message sent by the user
func NewUserMessage(text, image string, now time.Time) *Message {
	return &Message{
		ID:        NewMessageID(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: now,
		Image:     image,
	}
}

// NewAgentMessage creates a message authored by an agent
func NewAgentMessage(text string, now time.Time) *Message {
	return &Message{
		ID:        NewMessageID(),
		Text:      text,
		Sender:    SenderAgent,
		Timestamp: now,
	}
}

// NewErrorMessage creates an agent message that surfaces a failure
func NewErrorMessage(text string, now time.Time) *Message {
	msg := NewAgentMessage(text, now)
	msg.IsError = true
	return msg
}

// Clone returns a copy that shares nothing mutable with m
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Sources = slices.Clone(m.Sources)
	return &c
}

// Empty reports whether the message carries neither text nor image
func (m *Message) Empty() bool {
	return m.Text == "" && m.Image == ""
}
