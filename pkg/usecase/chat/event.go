package chat

import "github.com/m-mizutani/parley/pkg/model"

type EventType string

const (
	// EventAppend is emitted when a message is added to the conversation
	EventAppend EventType = "append"
	// EventUpdate is emitted when a streamed reply receives more text
	EventUpdate EventType = "update"
)

type Event struct {
	Type    EventType      `json:"type"`
	AgentID model.AgentID  `json:"agent_id"`
	Message *model.Message `json:"message"`
}

// Observer receives conversation changes made while a message is sent. It is
// called synchronously from the sending goroutine.
type Observer func(Event)
