// Package conversation holds the per-agent message lists in memory.
package conversation

import (
	"sync"

	"github.com/m-mizutani/parley/pkg/model"
)

// ClearHook is called after an agent's conversation is cleared
type ClearHook func(agentID model.AgentID)

// Store maps agent IDs to their ordered messages. Every mutation installs a
// new slice, so a list returned by Get is never modified afterwards.
type Store struct {
	mu      sync.RWMutex
	convs   map[model.AgentID][]*model.Message
	loading map[model.AgentID]bool
	hooks   []ClearHook
}

func New() *Store {
	return &Store{
		convs:   make(map[model.AgentID][]*model.Message),
		loading: make(map[model.AgentID]bool),
	}
}

// OnClear registers a hook run by Clear
func (s *Store) OnClear(hook ClearHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Append adds msg to the end of the agent's conversation
func (s *Store) Append(agentID model.AgentID, msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.convs[agentID]
	next := make([]*model.Message, len(cur), len(cur)+1)
	copy(next, cur)
	s.convs[agentID] = append(next, msg)
}

// Get returns the agent's conversation. The returned slice and messages must
// be treated as read-only.
func (s *Store) Get(agentID model.AgentID) []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convs[agentID]
}

// Find returns the message with id in the agent's conversation
func (s *Store) Find(agentID model.AgentID, id model.MessageID) (*model.Message, bool) {
	for _, msg := range s.Get(agentID) {
		if msg.ID == id {
			return msg, true
		}
	}
	return nil, false
}

// ReplaceText sets the text of one message. It returns false without
// changing anything if the message is no longer in the conversation.
func (s *Store) ReplaceText(agentID model.AgentID, id model.MessageID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := ReplaceText(s.convs[agentID], id, text)
	if ok {
		s.convs[agentID] = next
	}
	return ok
}

// Clear empties the agent's conversation and runs the clear hooks
func (s *Store) Clear(agentID model.AgentID) {
	s.mu.Lock()
	s.convs[agentID] = nil
	hooks := make([]ClearHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(agentID)
	}
}

// AgentIDs returns agents that have at least one message
func (s *Store) AgentIDs() []model.AgentID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []model.AgentID
	for id, msgs := range s.convs {
		if len(msgs) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// BeginLoading marks the agent as waiting for the backend. It returns false
// if a request for the agent is already in flight.
func (s *Store) BeginLoading(agentID model.AgentID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading[agentID] {
		return false
	}
	s.loading[agentID] = true
	return true
}

// EndLoading clears the loading flag of the agent
func (s *Store) EndLoading(agentID model.AgentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, agentID)
}

// Loading reports whether a request for the agent is in flight
func (s *Store) Loading(agentID model.AgentID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[agentID]
}
