package chat

import (
	"sync"

	"github.com/m-mizutani/parley/pkg/adapter"
	"github.com/m-mizutani/parley/pkg/model"
)

// Sessions caches backend chat sessions of streaming agents by agent ID
type Sessions struct {
	mu       sync.Mutex
	sessions map[model.AgentID]adapter.ChatSession
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[model.AgentID]adapter.ChatSession),
	}
}

func (s *Sessions) Get(agentID model.AgentID) (adapter.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[agentID]
	return session, ok
}

func (s *Sessions) Put(agentID model.AgentID, session adapter.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[agentID] = session
}

// PutIf caches session only when valid reports true. valid runs under the
// registry lock, so a Drop racing with it either sees the new session or
// prevents it from being stored.
func (s *Sessions) PutIf(agentID model.AgentID, session adapter.ChatSession, valid func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !valid() {
		return false
	}
	s.sessions[agentID] = session
	return true
}

// Drop forgets the agent's session so the next message starts a new one
func (s *Sessions) Drop(agentID model.AgentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, agentID)
}
