package chat

import (
	"time"

	"github.com/m-mizutani/parley/pkg/adapter"
	"github.com/m-mizutani/parley/pkg/catalog"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/metrics"
	"github.com/m-mizutani/parley/pkg/model"
)

// UseCase sends user messages to agents and keeps their conversations
type UseCase struct {
	gemini   adapter.Gemini
	store    *conversation.Store
	catalog  *catalog.Catalog
	sessions *Sessions
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithSessions replaces the session registry
func WithSessions(sessions *Sessions) Option {
	return func(uc *UseCase) {
		uc.sessions = sessions
	}
}

// WithMetrics records dispatch metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCase) {
		uc.metrics = m
	}
}

// WithClock sets the time source of message timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a chat UseCase. Clearing a conversation in store also drops
// the cached backend session of that agent.
func New(gemini adapter.Gemini, store *conversation.Store, c *catalog.Catalog, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini:   gemini,
		store:    store,
		catalog:  c,
		sessions: NewSessions(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	store.OnClear(uc.sessions.Drop)
	return uc
}

// Agents returns the agents in catalog order
func (uc *UseCase) Agents() []*model.Agent {
	return uc.catalog.Agents()
}

// DefaultAgent returns the agent active when nothing was selected
func (uc *UseCase) DefaultAgent() *model.Agent {
	return uc.catalog.First()
}

// Agent looks up an agent by ID
func (uc *UseCase) Agent(agentID model.AgentID) (*model.Agent, error) {
	agent, ok := uc.catalog.Lookup(agentID)
	if !ok {
		return nil, unknownAgent(agentID)
	}
	return agent, nil
}

// Messages returns the agent's conversation
func (uc *UseCase) Messages(agentID model.AgentID) []*model.Message {
	return uc.store.Get(agentID)
}

// Loading reports whether a message to the agent is being processed
func (uc *UseCase) Loading(agentID model.AgentID) bool {
	return uc.store.Loading(agentID)
}

// Clear discards the agent's conversation and its backend session
func (uc *UseCase) Clear(agentID model.AgentID) error {
	if _, err := uc.Agent(agentID); err != nil {
		return err
	}
	uc.store.Clear(agentID)
	return nil
}
