package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidStrategy = goerr.New("invalid strategy")
)

type AgentID string

// Strategy selects how a message to an agent is sent to the backend
type Strategy string

const (
	// StrategyStream keeps a chat session per agent and streams the reply
	StrategyStream Strategy = "stream"
	// StrategyGrounded sends one message through a search enabled chat
	StrategyGrounded Strategy = "grounded"
	// StrategyImage generates an image with a single request
	StrategyImage Strategy = "image"
)

// Validate checks if the strategy is valid. An empty strategy means stream.
func (s Strategy) Validate() error {
	switch s {
	case "", StrategyStream, StrategyGrounded, StrategyImage:
		return nil
	default:
		return goerr.Wrap(ErrInvalidStrategy, "unknown strategy", goerr.V("strategy", s))
	}
}

// Agent is a static descriptor of an agent the user can talk to
type Agent struct {
	ID          AgentID  `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Icon        string   `json:"icon,omitempty" yaml:"icon"`
	Strategy    Strategy `json:"strategy" yaml:"strategy"`
	Model       string   `json:"model" yaml:"model"`
}

// Mode returns the effective strategy of the agent
func (a *Agent) Mode() Strategy {
	if a.Strategy == "" {
		return StrategyStream
	}
	return a.Strategy
}
