package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/metrics"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/utils/logging"
)

var (
	ErrEmptyMessage = goerr.New("message has neither text nor image")
	ErrUnknownAgent = goerr.New("unknown agent")
	ErrAgentBusy    = goerr.New("agent is still answering the previous message")
)

const fallbackErrorText = "Sorry, something went wrong. Please try again."

func unknownAgent(agentID model.AgentID) error {
	return goerr.Wrap(ErrUnknownAgent, "agent not found", goerr.V("agent_id", agentID))
}

type SendInput struct {
	AgentID model.AgentID
	Text    string
	// Image is an optional data URI attached by the user
	Image    string
	Observer Observer
}

type SendOutput struct {
	UserMessage *model.Message
	// Reply is the last agent message produced for this send. It has
	// IsError set when the backend refused or failed.
	Reply *model.Message
}

// Send appends the user message to the agent's conversation and dispatches
// it to the backend. Only validation failures are returned as errors; a
// backend failure is recorded as an error message in the conversation.
func (uc *UseCase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	if strings.TrimSpace(in.Text) == "" && in.Image == "" {
		return nil, goerr.Wrap(ErrEmptyMessage, "rejected message", goerr.V("agent_id", in.AgentID))
	}

	agent, err := uc.Agent(in.AgentID)
	if err != nil {
		return nil, err
	}

	if !uc.store.BeginLoading(agent.ID) {
		return nil, goerr.Wrap(ErrAgentBusy, "rejected message", goerr.V("agent_id", agent.ID))
	}
	defer uc.store.EndLoading(agent.ID)

	ctx = logging.WithAttrs(ctx, "agent_id", agent.ID, "strategy", agent.Mode())
	logger := logging.From(ctx)

	d := &dispatcher{
		uc:       uc,
		agent:    agent,
		observer: in.Observer,
	}

	prior := uc.store.Get(agent.ID)
	userMsg := model.NewUserMessage(in.Text, in.Image, uc.now())
	d.append(userMsg)

	logger.Debug("dispatching message", "history", len(prior), "has_image", in.Image != "")
	started := time.Now()

	reply, err := d.run(ctx, prior, userMsg)
	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		logger.Error("failed to send message", "error", err)
		outcome = metrics.OutcomeFailure
		reply = model.NewErrorMessage(errorText(err), uc.now())
		d.append(reply)
	case reply.IsError:
		logger.Warn("backend refused request", "text", reply.Text)
		outcome = metrics.OutcomeRefused
	}
	uc.metrics.ObserveDispatch(agent.Mode(), outcome, time.Since(started))

	logger.Info("message sent", "outcome", outcome, "elapsed", time.Since(started))

	return &SendOutput{
		UserMessage: userMsg,
		Reply:       reply,
	}, nil
}

// errorText is the message of the innermost error, which is the one the
// backend or the codec reported
func errorText(err error) string {
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackErrorText
}
