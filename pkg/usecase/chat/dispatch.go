package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/adapter"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/utils/datauri"
	"github.com/m-mizutani/parley/pkg/utils/logging"
	"google.golang.org/genai"
)

const imageRefusalText = "Sorry, I cannot generate that type of image. Please try a different prompt."

// dispatcher sends one user message for one agent. The agent is fixed when
// the dispatcher is created so late results never land in another
// conversation.
type dispatcher struct {
	uc       *UseCase
	agent    *model.Agent
	observer Observer
}

func (d *dispatcher) notify(typ EventType, msg *model.Message) {
	if d.observer == nil {
		return
	}
	d.observer(Event{Type: typ, AgentID: d.agent.ID, Message: msg})
}

func (d *dispatcher) append(msg *model.Message) {
	d.uc.store.Append(d.agent.ID, msg)
	d.notify(EventAppend, msg)
}

func (d *dispatcher) systemInstruction() *genai.Content {
	return genai.NewContentFromText(d.uc.catalog.SystemInstruction(), "")
}

// run sends msg with the strategy of the agent. prior is the conversation
// before msg was appended.
func (d *dispatcher) run(ctx context.Context, prior []*model.Message, msg *model.Message) (*model.Message, error) {
	switch d.agent.Mode() {
	case model.StrategyImage:
		return d.generateImage(ctx, msg)
	case model.StrategyGrounded:
		return d.sendGrounded(ctx, prior, msg)
	default:
		return d.sendStream(ctx, prior, msg)
	}
}

// generateImage creates or edits an image with a single request
func (d *dispatcher) generateImage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	parts := []*genai.Part{genai.NewPartFromText(msg.Text)}
	if msg.Image != "" {
		img, err := imagePart(msg.Image)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to attach image")
		}
		parts = append([]*genai.Part{img}, parts...)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
		SystemInstruction:  d.systemInstruction(),
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := d.uc.gemini.GenerateContent(ctx, d.agent.Model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate image")
	}

	var reply *model.Message
	if part := firstPart(resp); part != nil && part.InlineData != nil {
		reply = model.NewAgentMessage(`Result for: "`+msg.Text+`"`, d.uc.now())
		reply.Image = datauri.EncodeBytes(part.InlineData.MIMEType, part.InlineData.Data)
	} else {
		text := responseText(resp)
		if text == "" {
			text = imageRefusalText
		}
		reply = model.NewErrorMessage(text, d.uc.now())
	}

	d.append(reply)
	return reply, nil
}

// sendGrounded answers through a one-shot chat with Google Search enabled
func (d *dispatcher) sendGrounded(ctx context.Context, prior []*model.Message, msg *model.Message) (*model.Message, error) {
	history, err := ProjectHistory(prior)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: d.systemInstruction(),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	session, err := d.uc.gemini.CreateChat(ctx, d.agent.Model, config, history)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create grounded chat")
	}

	resp, err := session.SendMessage(ctx, *genai.NewPartFromText(msg.Text))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send grounded message")
	}

	reply := model.NewAgentMessage(responseText(resp), d.uc.now())
	reply.Sources = ExtractSources(resp)

	d.append(reply)
	return reply, nil
}

// sendStream sends msg through the agent's cached chat session and folds the
// streamed increments into a placeholder reply.
func (d *dispatcher) sendStream(ctx context.Context, prior []*model.Message, msg *model.Message) (*model.Message, error) {
	session, err := d.streamSession(ctx, prior, msg)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{*genai.NewPartFromText(msg.Text)}
	if msg.Image != "" {
		img, err := imagePart(msg.Image)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to attach image")
		}
		parts = append(parts, *img)
	}

	placeholder := model.NewAgentMessage("", d.uc.now())
	d.append(placeholder)

	logger := logging.From(ctx)
	var full strings.Builder
	increments := 0

	for resp, err := range session.SendMessageStream(ctx, parts...) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to receive stream",
				goerr.V("increments", increments),
				goerr.V("message_id", placeholder.ID))
		}

		increments++
		d.uc.metrics.StreamIncrement()
		full.WriteString(responseText(resp))

		if !d.uc.store.ReplaceText(d.agent.ID, placeholder.ID, full.String()) {
			logger.Debug("reply is no longer in conversation", "message_id", placeholder.ID)
			continue
		}
		if updated, ok := d.uc.store.Find(d.agent.ID, placeholder.ID); ok {
			d.notify(EventUpdate, updated)
		}
	}

	reply := placeholder.Clone()
	reply.Text = full.String()
	return reply, nil
}

// streamSession returns the cached session of the agent, creating one seeded
// with prior on first use.
func (d *dispatcher) streamSession(ctx context.Context, prior []*model.Message, msg *model.Message) (adapter.ChatSession, error) {
	if session, ok := d.uc.sessions.Get(d.agent.ID); ok {
		return session, nil
	}

	history, err := ProjectHistory(prior)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: d.systemInstruction(),
	}
	session, err := d.uc.gemini.CreateChat(ctx, d.agent.Model, config, history)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat session")
	}

	// skip caching when the conversation was cleared meanwhile
	d.uc.sessions.PutIf(d.agent.ID, session, func() bool {
		_, ok := d.uc.store.Find(d.agent.ID, msg.ID)
		return ok
	})
	return session, nil
}

// responseText is resp.Text() that tolerates a nil response
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}

func firstPart(resp *genai.GenerateContentResponse) *genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil
	}
	return content.Parts[0]
}
