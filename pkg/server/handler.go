package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/render"
	"github.com/m-mizutani/parley/pkg/repository"
	"github.com/m-mizutani/parley/pkg/usecase/chat"
	"github.com/m-mizutani/parley/pkg/usecase/transcript"
	"github.com/m-mizutani/parley/pkg/utils/datauri"
	"github.com/m-mizutani/parley/pkg/utils/logging"
)

const defaultTranscriptLimit = 50

type agentView struct {
	*model.Agent
	Loading bool `json:"loading"`
}

type agentsResponse struct {
	Agents  []agentView   `json:"agents"`
	Default model.AgentID `json:"default"`
}

// messageView carries the rendered HTML of agent messages
type messageView struct {
	*model.Message
	HTML string `json:"html,omitempty"`
}

type messagesResponse struct {
	AgentID  model.AgentID  `json:"agent_id"`
	Loading  bool           `json:"loading"`
	Messages []*messageView `json:"messages"`
}

type postMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, transcript.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrUnknownAgent), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrAgentBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := http.StatusText(status)
	if status == http.StatusInternalServerError {
		logging.From(ctx).Error("request failed", "error", err)
	} else {
		logging.From(ctx).Warn("request rejected", "error", err, "status", status)
		msg = err.Error()
	}
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func newMessageView(ctx context.Context, msg *model.Message) *messageView {
	view := &messageView{Message: msg}
	if msg.Sender == model.SenderAgent && msg.Text != "" {
		html, err := render.Markdown(msg.Text)
		if err != nil {
			logging.From(ctx).Warn("failed to render message", "error", err, "message_id", msg.ID)
			return view
		}
		view.HTML = html
	}
	return view
}

func agentID(r *http.Request) model.AgentID {
	return model.AgentID(mux.Vars(r)["id"])
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.chat.Agents()
	resp := agentsResponse{
		Agents:  make([]agentView, 0, len(agents)),
		Default: s.chat.DefaultAgent().ID,
	}
	for _, a := range agents {
		resp.Agents = append(resp.Agents, agentView{Agent: a, Loading: s.chat.Loading(a.ID)})
	}
	writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agent, err := s.chat.Agent(agentID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	msgs := s.chat.Messages(agent.ID)
	resp := messagesResponse{
		AgentID:  agent.ID,
		Loading:  s.chat.Loading(agent.ID),
		Messages: make([]*messageView, 0, len(msgs)),
	}
	for _, msg := range msgs {
		resp.Messages = append(resp.Messages, newMessageView(ctx, msg))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// postMessage sends a message and streams the conversation changes as
// server-sent events: "append" and "update" while the reply is produced,
// then "done" with the final reply.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		logging.From(ctx).Warn("invalid request body", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// a stored malformed image would break every later history projection
	if req.Image != "" {
		if _, _, err := datauri.DecodeBytes(req.Image); err != nil {
			logging.From(ctx).Warn("invalid image", "error", err)
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "image must be a base64 data URI"})
			return
		}
	}

	stream := newEventStream(w, r)
	observer := func(ev chat.Event) {
		stream.send(string(ev.Type), newMessageView(ctx, ev.Message))
	}

	// the reply is still recorded if the client goes away
	out, err := s.chat.Send(context.WithoutCancel(ctx), chat.SendInput{
		AgentID:  agentID(r),
		Text:     req.Text,
		Image:    req.Image,
		Observer: observer,
	})
	if err != nil {
		if !stream.Started() {
			writeError(ctx, w, err)
			return
		}
		logging.From(ctx).Error("failed to send message", "error", err)
		stream.send("error", errorResponse{Error: err.Error()})
		return
	}

	stream.send("done", newMessageView(ctx, out.Reply))
}

func (s *Server) clearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Clear(agentID(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.transcripts == nil {
		writeJSON(ctx, w, http.StatusNotImplemented, errorResponse{Error: "transcript export is not configured"})
		return
	}

	agent, err := s.chat.Agent(agentID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	exported, err := s.transcripts.Export(ctx, agent.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	exported.Messages = nil
	writeJSON(ctx, w, http.StatusCreated, exported)
}

func (s *Server) listTranscripts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.transcripts == nil {
		writeJSON(ctx, w, http.StatusNotImplemented, errorResponse{Error: "transcript export is not configured"})
		return
	}

	limit := defaultTranscriptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	transcripts, err := s.transcripts.List(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if transcripts == nil {
		transcripts = []*model.Transcript{}
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"transcripts": transcripts})
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.transcripts == nil {
		writeJSON(ctx, w, http.StatusNotImplemented, errorResponse{Error: "transcript export is not configured"})
		return
	}

	id := model.TranscriptID(mux.Vars(r)["id"])
	loaded, err := s.transcripts.Load(ctx, id)
	if err != nil {
		writeError(ctx, w, goerr.Wrap(err, "failed to load transcript", goerr.V("transcript_id", id)))
		return
	}
	writeJSON(ctx, w, http.StatusOK, loaded)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
