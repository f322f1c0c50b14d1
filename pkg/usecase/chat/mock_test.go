package chat_test

import (
	"context"
	"errors"
	"iter"

	"github.com/m-mizutani/parley/pkg/adapter"
	"google.golang.org/genai"
)

// mockGemini is a mock implementation of adapter.Gemini for testing
type mockGemini struct {
	generateFunc   func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	createChatFunc func(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (adapter.ChatSession, error)

	generateCalls   int
	createChatCalls int
}

func (m *mockGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.generateCalls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, contents, config)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGemini) CreateChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (adapter.ChatSession, error) {
	m.createChatCalls++
	if m.createChatFunc != nil {
		return m.createChatFunc(ctx, model, config, history)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGemini) calls() int {
	return m.generateCalls + m.createChatCalls
}

// mockSession is a mock implementation of adapter.ChatSession
type mockSession struct {
	sendFunc   func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	streamFunc func(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]

	sent [][]genai.Part
}

func (m *mockSession) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.sent = append(m.sent, parts)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, parts...)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSession) SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error] {
	m.sent = append(m.sent, parts)
	if m.streamFunc != nil {
		return m.streamFunc(ctx, parts...)
	}
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(nil, errors.New("not implemented"))
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: genai.NewContentFromText(text, genai.RoleModel),
			},
		},
	}
}

// streamOf yields one text response per increment, calling each hook (if
// any) right after the matching increment was consumed.
func streamOf(increments []string, hooks ...func(i int)) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for i, inc := range increments {
			if !yield(textResponse(inc), nil) {
				return
			}
			for _, hook := range hooks {
				hook(i)
			}
		}
	}
}
