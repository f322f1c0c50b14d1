package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/adapter"
	"google.golang.org/genai"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	t.Helper()

	ctx := context.Background()
	if apiKey := os.Getenv("TEST_GEMINI_API_KEY"); apiKey != "" {
		client, err := adapter.NewGemini(ctx, adapter.WithAPIKey(apiKey))
		gt.NoError(t, err)
		return client
	}

	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_API_KEY or TEST_GEMINI_PROJECT is not set")
	}
	client, err := adapter.NewGemini(ctx, adapter.WithVertexAI(projectID, "us-central1"))
	gt.NoError(t, err)
	return client
}

func TestNewGeminiRequiresCredentials(t *testing.T) {
	_, err := adapter.NewGemini(context.Background())
	gt.Error(t, err)

	_, err = adapter.NewGemini(context.Background(), adapter.WithVertexAI("my-project", ""))
	gt.Error(t, err)
}

func TestGenerateContent(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	contents := []*genai.Content{
		genai.NewContentFromText("Hello, what is the capital of France?", genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, "gemini-2.5-flash", contents, nil)
	gt.NoError(t, err)
	gt.S(t, resp.Text()).Contains("Paris")
}

func TestChatStream(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	history := []*genai.Content{
		genai.NewContentFromText("My name is Alice.", genai.RoleUser),
		genai.NewContentFromText("Nice to meet you, Alice.", genai.RoleModel),
	}
	chat, err := client.CreateChat(ctx, "gemini-2.5-flash", nil, history)
	gt.NoError(t, err)

	var text string
	for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: "What is my name?"}) {
		gt.NoError(t, err)
		text += resp.Text()
	}
	gt.S(t, text).Contains("Alice")
}
