package adapter

import (
	"context"
	"iter"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini is the subset of the Gemini API used by parley
type Gemini interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	CreateChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (ChatSession, error)
}

// ChatSession is a backend conversation that keeps its own history. It is
// satisfied by *genai.Chat.
type ChatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

type GeminiClient struct {
	client *genai.Client
}

type geminiConfig struct {
	apiKey   string
	project  string
	location string
}

type GeminiOption func(*geminiConfig)

// WithAPIKey uses the Gemini Developer API instead of Vertex AI
func WithAPIKey(apiKey string) GeminiOption {
	return func(cfg *geminiConfig) {
		cfg.apiKey = apiKey
	}
}

// WithVertexAI uses Vertex AI in the given project and location
func WithVertexAI(project, location string) GeminiOption {
	return func(cfg *geminiConfig) {
		cfg.project = project
		cfg.location = location
	}
}

func NewGemini(ctx context.Context, opts ...GeminiOption) (*GeminiClient, error) {
	var cfg geminiConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.apiKey == "" {
		if cfg.project == "" || cfg.location == "" {
			return nil, goerr.New("either API key or Vertex AI project and location are required")
		}
		clientConfig = &genai.ClientConfig{
			Project:  cfg.project,
			Location: cfg.location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.V("backend", clientConfig.Backend))
	}

	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}
	return resp, nil
}

func (g *GeminiClient) CreateChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (ChatSession, error) {
	chat, err := g.client.Chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create new gemini chat", goerr.V("model", model))
	}

	return chat, nil
}
