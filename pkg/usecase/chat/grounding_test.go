package chat_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/usecase/chat"
	"google.golang.org/genai"
)

func groundedResponse(text string, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	resp := textResponse(text)
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: chunks,
	}
	return resp
}

func webChunk(title, uri string) *genai.GroundingChunk {
	return &genai.GroundingChunk{
		Web: &genai.GroundingChunkWeb{Title: title, URI: uri},
	}
}

func TestExtractSources(t *testing.T) {
	resp := groundedResponse("answer",
		webChunk("Go", "https://go.dev"),
		webChunk("", "https://example.com/untitled"),
		nil,
		&genai.GroundingChunk{},
		webChunk("No URI", ""),
		webChunk("Gemini", "https://ai.google.dev"),
	)

	sources := chat.ExtractSources(resp)
	gt.Equal(t, sources, []model.Source{
		{Title: "Go", URI: "https://go.dev"},
		{Title: "Gemini", URI: "https://ai.google.dev"},
	})
}

func TestExtractSourcesNeverEmpty(t *testing.T) {
	gt.True(t, chat.ExtractSources(nil) == nil)
	gt.True(t, chat.ExtractSources(textResponse("no metadata")) == nil)
	gt.True(t, chat.ExtractSources(groundedResponse("no chunks")) == nil)
	gt.True(t, chat.ExtractSources(groundedResponse("all incomplete", webChunk("", "https://go.dev"))) == nil)
}
