package chat

import (
	"github.com/m-mizutani/parley/pkg/model"
	"google.golang.org/genai"
)

// ExtractSources collects web citations of the first candidate in backend
// order. Chunks without both URI and title are skipped. It returns nil, never
// an empty slice, when nothing is left.
func ExtractSources(resp *genai.GenerateContentResponse) []model.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []model.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		sources = append(sources, model.Source{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}

	return sources
}
