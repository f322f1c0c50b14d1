package chat

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/utils/datauri"
	"google.golang.org/genai"
)

// ProjectHistory converts a conversation into backend turns. Messages with
// neither text nor image are dropped.
func ProjectHistory(msgs []*model.Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(msgs))

	for _, msg := range msgs {
		var parts []*genai.Part
		if msg.Text != "" {
			parts = append(parts, genai.NewPartFromText(msg.Text))
		}
		if msg.Image != "" {
			part, err := imagePart(msg.Image)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to project message", goerr.V("message_id", msg.ID))
			}
			parts = append(parts, part)
		}

		if len(parts) == 0 {
			continue
		}

		var role genai.Role = genai.RoleModel
		if msg.Sender == model.SenderUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	return contents, nil
}

// imagePart decodes a data URI into an inline data part
func imagePart(uri string) (*genai.Part, error) {
	mimeType, data, err := datauri.DecodeBytes(uri)
	if err != nil {
		return nil, err
	}
	return genai.NewPartFromBytes(data, mimeType), nil
}
