package conversation

import "github.com/m-mizutani/parley/pkg/model"

// ReplaceText returns a new list in which the message identified by id is
// replaced by a copy carrying text. msgs itself is never modified. If id is
// not in msgs, msgs is returned as is with false.
func ReplaceText(msgs []*model.Message, id model.MessageID, text string) ([]*model.Message, bool) {
	for i, msg := range msgs {
		if msg.ID != id {
			continue
		}

		updated := msg.Clone()
		updated.Text = text

		next := make([]*model.Message, len(msgs))
		copy(next, msgs)
		next[i] = updated
		return next, true
	}

	return msgs, false
}
