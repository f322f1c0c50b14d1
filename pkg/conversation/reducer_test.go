package conversation_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/model"
)

func TestReplaceText(t *testing.T) {
	now := time.Now()
	user := model.NewUserMessage("Hello", "", now)
	reply := model.NewAgentMessage("", now)
	msgs := []*model.Message{user, reply}

	next, ok := conversation.ReplaceText(msgs, reply.ID, "Hi")
	gt.True(t, ok)
	gt.A(t, next).Length(2)

	// input is untouched
	gt.Equal(t, msgs[1].Text, "")
	gt.True(t, msgs[1] == reply)

	gt.Equal(t, next[1].Text, "Hi")
	gt.Equal(t, next[1].ID, reply.ID)
	gt.Equal(t, next[1].Timestamp, reply.Timestamp)
	gt.True(t, next[0] == user)
}

func TestReplaceTextFoldsIncrements(t *testing.T) {
	now := time.Now()
	reply := model.NewAgentMessage("", now)
	msgs := []*model.Message{model.NewUserMessage("Hello", "", now), reply}

	running := ""
	for _, inc := range []string{"Hi", " there", "!"} {
		running += inc
		var ok bool
		msgs, ok = conversation.ReplaceText(msgs, reply.ID, running)
		gt.True(t, ok)
	}

	gt.Equal(t, msgs[1].Text, "Hi there!")
	gt.Equal(t, msgs[0].Text, "Hello")
}

func TestReplaceTextNotFound(t *testing.T) {
	msgs := []*model.Message{model.NewUserMessage("Hello", "", time.Now())}

	next, ok := conversation.ReplaceText(msgs, model.NewMessageID(), "x")
	gt.False(t, ok)
	gt.Equal(t, next, msgs)

	next, ok = conversation.ReplaceText(nil, model.NewMessageID(), "x")
	gt.False(t, ok)
	gt.A(t, next).Length(0)
}
