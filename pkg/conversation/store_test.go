package conversation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/model"
)

func TestAppendAndGet(t *testing.T) {
	store := conversation.New()
	now := time.Now()

	gt.A(t, store.Get("bloom-ai")).Length(0)

	first := model.NewUserMessage("hello", "", now)
	second := model.NewAgentMessage("hi", now)
	store.Append("bloom-ai", first)
	store.Append("bloom-ai", second)
	store.Append("h2o-gpt", model.NewUserMessage("other", "", now))

	msgs := store.Get("bloom-ai")
	gt.A(t, msgs).Length(2)
	gt.Equal(t, msgs[0].ID, first.ID)
	gt.Equal(t, msgs[1].ID, second.ID)
	gt.A(t, store.Get("h2o-gpt")).Length(1)
}

func TestSnapshotIsNotAffectedByLaterWrites(t *testing.T) {
	store := conversation.New()
	now := time.Now()

	placeholder := model.NewAgentMessage("", now)
	store.Append("bloom-ai", model.NewUserMessage("hello", "", now))
	store.Append("bloom-ai", placeholder)

	snapshot := store.Get("bloom-ai")

	gt.True(t, store.ReplaceText("bloom-ai", placeholder.ID, "Hi"))
	store.Append("bloom-ai", model.NewUserMessage("again", "", now))

	gt.A(t, snapshot).Length(2)
	gt.Equal(t, snapshot[1].Text, "")

	latest := store.Get("bloom-ai")
	gt.A(t, latest).Length(3)
	gt.Equal(t, latest[1].Text, "Hi")
	gt.Equal(t, latest[1].ID, placeholder.ID)
}

func TestReplaceTextMissingMessage(t *testing.T) {
	store := conversation.New()
	store.Append("bloom-ai", model.NewUserMessage("hello", "", time.Now()))

	gt.False(t, store.ReplaceText("bloom-ai", model.NewMessageID(), "lost"))
	gt.False(t, store.ReplaceText("unknown", model.NewMessageID(), "lost"))
	gt.Equal(t, store.Get("bloom-ai")[0].Text, "hello")
}

func TestFind(t *testing.T) {
	store := conversation.New()
	msg := model.NewUserMessage("hello", "", time.Now())
	store.Append("bloom-ai", msg)

	found, ok := store.Find("bloom-ai", msg.ID)
	gt.True(t, ok)
	gt.Equal(t, found.Text, "hello")

	_, ok = store.Find("h2o-gpt", msg.ID)
	gt.False(t, ok)
}

func TestClearRunsHooks(t *testing.T) {
	store := conversation.New()
	var cleared []model.AgentID
	store.OnClear(func(agentID model.AgentID) {
		cleared = append(cleared, agentID)
	})

	store.Append("bloom-ai", model.NewUserMessage("hello", "", time.Now()))
	store.Append("h2o-gpt", model.NewUserMessage("hello", "", time.Now()))
	store.Clear("bloom-ai")

	gt.A(t, store.Get("bloom-ai")).Length(0)
	gt.A(t, store.Get("h2o-gpt")).Length(1)
	gt.Equal(t, cleared, []model.AgentID{"bloom-ai"})
	gt.Equal(t, store.AgentIDs(), []model.AgentID{"h2o-gpt"})
}

func TestLoading(t *testing.T) {
	store := conversation.New()

	gt.False(t, store.Loading("bloom-ai"))
	gt.True(t, store.BeginLoading("bloom-ai"))
	gt.True(t, store.Loading("bloom-ai"))

	// another request for the same agent is rejected, other agents are free
	gt.False(t, store.BeginLoading("bloom-ai"))
	gt.True(t, store.BeginLoading("h2o-gpt"))

	store.EndLoading("bloom-ai")
	gt.False(t, store.Loading("bloom-ai"))
	gt.True(t, store.BeginLoading("bloom-ai"))
}

func TestConcurrentReadsDuringUpdates(t *testing.T) {
	store := conversation.New()
	placeholder := model.NewAgentMessage("", time.Now())
	store.Append("bloom-ai", placeholder)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		text := ""
		for range 200 {
			text += "x"
			store.ReplaceText("bloom-ai", placeholder.ID, text)
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			msgs := store.Get("bloom-ai")
			gt.A(t, msgs).Length(1)
		}
	}()
	wg.Wait()

	gt.Equal(t, len(store.Get("bloom-ai")[0].Text), 200)
}
