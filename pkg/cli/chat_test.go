package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/usecase/chat"
	"github.com/m-mizutani/parley/pkg/utils/datauri"
)

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		line string
		name string
		arg  string
		ok   bool
	}{
		{line: "hello", ok: false},
		{line: "/exit", name: "exit", ok: true},
		{line: "  /agent bloom-ai ", name: "agent", arg: "bloom-ai", ok: true},
		{line: "/image ./my photo.png", name: "image", arg: "./my photo.png", ok: true},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			name, arg, ok := parseCommand(tc.line)
			gt.Equal(t, ok, tc.ok)
			gt.Equal(t, name, tc.name)
			gt.Equal(t, arg, tc.arg)
		})
	}
}

func TestReplyPrinter(t *testing.T) {
	var buf bytes.Buffer
	stopped := 0
	p := &replyPrinter{w: &buf, stop: func() { stopped++ }}

	now := time.Now()
	user := model.NewUserMessage("hi", "", now)
	reply := model.NewAgentMessage("", now)

	p.observe(chat.Event{Type: chat.EventAppend, Message: user})
	gt.Equal(t, stopped, 0)

	p.observe(chat.Event{Type: chat.EventAppend, Message: reply})
	for _, text := range []string{"Hel", "Hello", "Hello!"} {
		updated := reply.Clone()
		updated.Text = text
		p.observe(chat.Event{Type: chat.EventUpdate, Message: updated})
	}

	failure := model.NewErrorMessage("stream broken", now)
	p.observe(chat.Event{Type: chat.EventAppend, Message: failure})

	gt.Equal(t, buf.String(), "Hello!\nstream broken")
	gt.True(t, stopped > 0)
}

func TestLoadAndSaveImage(t *testing.T) {
	dir := t.TempDir()

	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16))
	src := filepath.Join(dir, "in.png")
	gt.NoError(t, os.WriteFile(src, png, 0o600))

	uri, err := loadImage(src)
	gt.NoError(t, err)
	gt.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	msg := model.NewAgentMessage("done", time.Now())
	msg.Image = uri
	path, err := saveImage(dir, msg)
	gt.NoError(t, err)
	gt.Equal(t, filepath.Ext(path), ".png")

	saved, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, saved, png)

	t.Run("not an image", func(t *testing.T) {
		txt := filepath.Join(dir, "note.txt")
		gt.NoError(t, os.WriteFile(txt, []byte("plain text"), 0o600))
		_, err := loadImage(txt)
		gt.Error(t, err)
	})

	t.Run("broken data URI", func(t *testing.T) {
		msg := model.NewAgentMessage("done", time.Now())
		msg.Image = "broken"
		_, err := saveImage(dir, msg)
		gt.Error(t, err)
		gt.True(t, strings.Contains(err.Error(), datauri.ErrInvalidFormat.Error()))
	})
}

func TestSendRejectsBrokenAttachment(t *testing.T) {
	var buf bytes.Buffer
	// no use case: the message must be rejected before reaching it
	s := &chatSession{w: &buf, attached: "garbage"}

	err := s.send(context.Background(), "look at this")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, datauri.ErrInvalidFormat))
	gt.Equal(t, s.attached, "")
	gt.Equal(t, buf.Len(), 0)
}
