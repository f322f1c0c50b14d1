package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/usecase/chat"
	"github.com/m-mizutani/parley/pkg/usecase/transcript"
	"github.com/m-mizutani/parley/pkg/utils/datauri"
	"github.com/urfave/cli/v3"
)

const chatHelp = `Commands:
  /agent <id>    switch to another agent
  /agents        list agents
  /image <path>  attach an image to the next message
  /clear         clear the conversation with the current agent
  /export        export the conversation as a transcript
  /exit          quit`

func chatCommand() *cli.Command {
	var (
		cfg      config
		agentID  string
		imageDir string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Agent ID to start with. The first agent of the catalog by default",
			Sources:     cli.EnvVars("PARLEY_AGENT"),
			Destination: &agentID,
		},
		&cli.StringFlag{
			Name:        "image-dir",
			Usage:       "Directory to save generated images",
			Value:       ".",
			Sources:     cli.EnvVars("PARLEY_IMAGE_DIR"),
			Destination: &imageDir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with agents in the terminal",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize dependencies
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			agents, err := cfg.newCatalog()
			if err != nil {
				return err
			}

			store := conversation.New()
			transcripts, err := cfg.newTranscripts(ctx, store)
			if err != nil {
				return err
			}

			uc := chat.New(gemini, store, agents)

			active := uc.DefaultAgent()
			if agentID != "" {
				if active, err = uc.Agent(model.AgentID(agentID)); err != nil {
					return err
				}
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          prompt(active),
				InterruptPrompt: "^C",
				EOFPrompt:       "/exit",
				Stdout:          c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			session := &chatSession{
				uc:          uc,
				transcripts: transcripts,
				active:      active,
				w:           rl.Stdout(),
				imageDir:    imageDir,
			}

			fmt.Fprintf(session.w, "Chatting with %s. Type /help for commands.\n", active.Name)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				quit, err := session.handle(ctx, line)
				if err != nil {
					fmt.Fprintf(session.w, "error: %s\n", err)
				}
				if quit {
					break
				}
				rl.SetPrompt(prompt(session.active))
			}

			fmt.Fprintf(session.w, "\nChat session completed\n")
			return nil
		},
	}
}

func prompt(agent *model.Agent) string {
	return string(agent.ID) + "> "
}

type chatSession struct {
	uc          *chat.UseCase
	transcripts *transcript.UseCase
	active      *model.Agent
	w           io.Writer
	imageDir    string

	// attached is a data URI sent with the next message
	attached string
}

// parseCommand splits "/name arg" input. ok is false for a plain message.
func parseCommand(line string) (name, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(line[1:], " ")
	return name, strings.TrimSpace(arg), true
}

func (s *chatSession) handle(ctx context.Context, line string) (quit bool, err error) {
	name, arg, ok := parseCommand(line)
	if !ok {
		if strings.TrimSpace(line) == "" && s.attached == "" {
			return false, nil
		}
		return false, s.send(ctx, line)
	}

	switch name {
	case "exit", "quit":
		return true, nil

	case "help":
		fmt.Fprintln(s.w, chatHelp)

	case "agents":
		printAgents(s.w, s.uc.Agents(), s.active.ID)

	case "agent":
		agent, err := s.uc.Agent(model.AgentID(arg))
		if err != nil {
			return false, err
		}
		s.active = agent
		fmt.Fprintf(s.w, "Switched to %s\n", agent.Name)

	case "clear":
		if err := s.uc.Clear(s.active.ID); err != nil {
			return false, err
		}
		fmt.Fprintln(s.w, "Conversation cleared")

	case "image":
		uri, err := loadImage(arg)
		if err != nil {
			return false, err
		}
		s.attached = uri
		fmt.Fprintf(s.w, "Attached %s\n", filepath.Base(arg))

	case "export":
		if s.transcripts == nil {
			return false, goerr.New("transcript export is not configured, set --bucket")
		}
		exported, err := s.transcripts.Export(ctx, s.active.ID)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.w, "Exported %s (%d messages)\n", exported.ID, exported.MessageCount)

	default:
		return false, goerr.New("unknown command, type /help", goerr.V("command", name))
	}

	return false, nil
}

func (s *chatSession) send(ctx context.Context, text string) error {
	if s.attached != "" {
		if _, _, err := datauri.DecodeBytes(s.attached); err != nil {
			s.attached = ""
			return goerr.Wrap(err, "attached image is broken, attach it again")
		}
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.w))
	spin.Suffix = " thinking..."
	spin.Start()
	defer spin.Stop()

	p := &replyPrinter{w: s.w, stop: spin.Stop}
	out, err := s.uc.Send(ctx, chat.SendInput{
		AgentID:  s.active.ID,
		Text:     text,
		Image:    s.attached,
		Observer: p.observe,
	})
	if err != nil {
		return err
	}
	s.attached = ""
	spin.Stop()

	if out.Reply.Image != "" {
		path, err := saveImage(s.imageDir, out.Reply)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.w, "\n[image saved to %s]", path)
	}
	for i, src := range out.Reply.Sources {
		if i == 0 {
			fmt.Fprint(s.w, "\n\nSources:")
		}
		fmt.Fprintf(s.w, "\n  [%d] %s <%s>", i+1, src.Title, src.URI)
	}
	fmt.Fprintln(s.w)
	return nil
}

// replyPrinter writes agent text as it arrives. Stream updates carry the
// full text, so only the unseen suffix is written.
type replyPrinter struct {
	w       io.Writer
	stop    func()
	current model.MessageID
	printed int
}

func (p *replyPrinter) observe(ev chat.Event) {
	msg := ev.Message
	if msg.Sender != model.SenderAgent {
		return
	}
	if p.stop != nil {
		p.stop()
	}

	if msg.ID != p.current {
		if p.printed > 0 {
			fmt.Fprintln(p.w)
		}
		p.current = msg.ID
		p.printed = 0
	}

	if len(msg.Text) > p.printed {
		fmt.Fprint(p.w, msg.Text[p.printed:])
		p.printed = len(msg.Text)
	}
}

func loadImage(path string) (string, error) {
	if path == "" {
		return "", goerr.New("image path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read image", goerr.V("path", path))
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", goerr.New("not an image file", goerr.V("path", path), goerr.V("mime_type", mimeType))
	}
	return datauri.EncodeBytes(mimeType, data), nil
}

func saveImage(dir string, msg *model.Message) (string, error) {
	mimeType, data, err := datauri.DecodeBytes(msg.Image)
	if err != nil {
		return "", err
	}

	ext := ".img"
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		ext = exts[0]
	}

	path := filepath.Join(dir, "parley-"+string(msg.ID)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to save image", goerr.V("path", path))
	}
	return path, nil
}
