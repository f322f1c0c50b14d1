package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/conversation"
	"github.com/m-mizutani/parley/pkg/model"
	"github.com/m-mizutani/parley/pkg/usecase/transcript"
	"github.com/urfave/cli/v3"
)

func transcriptsCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	// transcripts outlive the process only with a Firestore index
	setup := func(ctx context.Context) (*transcript.UseCase, error) {
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		uc, err := cfg.newTranscripts(ctx, conversation.New())
		if err != nil {
			return nil, err
		}
		if uc == nil {
			return nil, goerr.New("bucket is required")
		}
		return uc, nil
	}

	return &cli.Command{
		Name:  "transcripts",
		Usage: "Browse exported transcripts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List exported transcripts, newest first",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Usage:       "Maximum number of transcripts to list",
						Value:       50,
						Sources:     cli.EnvVars("PARLEY_LIST_LIMIT"),
						Destination: &limit,
					},
				}, globalFlags(&cfg)...),
				Action: func(ctx context.Context, c *cli.Command) error {
					uc, err := setup(ctx)
					if err != nil {
						return err
					}

					transcripts, err := uc.List(ctx, int(limit))
					if err != nil {
						return goerr.Wrap(err, "failed to list transcripts")
					}

					if len(transcripts) == 0 {
						fmt.Fprintln(c.Root().Writer, "No transcripts found")
						return nil
					}

					for _, t := range transcripts {
						fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%d\t%s\n",
							t.ID,
							t.AgentID,
							t.CreatedAt.Format("2006-01-02 15:04:05"),
							t.MessageCount,
							t.Title,
						)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Print the messages of a transcript",
				ArgsUsage: "<transcript-id>",
				Flags:     globalFlags(&cfg),
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return goerr.New("transcript ID is required")
					}

					uc, err := setup(ctx)
					if err != nil {
						return err
					}

					t, err := uc.Load(ctx, model.TranscriptID(c.Args().First()))
					if err != nil {
						return goerr.Wrap(err, "failed to load transcript")
					}

					w := c.Root().Writer
					fmt.Fprintf(w, "# %s (%s, %s)\n\n", t.Title, t.AgentID, t.CreatedAt.Format("2006-01-02 15:04:05"))
					for _, msg := range t.Messages {
						text := msg.Text
						if msg.Image != "" {
							text += " [image]"
						}
						fmt.Fprintf(w, "[%s] %s\n", msg.Sender, text)
						for _, src := range msg.Sources {
							fmt.Fprintf(w, "  - %s <%s>\n", src.Title, src.URI)
						}
					}
					return nil
				},
			},
		},
	}
}
