package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/parley/pkg/model"
	"github.com/urfave/cli/v3"
)

func agentsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "agents",
		Usage: "List agents of the catalog",
		Flags: llmFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			agents, err := cfg.newCatalog()
			if err != nil {
				return err
			}

			printAgents(c.Root().Writer, agents.Agents(), agents.First().ID)
			return nil
		},
	}
}

// printAgents writes one agent per line, marking the active one
func printAgents(w io.Writer, agents []*model.Agent, active model.AgentID) {
	for _, a := range agents {
		mark := " "
		if a.ID == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\n", mark, a.ID, a.Name, a.Mode(), a.Model, a.Description)
	}
}
