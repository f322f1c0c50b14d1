// Package catalog provides the fixed set of agents and the system instruction
// shared by every backend call.
package catalog

import (
	_ "embed"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parley/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed prompt/system.md
var defaultSystemInstruction string

const (
	defaultChatModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"
)

// Catalog is an ordered, immutable set of agents
type Catalog struct {
	agents            []*model.Agent
	index             map[model.AgentID]*model.Agent
	systemInstruction string
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(defaultSystemInstruction, defaultAgents()...)
	if err != nil {
		panic("default catalog is invalid: " + err.Error())
	}
	return c
}

func defaultAgents() []*model.Agent {
	return []*model.Agent{
		{
			ID:          "h2o-gpt",
			Name:        "AK Chat Pro",
			Description: "Real-time info via Google Search",
			Icon:        "h2o",
			Strategy:    model.StrategyGrounded,
			Model:       defaultChatModel,
		},
		{
			ID:       "bloom-ai",
			Name:     "Ak Chat Flash",
			Icon:     "bloom",
			Strategy: model.StrategyStream,
			Model:    defaultChatModel,
		},
		{
			ID:       "imagen-ai",
			Name:     "Create with Ak",
			Icon:     "image",
			Strategy: model.StrategyImage,
			Model:    defaultImageModel,
		},
	}
}

// New builds a catalog. Agents keep their given order; the first one is the
// default active agent.
func New(systemInstruction string, agents ...*model.Agent) (*Catalog, error) {
	if len(agents) == 0 {
		return nil, goerr.New("catalog has no agent")
	}

	c := &Catalog{
		index:             make(map[model.AgentID]*model.Agent, len(agents)),
		systemInstruction: strings.TrimSpace(systemInstruction),
	}

	for _, a := range agents {
		if a.ID == "" {
			return nil, goerr.New("agent ID is empty", goerr.V("name", a.Name))
		}
		if _, exists := c.index[a.ID]; exists {
			return nil, goerr.New("duplicated agent ID", goerr.V("agent_id", a.ID))
		}
		if err := a.Strategy.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid agent", goerr.V("agent_id", a.ID))
		}

		agent := *a
		if agent.Name == "" {
			agent.Name = string(agent.ID)
		}
		if agent.Model == "" {
			agent.Model = defaultChatModel
			if agent.Mode() == model.StrategyImage {
				agent.Model = defaultImageModel
			}
		}

		c.agents = append(c.agents, &agent)
		c.index[agent.ID] = &agent
	}

	return c, nil
}

// fileConfig is the YAML layout of a catalog file
type fileConfig struct {
	SystemInstruction     string         `yaml:"system_instruction"`
	SystemInstructionFile string         `yaml:"system_instruction_file"`
	Agents                []*model.Agent `yaml:"agents"`
}

// Load reads a catalog from a YAML file. Omitted agents or system instruction
// fall back to the built-in ones.
func Load(filePath string) (*Catalog, error) {
	if filePath == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("file", filePath))
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML config", goerr.V("file", filePath))
	}

	instruction := cfg.SystemInstruction
	if cfg.SystemInstructionFile != "" {
		data, err := os.ReadFile(cfg.SystemInstructionFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read system instruction file", goerr.V("file", cfg.SystemInstructionFile))
		}
		instruction = string(data)
	}
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultSystemInstruction
	}

	agents := cfg.Agents
	if len(agents) == 0 {
		agents = defaultAgents()
	}

	c, err := New(instruction, agents...)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog", goerr.V("file", filePath))
	}
	return c, nil
}

// Agents returns all agents in catalog order
func (c *Catalog) Agents() []*model.Agent {
	out := make([]*model.Agent, len(c.agents))
	copy(out, c.agents)
	return out
}

// Lookup finds an agent by ID
func (c *Catalog) Lookup(id model.AgentID) (*model.Agent, bool) {
	a, ok := c.index[id]
	return a, ok
}

// First returns the default active agent
func (c *Catalog) First() *model.Agent {
	return c.agents[0]
}

// SystemInstruction returns the instruction sent with every request
func (c *Catalog) SystemInstruction() string {
	return c.systemInstruction
}
