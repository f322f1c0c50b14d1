package catalog_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parley/pkg/catalog"
	"github.com/m-mizutani/parley/pkg/model"
)

func TestDefault(t *testing.T) {
	c := catalog.Default()

	agents := c.Agents()
	gt.A(t, agents).Length(3)
	gt.Equal(t, c.First().ID, model.AgentID("h2o-gpt"))

	grounded, ok := c.Lookup("h2o-gpt")
	gt.True(t, ok)
	gt.Equal(t, grounded.Mode(), model.StrategyGrounded)
	gt.Equal(t, grounded.Description, "Real-time info via Google Search")

	stream, ok := c.Lookup("bloom-ai")
	gt.True(t, ok)
	gt.Equal(t, stream.Mode(), model.StrategyStream)

	image, ok := c.Lookup("imagen-ai")
	gt.True(t, ok)
	gt.Equal(t, image.Mode(), model.StrategyImage)
	gt.Equal(t, image.Model, "gemini-2.5-flash-image")

	_, ok = c.Lookup("unknown")
	gt.False(t, ok)

	gt.S(t, c.SystemInstruction()).Contains("Restricted topics")
}

func TestLoad(t *testing.T) {
	c, err := catalog.Load("testdata/catalog.yaml")
	gt.NoError(t, err)

	gt.Equal(t, c.SystemInstruction(), "You are a test assistant.")
	gt.A(t, c.Agents()).Length(3)
	gt.Equal(t, c.First().ID, model.AgentID("search"))

	painter, ok := c.Lookup("painter")
	gt.True(t, ok)
	gt.Equal(t, painter.Model, "gemini-2.5-flash-image")

	talk, ok := c.Lookup("talk")
	gt.True(t, ok)
	gt.Equal(t, talk.Mode(), model.StrategyStream)
	gt.Equal(t, talk.Model, "gemini-2.5-pro")
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := catalog.Load("")
	gt.NoError(t, err)
	gt.Equal(t, c.First().ID, model.AgentID("h2o-gpt"))
}

func TestLoadErrors(t *testing.T) {
	_, err := catalog.Load("testdata/not_found.yaml")
	gt.Error(t, err)

	_, err = catalog.Load("testdata/duplicated.yaml")
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("invalid catalog")

	_, err = catalog.Load("testdata/invalid_strategy.yaml")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidStrategy))
}

func TestNewRequiresAgents(t *testing.T) {
	_, err := catalog.New("instruction")
	gt.Error(t, err)

	_, err = catalog.New("instruction", &model.Agent{Name: "no id"})
	gt.Error(t, err)
}

func TestAgentsReturnsCopy(t *testing.T) {
	c := catalog.Default()
	agents := c.Agents()
	agents[0] = nil

	gt.NotNil(t, c.Agents()[0])
}
