package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil retriever returns error", func(t *testing.T) {
		ports := &Ports{Analyst: &mockAnalyst{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetriever)
	})

	t.Run("nil analyst returns error", func(t *testing.T) {
		ports := &Ports{Retriever: &mockRetriever{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnalyst)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Retriever: &mockRetriever{},
			Analyst:   &mockAnalyst{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("empty ports returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRetriever)
	})

	t.Run("retriever and analyst are sufficient", func(t *testing.T) {
		ports := &Ports{
			Retriever: &mockRetriever{},
			Analyst:   &mockAnalyst{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("exporter is optional", func(t *testing.T) {
		ports := &Ports{
			Retriever: &mockRetriever{},
			Analyst:   &mockAnalyst{},
			Exporter:  &mockExporter{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
