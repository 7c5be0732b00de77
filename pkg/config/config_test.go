package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GRAPHITI_URL", "http://graphiti.local:8000")
	t.Setenv("LETTA_BASE_URL", "http://letta.local:8283")
	t.Setenv("LETTA_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.Graphiti.MaxNodes)
	assert.Equal(t, 10, cfg.Graphiti.MaxFacts)
	assert.Equal(t, 5, cfg.Registry.MaxAgents)
	assert.Equal(t, 0.5, cfg.Registry.MinScore)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GRAPHITI_MAX_NODES", "12")
	t.Setenv("AGENT_REGISTRY_URL", "http://registry.local")
	t.Setenv("AGENT_REGISTRY_MIN_SCORE", "0.75")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 12, cfg.Graphiti.MaxNodes)
	assert.Equal(t, "http://registry.local", cfg.Registry.URL)
	assert.Equal(t, 0.75, cfg.Registry.MinScore)
}

func TestLoad_MissingRequiredURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GRAPHITI_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAPHITI_URL is required")
}

func TestLoad_RelativeURLRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GRAPHITI_URL", "graphiti.local/search")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")
}

func TestLoad_MissingPassword(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LETTA_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LETTA_PASSWORD")
}

func TestLoad_InvalidBounds(t *testing.T) {
	t.Run("max nodes below one", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("GRAPHITI_MAX_NODES", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GRAPHITI_MAX_NODES")
	})

	t.Run("min score out of range", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("AGENT_REGISTRY_MIN_SCORE", "1.5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AGENT_REGISTRY_MIN_SCORE")
	})

	t.Run("non-numeric int", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("GRAPHITI_MAX_FACTS", "many")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GRAPHITI_MAX_FACTS")
	})
}

func TestLoad_OptionalURLStillValidated(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MATRIX_CLIENT_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATRIX_CLIENT_URL")
}
