// Package config loads service configuration from environment variables
// with validation and production-ready defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds the full service configuration.
type Config struct {
	HTTPPort string

	Graphiti GraphitiConfig
	Letta    LettaConfig
	Matrix   MatrixConfig
	Registry RegistryConfig
	Tools    ToolsConfig
}

// GraphitiConfig configures the knowledge-graph client.
type GraphitiConfig struct {
	URL      string
	MaxNodes int
	MaxFacts int
}

// LettaConfig configures the agent-runtime client.
type LettaConfig struct {
	BaseURL  string
	Password string
	APIKey   string // Bearer token; falls back to Password when empty
}

// MatrixConfig configures the chat-bridge notifier.
// An empty URL disables new-agent notifications.
type MatrixConfig struct {
	URL  string
	Room string
}

// RegistryConfig configures agent discovery.
// An empty URL disables the discovery step.
type RegistryConfig struct {
	URL       string
	MaxAgents int
	MinScore  float64
}

// ToolsConfig configures the tool-attachment client.
// An empty URL disables the tool-attachment step.
type ToolsConfig struct {
	URL string
}

// Load reads configuration from environment variables and validates it.
// Required settings that are missing or malformed return an error; the
// process must refuse to serve in that case.
func Load() (*Config, error) {
	maxNodes, err := intEnv("GRAPHITI_MAX_NODES", 5)
	if err != nil {
		return nil, err
	}
	maxFacts, err := intEnv("GRAPHITI_MAX_FACTS", 10)
	if err != nil {
		return nil, err
	}
	maxAgents, err := intEnv("AGENT_REGISTRY_MAX_AGENTS", 5)
	if err != nil {
		return nil, err
	}
	minScore, err := floatEnv("AGENT_REGISTRY_MIN_SCORE", 0.5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Graphiti: GraphitiConfig{
			URL:      os.Getenv("GRAPHITI_URL"),
			MaxNodes: maxNodes,
			MaxFacts: maxFacts,
		},
		Letta: LettaConfig{
			BaseURL:  os.Getenv("LETTA_BASE_URL"),
			Password: os.Getenv("LETTA_PASSWORD"),
			APIKey:   os.Getenv("LETTA_API_KEY"),
		},
		Matrix: MatrixConfig{
			URL:  os.Getenv("MATRIX_CLIENT_URL"),
			Room: os.Getenv("MATRIX_NOTIFY_ROOM"),
		},
		Registry: RegistryConfig{
			URL:       os.Getenv("AGENT_REGISTRY_URL"),
			MaxAgents: maxAgents,
			MinScore:  minScore,
		},
		Tools: ToolsConfig{
			URL: os.Getenv("TOOL_FINDER_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := requireAbsoluteURL("GRAPHITI_URL", c.Graphiti.URL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("LETTA_BASE_URL", c.Letta.BaseURL); err != nil {
		return err
	}
	if c.Letta.Password == "" {
		return fmt.Errorf("LETTA_PASSWORD is required")
	}
	// Optional collaborators: empty disables the subsystem, but a set
	// value must still be a usable absolute URL.
	for _, v := range []struct{ name, value string }{
		{"MATRIX_CLIENT_URL", c.Matrix.URL},
		{"AGENT_REGISTRY_URL", c.Registry.URL},
		{"TOOL_FINDER_URL", c.Tools.URL},
	} {
		if v.value == "" {
			continue
		}
		if err := requireAbsoluteURL(v.name, v.value); err != nil {
			return err
		}
	}
	if c.Graphiti.MaxNodes < 1 {
		return fmt.Errorf("GRAPHITI_MAX_NODES must be at least 1")
	}
	if c.Graphiti.MaxFacts < 1 {
		return fmt.Errorf("GRAPHITI_MAX_FACTS must be at least 1")
	}
	if c.Registry.MaxAgents < 1 {
		return fmt.Errorf("AGENT_REGISTRY_MAX_AGENTS must be at least 1")
	}
	if c.Registry.MinScore < 0 || c.Registry.MinScore > 1 {
		return fmt.Errorf("AGENT_REGISTRY_MIN_SCORE must be in [0,1], got %g", c.Registry.MinScore)
	}
	return nil
}

// requireAbsoluteURL rejects empty or relative base URLs so that an empty
// base is never stringified into request paths at call time.
func requireAbsoluteURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, value)
	}
	return nil
}

func intEnv(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, defaultVal float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
