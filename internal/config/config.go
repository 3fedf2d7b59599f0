// Package config loads the agent's YAML configuration. Every field has a
// default mirroring the Los Dos Gallos deployment, so an empty file (or no
// file at all) yields a working agent.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"comanda/internal/conversation"
	"comanda/internal/menu"
)

// Restaurant holds the facts the model and the prompts are grounded on.
type Restaurant struct {
	Name           string            `yaml:"name"`
	Phone          string            `yaml:"phone"`
	Address        string            `yaml:"address"`
	Hours          map[string]string `yaml:"hours"`
	TaxRate        float64           `yaml:"tax_rate"`
	PickupEstimate string            `yaml:"pickup_estimate"`
}

// Interpreter configures the language-model adapter.
type Interpreter struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
}

// Session configures the session store.
type Session struct {
	IdleTTL       string `yaml:"idle_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// Config is the full application configuration.
type Config struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	POSWebhook  string `yaml:"pos_webhook"`

	Restaurant  Restaurant           `yaml:"restaurant"`
	Persona     conversation.Persona `yaml:"persona"`
	Interpreter Interpreter          `yaml:"interpreter"`
	Session     Session              `yaml:"session"`

	MenuItems   []menu.Item       `yaml:"menu"`
	MenuAliases map[string]string `yaml:"menu_aliases"`
}

// Default returns the built-in Los Dos Gallos configuration.
func Default() *Config {
	return &Config{
		Port:        8080,
		MetricsPort: 9090,
		Restaurant: Restaurant{
			Name:    "Los Dos Gallos",
			Phone:   "(229) 890-9426",
			Address: "2205 1st Ave SE, Moultrie, GA 31788",
			Hours: map[string]string{
				"sunday":    "11:00 AM - 9:00 PM",
				"monday":    "CLOSED",
				"tuesday":   "11:00 AM - 9:00 PM",
				"wednesday": "11:00 AM - 9:00 PM",
				"thursday":  "11:00 AM - 9:00 PM",
				"friday":    "11:00 AM - 10:00 PM",
				"saturday":  "11:00 AM - 10:00 PM",
			},
			TaxRate:        0.07,
			PickupEstimate: "20-25 minutes",
		},
		Persona: conversation.DefaultPersona(),
		Interpreter: Interpreter{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   300,
			Timeout:     "8s",
		},
		Session: Session{
			IdleTTL:       "2m",
			SweepInterval: "30s",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Restaurant.TaxRate < 0 || c.Restaurant.TaxRate > 1 {
		return fmt.Errorf("tax_rate %v outside [0,1]", c.Restaurant.TaxRate)
	}
	for _, field := range []struct{ name, value string }{
		{"interpreter.timeout", c.Interpreter.Timeout},
		{"session.idle_ttl", c.Session.IdleTTL},
		{"session.sweep_interval", c.Session.SweepInterval},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	return nil
}

// InterpreterTimeout returns the parsed model-call timeout.
func (c *Config) InterpreterTimeout() time.Duration {
	return mustDuration(c.Interpreter.Timeout, 8*time.Second)
}

// SessionIdleTTL returns the parsed idle eviction TTL.
func (c *Config) SessionIdleTTL() time.Duration {
	return mustDuration(c.Session.IdleTTL, 2*time.Minute)
}

// SweepInterval returns the parsed eviction sweep cadence.
func (c *Config) SweepInterval() time.Duration {
	return mustDuration(c.Session.SweepInterval, 30*time.Second)
}

// Catalog builds the menu catalog, falling back to the built-in menu when
// the config supplies none.
func (c *Config) Catalog() (*menu.Catalog, error) {
	items := c.MenuItems
	aliases := c.MenuAliases
	if len(items) == 0 {
		items = menu.DefaultItems
		if aliases == nil {
			aliases = menu.DefaultAliases
		}
	}
	return menu.NewCatalog(items, aliases)
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
