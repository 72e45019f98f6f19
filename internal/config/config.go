// Package config provides the typed configuration injected into the engine
// at construction. Values come from the environment (optionally seeded by a
// .env file in cmd); there are no global lookups elsewhere in the codebase.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces all environment variables (SHOPASSIST_*).
const envPrefix = "shopassist"

// Config holds all runtime settings for the assistant engine.
type Config struct {
	// AssistantTitle is the display name used in greetings.
	AssistantTitle string `split_words:"true" default:"GreenLeaf assistent"`
	// Language selects FAQ language and localized copy (two-letter code).
	Language string `default:"nl"`
	// Debug attaches raw provider errors to gateway failures.
	Debug bool `default:"false"`

	// APIAddr is the listen address of the HTTP surface.
	APIAddr string `envconfig:"API_ADDR" default:":8080"`

	// OpenAIKey authenticates the language model gateway.
	OpenAIKey string `envconfig:"OPENAI_API_KEY"`
	// Model is the chat completion model.
	Model string `default:"gpt-4o-mini"`
	// Temperature is the sampling temperature for model calls.
	Temperature float64 `default:"0.7"`
	// MaxTokens caps the completion length; 0 leaves it to the provider.
	MaxTokens int64 `split_words:"true" default:"0"`

	// DBDriver selects the conversation store backend: sqlite3, postgres or
	// memory.
	DBDriver string `split_words:"true" default:"memory"`
	// DatabaseDSN is the SQLite file path or Postgres DSN.
	DatabaseDSN string `split_words:"true"`
	// RedisURL enables the Redis TTL store for questionnaire state; empty
	// uses the in-memory TTL store.
	RedisURL string `split_words:"true"`

	// Tier is the licensed authorization tier: free, standard or premium.
	Tier string `default:"standard"`

	// ContactEmail and ContactPhone feed the deterministic contact intent.
	ContactEmail string `split_words:"true" default:"info@greenleaf.example"`
	ContactPhone string `split_words:"true" default:"+31 20 123 4567"`

	// StepsFile optionally points at a JSON questionnaire step definition
	// list; invalid or missing files fall back to the built-in steps.
	StepsFile string `split_words:"true"`
	// RulesFile optionally points at a JSON list of admin profile rules
	// evaluated before the built-in heuristic.
	RulesFile string `split_words:"true"`
	// CatalogFile optionally points at a JSON catalog item list for the
	// in-memory provider.
	CatalogFile string `split_words:"true"`
	// KnowledgeFile optionally points at a JSON knowledge base document with
	// FAQ entries and ingredient facts.
	KnowledgeFile string `split_words:"true"`
}

// Load parses the configuration from SHOPASSIST_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
