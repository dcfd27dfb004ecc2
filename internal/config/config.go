// Package config holds the engine's flat configuration record.
// Loading it from env vars, flags, or files is out of scope; callers
// populate a Config and check it with Validate.
package config

import "fmt"

// Config is the recognized set of options per the ingestion/external-interface
// contract. Zero value is invalid; call Validate after populating it.
type Config struct {
	// DBPath is the filesystem path for the relational store. Required.
	DBPath string
	// VectorDBPath is the directory for the persistent vector index. If
	// empty, the engine falls back to the in-memory vector index.
	VectorDBPath string

	EmbeddingModel      string
	EmbeddingEndpoint   string
	EmbeddingDimensions int

	// LLMEndpoint is optional; no operation requires it.
	LLMEndpoint string

	// UserEmail and UserPhone identify self-authored messages.
	UserEmail string
	UserPhone string
}

// Default returns a Config with documented defaults applied, DBPath unset.
func Default() Config {
	return Config{
		EmbeddingDimensions: 768,
	}
}

// Validate checks required fields and fills in defaults for zero-valued
// optional fields that have documented defaults.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is required")
	}
	if c.EmbeddingDimensions <= 0 {
		c.EmbeddingDimensions = 768
	}
	return nil
}
