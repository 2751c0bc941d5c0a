package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the optional application configuration file
type AppConfig struct {
	path string

	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

// RetrievalConfig tunes the retrieval pipeline defaults
type RetrievalConfig struct {
	TopK           int `toml:"top_k"`
	ExpansionCount int `toml:"expansion_count"`
}

// Validate checks if the RetrievalConfig is valid
func (r *RetrievalConfig) Validate() error {
	if r.TopK < 0 {
		return goerr.Wrap(ErrInvalidConfig, "retrieval.top_k must not be negative", goerr.V("top_k", r.TopK))
	}
	if r.ExpansionCount < 0 {
		return goerr.Wrap(ErrInvalidConfig, "retrieval.expansion_count must not be negative", goerr.V("expansion_count", r.ExpansionCount))
	}
	return nil
}

// EmbeddingConfig tunes the embedding service
type EmbeddingConfig struct {
	Dimension int  `toml:"dimension"`
	Fallback  bool `toml:"fallback"`
}

// Validate checks if the EmbeddingConfig is valid
func (e *EmbeddingConfig) Validate() error {
	if e.Dimension < 0 {
		return goerr.Wrap(ErrInvalidConfig, "embedding.dimension must not be negative", goerr.V("dimension", e.Dimension))
	}
	return nil
}

// Flags returns CLI flags for the application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to application configuration file (TOML)",
			Sources:     cli.EnvVars("EVERECALL_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := a.Retrieval.Validate(); err != nil {
		return err
	}
	if err := a.Embedding.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads and validates the configuration file. When no path is
// configured the zero-value config is returned so unset fields fall back
// to the pipeline defaults.
func (a *AppConfig) Load() error {
	if a.path == "" {
		a.applyDefaults()
		return nil
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return goerr.Wrap(ErrConfigNotFound, "configuration file does not exist", goerr.V(ConfigPathKey, a.path))
		}
		return goerr.Wrap(err, "failed to read configuration file", goerr.V(ConfigPathKey, a.path))
	}

	if err := toml.Unmarshal(data, a); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "failed to parse configuration file", goerr.V(ConfigPathKey, a.path), goerr.V("error", err.Error()))
	}

	if err := a.Validate(); err != nil {
		return goerr.Wrap(err, "invalid configuration file", goerr.V(ConfigPathKey, a.path))
	}

	a.applyDefaults()
	return nil
}

func (a *AppConfig) applyDefaults() {
	if a.Retrieval.TopK == 0 {
		a.Retrieval.TopK = usecase.DefaultTopK
	}
	if a.Retrieval.ExpansionCount == 0 {
		a.Retrieval.ExpansionCount = usecase.DefaultExpansionCount
	}
	if a.Embedding.Dimension == 0 {
		a.Embedding.Dimension = model.EmbeddingDimension
	}
}
