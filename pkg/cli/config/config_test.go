package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/everecall/pkg/cli/config"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/usecase"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestAppConfigLoad(t *testing.T) {
	t.Run("no path uses pipeline defaults", func(t *testing.T) {
		var cfg config.AppConfig
		gt.NoError(t, cfg.Load()).Required()

		gt.Number(t, cfg.Retrieval.TopK).Equal(usecase.DefaultTopK)
		gt.Number(t, cfg.Retrieval.ExpansionCount).Equal(usecase.DefaultExpansionCount)
		gt.Number(t, cfg.Embedding.Dimension).Equal(model.EmbeddingDimension)
	})

	t.Run("valid file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
[retrieval]
top_k = 10
expansion_count = 4

[embedding]
dimension = 256
fallback = true
`)

		var cfg config.AppConfig
		cfg.SetPath(path)
		gt.NoError(t, cfg.Load()).Required()

		gt.Number(t, cfg.Retrieval.TopK).Equal(10)
		gt.Number(t, cfg.Retrieval.ExpansionCount).Equal(4)
		gt.Number(t, cfg.Embedding.Dimension).Equal(256)
		gt.Value(t, cfg.Embedding.Fallback).Equal(true)
	})

	t.Run("partial file keeps defaults for unset fields", func(t *testing.T) {
		path := writeConfig(t, `
[retrieval]
top_k = 3
`)

		var cfg config.AppConfig
		cfg.SetPath(path)
		gt.NoError(t, cfg.Load()).Required()

		gt.Number(t, cfg.Retrieval.TopK).Equal(3)
		gt.Number(t, cfg.Retrieval.ExpansionCount).Equal(usecase.DefaultExpansionCount)
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg config.AppConfig
		cfg.SetPath(filepath.Join(t.TempDir(), "missing.toml"))

		err := cfg.Load()
		gt.Error(t, err)
		gt.Value(t, errors.Is(err, config.ErrConfigNotFound)).Equal(true)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfig(t, "[retrieval\ntop_k = ")

		var cfg config.AppConfig
		cfg.SetPath(path)

		err := cfg.Load()
		gt.Error(t, err)
		gt.Value(t, errors.Is(err, config.ErrInvalidConfig)).Equal(true)
	})

	t.Run("negative values rejected", func(t *testing.T) {
		path := writeConfig(t, `
[retrieval]
top_k = -1
`)

		var cfg config.AppConfig
		cfg.SetPath(path)

		err := cfg.Load()
		gt.Error(t, err)
		gt.Value(t, errors.Is(err, config.ErrInvalidConfig)).Equal(true)
	})
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		var cfg config.Logger
		cfg.SetLevel("debug")
		cfg.SetFormat("json")
		cfg.SetOutput("stderr")

		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")

		var cfg config.Logger
		cfg.SetLevel("info")
		cfg.SetFormat("console")
		cfg.SetOutput(path)

		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		defer closer()

		_, statErr := os.Stat(path)
		gt.NoError(t, statErr)
	})

	t.Run("invalid level", func(t *testing.T) {
		var cfg config.Logger
		cfg.SetLevel("verbose")

		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		var cfg config.Logger
		cfg.SetLevel("info")
		cfg.SetFormat("xml")

		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}
