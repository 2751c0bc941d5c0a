package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/cli/config"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var content string
	var filePath string
	var entityName string
	var source string
	var tags []string
	var devFallback bool
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Usage:       "Knowledge content to store",
			Destination: &content,
		},
		&cli.StringFlag{
			Name:        "file",
			Usage:       "Read knowledge content from a file ('-' for stdin)",
			Destination: &filePath,
		},
		&cli.StringFlag{
			Name:        "entity",
			Usage:       "Scope the record to this entity name (entity must exist)",
			Destination: &entityName,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Provenance identifier stored with the record",
			Destination: &source,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Tag to attach to the record (repeatable)",
			Destination: &tags,
		},
		&cli.BoolFlag{
			Name:        "embedding-fallback",
			Usage:       "Use pseudorandom embeddings when no LLM provider is configured (development only)",
			Sources:     cli.EnvVars("EVERECALL_EMBEDDING_FALLBACK"),
			Destination: &devFallback,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Store a knowledge record",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			switch {
			case content != "" && filePath != "":
				return goerr.New("--content and --file are mutually exclusive")
			case content == "" && filePath == "":
				return goerr.New("either --content or --file is required")
			case filePath == "-":
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return goerr.Wrap(err, "failed to read stdin")
				}
				content = string(data)
			case filePath != "":
				data, err := os.ReadFile(filePath)
				if err != nil {
					return goerr.Wrap(err, "failed to read content file", goerr.V("path", filePath))
				}
				content = string(data)
			}

			if strings.TrimSpace(content) == "" {
				return goerr.New("knowledge content is empty")
			}

			uc, err := buildUseCases(ctx, &appCfg, &repoCfg, &geminiCfg, devFallback)
			if err != nil {
				return err
			}
			defer func() {
				if err := uc.Repo().Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			var entityID model.EntityID
			if entityName != "" {
				entity, err := uc.Entity.GetEntityByName(ctx, entityName)
				if err != nil {
					return goerr.Wrap(err, "failed to resolve entity", goerr.V("name", entityName))
				}
				entityID = entity.ID
			}

			created, err := uc.Knowledge.Ingest(ctx, usecase.IngestInput{
				Content:  content,
				EntityID: entityID,
				Source:   source,
				Tags:     tags,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to ingest knowledge")
			}

			logging.Default().Info("Knowledge stored", "id", created.ID)
			return nil
		},
	}
}
