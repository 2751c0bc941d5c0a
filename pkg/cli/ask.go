package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/cli/config"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var basePrompt string
	var topK int
	var expansionCount int
	var entityID string
	var devFallback bool
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "base-prompt",
			Usage:       "System prompt to augment with retrieved knowledge",
			Value:       "You are a helpful assistant.",
			Sources:     cli.EnvVars("EVERECALL_BASE_PROMPT"),
			Destination: &basePrompt,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of results per query variant (0 = default)",
			Destination: &topK,
		},
		&cli.IntFlag{
			Name:        "expansion-count",
			Usage:       "Number of query paraphrases to generate (0 = default)",
			Destination: &expansionCount,
		},
		&cli.StringFlag{
			Name:        "entity",
			Usage:       "Restrict search to knowledge scoped to this entity ID",
			Destination: &entityID,
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
		Name:      "ask",
		Usage:     "Run the retrieval pipeline once and print the augmented prompt",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return goerr.New("query argument is required")
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

			if topK == 0 {
				topK = appCfg.Retrieval.TopK
			}
			if expansionCount == 0 {
				expansionCount = appCfg.Retrieval.ExpansionCount
			}

			aug, err := uc.Retrieval.AugmentSystemPrompt(ctx, basePrompt, query, usecase.RetrievalOptions{
				TopK:           topK,
				ExpansionCount: expansionCount,
				EntityID:       model.EntityID(entityID),
			})
			if err != nil {
				return goerr.Wrap(err, "retrieval failed")
			}

			title := color.New(color.FgCyan, color.Bold)
			dim := color.New(color.FgHiBlack)

			title.Fprintln(os.Stdout, "=== Augmented Prompt ===")
			fmt.Fprintln(os.Stdout, aug.Prompt)

			if len(aug.Results) > 0 {
				title.Fprintln(os.Stdout, "\n=== Retrieved Records ===")
				for i, r := range aug.Results {
					fmt.Fprintf(os.Stdout, "%2d. [%.4f] %s\n", i+1, r.Similarity, r.Knowledge.Content)
					if r.Knowledge.Source != "" {
						dim.Fprintf(os.Stdout, "     source: %s\n", r.Knowledge.Source)
					}
				}
			}

			if aug.Diagnostic != "" {
				color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %s\n", aug.Diagnostic)
			}

			return nil
		},
	}
}
