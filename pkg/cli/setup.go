package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/cli/config"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/service/embedding"
	"github.com/secmon-lab/everecall/pkg/service/expand"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
)

// buildUseCases wires the repository, embedding service and query expander
// from the shared configuration groups. The caller owns the wired
// repository and must Close it via UseCases.Repo.
func buildUseCases(ctx context.Context, appCfg *config.AppConfig, repoCfg *config.Repository, geminiCfg *config.Gemini, devFallback bool) (*usecase.UseCases, error) {
	if err := appCfg.Load(); err != nil {
		return nil, goerr.Wrap(err, "failed to load application configuration")
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	llmClient, err := geminiCfg.Configure(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, goerr.Wrap(err, "failed to configure LLM client")
	}

	embedOpts := []embedding.Option{
		embedding.WithDimension(appCfg.Embedding.Dimension),
	}
	if devFallback || appCfg.Embedding.Fallback {
		embedOpts = append(embedOpts, embedding.WithFallback(true))
	}
	embedder, err := embedding.New(llmClient, embedOpts...)
	if err != nil {
		_ = repo.Close()
		return nil, goerr.Wrap(err, "failed to configure embedding service")
	}

	var expander interfaces.QueryExpander
	if llmClient != nil {
		e, err := expand.New(llmClient)
		if err != nil {
			_ = repo.Close()
			return nil, goerr.Wrap(err, "failed to configure query expander")
		}
		expander = e
	} else {
		logging.Default().Warn("LLM client not configured, query expansion disabled")
	}

	return usecase.New(repo, embedder, expander), nil
}
