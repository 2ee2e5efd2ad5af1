package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook/quotes"
	"github.com/mlanders/tradebook/server"
	"github.com/mlanders/tradebook/store"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the ledger HTTP server" }
func (*serveCmd) Usage() string {
	return `tbk serve

  Serves the ledger API. Configuration comes from the environment (or a
  .env file): PORT, DB_PATH, DISPLAY_CURRENCY, FX_PIVOT, FX_RATES,
  TWELVE_DATA_API_KEY, EODHD_API_KEY, REFRESH_SCHEDULE, REFRESH_SECRET.
`
}

func (p *serveCmd) SetFlags(f *flag.FlagSet) {}

func (p *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := cliLogger()

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return subcommands.ExitFailure
	}

	st, err := store.Open(cfg.DBPath, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open ledger database")
		return subcommands.ExitFailure
	}
	defer st.Close()

	var providers []quotes.Provider
	client := quotes.DailyCachedClient()
	if cfg.TwelveDataAPIKey != "" {
		providers = append(providers, &quotes.TwelveData{APIKey: cfg.TwelveDataAPIKey, Client: client})
	}
	providers = append(providers, &quotes.Yahoo{Client: client})
	if cfg.EODHDAPIKey != "" {
		providers = append(providers, &quotes.EODHD{APIKey: cfg.EODHDAPIKey, Client: client})
	}

	srv := server.New(cfg, st, quotes.NewChain(log, providers...), log)
	if err := srv.StartJobs(); err != nil {
		log.Error().Err(err).Msg("Failed to start background jobs")
		return subcommands.ExitFailure
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server failed")
			return subcommands.ExitFailure
		}
	case sig := <-quit:
		fmt.Fprintln(os.Stderr)
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
