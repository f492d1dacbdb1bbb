package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/internal/health"
	"github.com/selivandex/market-digest/internal/pipeline"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "digest",
		Short:         "Generate and publish the daily financial market digest",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "schedule",
			Short: "Run the digest on SCHEDULE_CRON until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runScheduled(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration with secrets masked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Describe())
				return nil
			},
		},
	)
	return root
}

func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

func runOnce(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("market digest starting",
		zap.String("model", cfg.LLM.Model),
		zap.Strings("languages", cfg.Digest.TargetLanguages),
	)

	p, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	status, err := p.Execute(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run status: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runScheduled(ctx context.Context) error {
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	sw, err := worker.NewScheduledWorker(p, cfg.Schedule.Cron, cfg.Schedule.Location())
	if err != nil {
		return err
	}
	sw.Start(ctx)

	var probes *health.Server
	if cfg.Schedule.HealthAddr != "" {
		probes = health.NewServer(cfg.Schedule.HealthAddr, sw, p)
		go func() {
			if err := probes.Start(); err != nil {
				logger.Error("health check server failed", zap.Error(err))
			}
		}()
		probes.SetReady(true)
	}

	<-ctx.Done()
	logger.Info("shutting down scheduler")

	if probes != nil {
		probes.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := probes.Stop(shutdownCtx); err != nil {
			logger.Warn("health check server shutdown failed", zap.Error(err))
		}
	}

	sw.Stop(shutdownTimeout)
	return nil
}
