package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andes-io/riverwatch/internal/api"
	"github.com/andes-io/riverwatch/internal/engine"
	"github.com/andes-io/riverwatch/internal/metrics"
	"github.com/andes-io/riverwatch/internal/notifier"
	"github.com/andes-io/riverwatch/internal/storage"
	"github.com/andes-io/riverwatch/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "riverwatch-server",
	Short: "RiverWatch Server - River monitoring alert engine",
	Long: `RiverWatch Server ingests river sensor readings, evaluates them
against alert rules, and dispatches notifications across configured channels.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riverwatch-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Printf("database initialized at %s", cfg.Database.Path)

	// Notification dispatch
	dispatcher := notifier.NewDispatcherWithRateLimit(
		store.Channels(),
		store.Notifications(),
		notifier.RateLimitConfig{
			MaxPerWindow: cfg.Dispatch.RateLimit.MaxPerWindow,
			Window:       cfg.Dispatch.RateLimit.WindowDuration(),
			Enabled:      cfg.Dispatch.RateLimit.Enabled,
		},
	)
	if cfg.SMTP.Host != "" {
		mailer, err := notifier.NewSMTPMailer(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return fmt.Errorf("smtp config: %w", err)
		}
		dispatcher.Register(notifier.NewEmailSender(mailer))
	} else {
		log.Printf("smtp not configured, email channels disabled")
	}
	dispatcher.Register(notifier.NewSMSSender(nil))
	dispatcher.Register(notifier.NewWebhookSender())
	dispatcher.Register(notifier.NewPushSender())

	queue := notifier.NewQueue(dispatcher, store.Alerts(), store.Sensors(), notifier.QueueConfig{
		Workers: cfg.Dispatch.Workers,
		Buffer:  cfg.Dispatch.QueueSize,
	})

	eng := engine.New(store.Rules(), store.Alerts(), store.Readings(), queue, engine.Options{
		DedupByRuleID: cfg.Engine.DedupByRuleID,
	})

	apiServer, err := api.New(&api.Config{
		Address: cfg.Server.HTTPAddress,
		Verbose: cfg.Verbose,
	}, store, eng)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)

	// Shut down on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting riverwatch-server %s", config.Version)

	queue.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Run(gctx)
	})
	g.Go(func() error {
		return metricsServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// Workers exit on the cancelled context; Stop waits for in-flight
	// dispatches to finish before the store closes. Buffered requests that
	// never started are abandoned.
	queue.Stop()

	if err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	log.Printf("server stopped")
	return nil
}
