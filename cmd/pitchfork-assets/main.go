package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/metrics"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/server"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/pkg/config"
	"github.com/NickFlach/pitchfork-echo-studio-sub004/pkg/logger"
)

var overrides config.Overrides

var rootCmd = &cobra.Command{
	Use:   "pitchfork-assets",
	Short: "Serve the Pitchfork single-page application bundle",
	Long: "pitchfork-assets serves a pre-built front-end bundle over HTTP. Paths that do not\n" +
		"name a file in the bundle receive the entry document so the client router can\n" +
		"handle them.",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the asset server (default command)",
	RunE:  runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.Root, "root", "", "asset root directory (ASSET_ROOT)")
	flags.StringVar(&overrides.Entry, "entry", "", "entry document relative to the root (ASSET_ENTRY)")
	flags.StringVar(&overrides.Host, "host", "", "bind address (SERVER_HOST)")
	flags.StringVar(&overrides.Port, "port", "", "listen port (SERVER_PORT)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Apply(overrides); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	srv, err := server.New(cfg, log, metrics.NewProcessRegistry())
	if err != nil {
		log.Error("failed to initialize asset server", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("asset server failed", "error", err)
		return err
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
