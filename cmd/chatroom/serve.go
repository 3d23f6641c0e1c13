package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/server"
	"github.com/spf13/cobra"
)

var (
	serveConfig         string
	serveListen         string
	serveTrigger        string
	serveMaxDescriptors int
	serveStatsInterval  time.Duration
	servePresence       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveConfig, "config", "c", "", "path to YAML config (defaults apply when empty)")
	f.StringVar(&serveListen, "listen", "", "listen address, overrides config")
	f.StringVar(&serveTrigger, "trigger", "", "readiness mode: et or lt, overrides config")
	f.IntVar(&serveMaxDescriptors, "max-descriptors", 0, "registry capacity including the listener")
	f.DurationVar(&serveStatsInterval, "stats-interval", 0, "period of the stats log line (0 disables)")
	f.BoolVar(&servePresence, "presence", false, "announce joins and departures to other clients")
}

// loadServeConfig overlays command-line flags on the file configuration.
func loadServeConfig(cmd *cobra.Command) (*server.Config, error) {
	fc := control.Defaults()
	if serveConfig != "" {
		loaded, err := control.Load(serveConfig)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		fc = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		fc.Listen = serveListen
	}
	if flags.Changed("trigger") {
		fc.Trigger = serveTrigger
	}
	if flags.Changed("max-descriptors") {
		fc.MaxDescriptors = serveMaxDescriptors
	}
	if flags.Changed("stats-interval") {
		fc.StatsInterval = serveStatsInterval
	}
	if flags.Changed("presence") {
		fc.AnnouncePresence = servePresence
	}
	return server.ConfigFrom(fc)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	flags := log.LstdFlags
	if verbose {
		flags |= log.Lmicroseconds | log.Lshortfile
	}
	logger := log.New(os.Stderr, "", flags)

	probes := control.NewProbes()
	if err := control.RegisterProcessProbes(probes); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: process probes unavailable: %v\n", err)
	}

	srv, err := server.NewServer(cfg, server.WithLogger(logger), server.WithProbes(probes))
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
