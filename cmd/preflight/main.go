package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yegors/preflight/internal/client"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/pkg/logger"
)

// Version is injected at build time
var Version = "dev"

// globals holds the persistent flags shared by every subcommand
type globals struct {
	server    string
	timeout   time.Duration
	storePath string
	jsonOut   bool
	verbose   bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "preflight",
		Short:         "Preflight - go/no-go briefings for a VFR route",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.server, "server", "s", "http://localhost:8003", "briefing server base URL")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().StringVar(&g.storePath, "store", defaultStorePath(), "preferences store file")
	root.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(briefCmd(g))
	root.AddCommand(airportsCmd(g))
	root.AddCommand(historyCmd(g))
	root.AddCommand(prefsCmd(g))

	return root
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".preflight", "store.msgpack")
	}
	return filepath.Join(home, ".preflight", "store.msgpack")
}

func (g *globals) newLogger() *logger.Logger {
	if !g.verbose {
		return logger.NewNop()
	}
	log, err := logger.New(logger.Config{Level: "debug", Format: "console"})
	if err != nil {
		return logger.NewNop()
	}
	return log
}

func (g *globals) client(log *logger.Logger) *client.Client {
	return client.New(g.server, g.timeout, log)
}

func (g *globals) store(log *logger.Logger) *preferences.Store {
	return preferences.NewStore(preferences.NewFileKV(g.storePath), log)
}
