// Command tern chats with LLM backends through one streaming interface.
// Providers are configured from the environment: OPENAI_API_KEY,
// ANTHROPIC_API_KEY, and TERN_LOCAL_BASE_URL each enable one backend, and a
// .env file in the working directory is loaded automatically.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wirebird/tern"
	"github.com/wirebird/tern/provider/anthropic"
	"github.com/wirebird/tern/provider/local"
	"github.com/wirebird/tern/provider/openai"
)

var log zerolog.Logger

var verbose bool

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelError}),
	))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

var rootCmd = &cobra.Command{
	Use:          "tern",
	Short:        "Chat with LLM backends through one streaming interface",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetDefault(slog.New(
				zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelDebug}),
			))
		}
	},
}

// buildRegistry constructs one provider per configured backend. A provider
// is only registered when its environment holds enough to reach it.
func buildRegistry() *tern.Registry {
	reg := tern.NewRegistry()
	if os.Getenv("OPENAI_API_KEY") != "" {
		reg.Register(openai.New(openai.FromEnv()))
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		reg.Register(anthropic.New(anthropic.FromEnv()))
	}
	if os.Getenv("TERN_LOCAL_BASE_URL") != "" {
		reg.Register(local.New())
	}
	return reg
}

func requireProviders(reg *tern.Registry) error {
	if reg.Len() == 0 {
		return fmt.Errorf("no providers configured: set OPENAI_API_KEY, ANTHROPIC_API_KEY, or TERN_LOCAL_BASE_URL")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
