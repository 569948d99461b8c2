package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagCasinoAPIURL     = "casino-api-url"
	flagCasinoTimeout    = "casino-timeout"
	flagDatabaseURL      = "database-url"
	flagJournalBackend   = "journal-backend"
	flagDocument         = "document"
	flagGame             = "game"
	flagAmount           = "amount"
	flagBet              = "bet"
	flagNumber           = "number"
	flagSeed             = "seed"
	flagPlayer           = "player"
	flagLimit            = "limit"
	flagServiceToken     = "service-token"
	flagRetryRejected    = "retry-rejected"
	flagPlay             = "play"
	flagResolution       = "resolution"
	flagConfirm          = "confirm"
	envPrefix            = "WAGERCTL"
	defaultCasinoAPIURL  = "http://localhost:8000"
	defaultCasinoTimeout = 5 * time.Second
	defaultLimit         = 20
)

type runtimeConfig struct {
	CasinoAPIURL   string
	CasinoTimeout  time.Duration
	DatabaseURL    string
	JournalBackend string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wagerctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	settings := viper.New()
	cmd := &cobra.Command{
		Use:           "wagerctl",
		Short:         "Operator tool for the casino wagering engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(settings, cmd.Flags(), cfg)
		},
	}

	cmd.PersistentFlags().String(flagCasinoAPIURL, defaultCasinoAPIURL, "base URL of the casino API")
	cmd.PersistentFlags().Duration(flagCasinoTimeout, defaultCasinoTimeout, "per-request casino API timeout")
	cmd.PersistentFlags().String(flagDatabaseURL, "", "play journal database URL (postgres://, sqlite:// or a file path)")
	cmd.PersistentFlags().String(flagJournalBackend, "", "journal backend for postgres: gorm or pgx")

	cmd.AddCommand(
		newGamesCommand(),
		newBalanceCommand(cfg, settings),
		newPlayCommand(cfg, settings),
		newHistoryCommand(cfg, settings),
		newReconcileCommand(cfg, settings),
	)
	return cmd
}

func loadConfig(settings *viper.Viper, flags *pflag.FlagSet, cfg *runtimeConfig) error {
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if bindErr == nil {
			bindErr = settings.BindPFlag(flag.Name, flag)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg.CasinoAPIURL = strings.TrimSpace(settings.GetString(flagCasinoAPIURL))
	if cfg.CasinoAPIURL == "" {
		cfg.CasinoAPIURL = defaultCasinoAPIURL
	}
	cfg.CasinoTimeout = settings.GetDuration(flagCasinoTimeout)
	if cfg.CasinoTimeout <= 0 {
		cfg.CasinoTimeout = defaultCasinoTimeout
	}
	cfg.DatabaseURL = strings.TrimSpace(settings.GetString(flagDatabaseURL))
	cfg.JournalBackend = strings.TrimSpace(settings.GetString(flagJournalBackend))
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}
