package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/wagering/internal/portalapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListenAddr        = "listen-addr"
	flagCasinoAPIURL      = "casino-api-url"
	flagCasinoTimeout     = "casino-timeout"
	flagAllowedOrigins    = "allowed-origins"
	flagJWTSigningKey     = "jwt-signing-key"
	flagJWTIssuer         = "jwt-issuer"
	flagJWTCookieName     = "jwt-cookie-name"
	flagSessionTTL        = "session-ttl"
	flagCookieSecure      = "cookie-secure"
	flagDatabaseURL       = "database-url"
	flagJournalBackend    = "journal-backend"
	flagHealthAddr        = "health-addr"
	flagReconcileInterval = "reconcile-interval"
	flagReconcileBatch    = "reconcile-batch"
	flagServiceToken      = "service-token"
	flagSeed              = "seed"
	envPrefix             = "PORTALAPI"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "portalapi: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := portalapi.Config{}
	cmd := &cobra.Command{
		Use:           "portalapi",
		Short:         "HTTP portal for casino customers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return portalapi.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :9090)")
	cmd.Flags().String(flagCasinoAPIURL, "", "base URL of the casino API (required)")
	cmd.Flags().Duration(flagCasinoTimeout, 0, "per-request casino API timeout (default 5s)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "session JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "session JWT issuer")
	cmd.Flags().String(flagJWTCookieName, "", "session cookie name")
	cmd.Flags().Duration(flagSessionTTL, 0, "session lifetime (default 12h)")
	cmd.Flags().Bool(flagCookieSecure, false, "mark the session cookie Secure")
	cmd.Flags().String(flagDatabaseURL, "", "play journal database URL (postgres://, sqlite:// or a file path)")
	cmd.Flags().String(flagJournalBackend, "", "journal backend for postgres: gorm or pgx")
	cmd.Flags().String(flagHealthAddr, "", "gRPC health listen address (disabled when empty)")
	cmd.Flags().Duration(flagReconcileInterval, 0, "interval between credit reconciliation runs (disabled when 0)")
	cmd.Flags().Int(flagReconcileBatch, 0, "plays reconciled per run (default 50)")
	cmd.Flags().String(flagServiceToken, "", "casino API token used for reconciliation")
	cmd.Flags().Uint64(flagSeed, 0, "seed for reproducible outcomes (0 uses the system source)")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *portalapi.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{
		flagListenAddr, flagCasinoAPIURL, flagCasinoTimeout, flagAllowedOrigins, flagJWTSigningKey,
		flagJWTIssuer, flagJWTCookieName, flagSessionTTL, flagCookieSecure, flagDatabaseURL,
		flagJournalBackend, flagHealthAddr, flagReconcileInterval, flagReconcileBatch, flagServiceToken, flagSeed,
	} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	if !v.IsSet(flagCasinoAPIURL) {
		return fmt.Errorf("%s is required", flagCasinoAPIURL)
	}
	if !v.IsSet(flagJWTSigningKey) {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.CasinoAPIURL = strings.TrimSpace(v.GetString(flagCasinoAPIURL))
	cfg.CasinoTimeout = v.GetDuration(flagCasinoTimeout)
	cfg.AllowedOrigins = portalapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SessionSigningKey = v.GetString(flagJWTSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.SessionCookieName = strings.TrimSpace(v.GetString(flagJWTCookieName))
	cfg.SessionTTL = v.GetDuration(flagSessionTTL)
	cfg.CookieSecure = v.GetBool(flagCookieSecure)
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.JournalBackend = strings.TrimSpace(v.GetString(flagJournalBackend))
	cfg.HealthAddr = strings.TrimSpace(v.GetString(flagHealthAddr))
	cfg.ReconcileInterval = v.GetDuration(flagReconcileInterval)
	cfg.ReconcileBatch = v.GetInt(flagReconcileBatch)
	cfg.ServiceToken = v.GetString(flagServiceToken)
	cfg.Seed = v.GetUint64(flagSeed)

	return cfg.Validate()
}
