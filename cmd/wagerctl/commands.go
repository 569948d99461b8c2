package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/internal/oplog"
	"github.com/MarkoPoloResearchLab/wagering/internal/portal"
	"github.com/MarkoPoloResearchLab/wagering/internal/remote"
	"github.com/MarkoPoloResearchLab/wagering/internal/store/dbopen"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newGamesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List the game catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "GAME\tNAME\tMIN BET\tBETS")
			for _, game := range wager.Games() {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", game.Kind, game.Name, game.MinimumBet.StringFixed(2), strings.Join(game.Bets, ","))
			}
			return writer.Flush()
		},
	}
}

func newBalanceCommand(cfg *runtimeConfig, settings *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Log in a customer and show the balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			service, _, err := newPortal(cfg, logger)
			if err != nil {
				return err
			}
			playerSession, profile, err := service.Login(ctx, settings.GetString(flagDocument))
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			balance, err := service.RefreshBalance(ctx, playerSession)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "player %s (%s): balance %s, points %d\n",
				playerSession.PlayerID(), profile.FullName, balance.Available.StringFixed(2), balance.Points)
			return nil
		},
	}
	cmd.Flags().String(flagDocument, "", "customer document number")
	return cmd
}

func newPlayCommand(cfg *runtimeConfig, settings *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Place one wager for a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			kind, err := wager.ParseGameKind(settings.GetString(flagGame))
			if err != nil {
				return err
			}
			amount, err := wager.ParseAmount(settings.GetString(flagAmount))
			if err != nil {
				return err
			}
			parameters := wager.Parameters{Bet: settings.GetString(flagBet)}
			if cmd.Flags().Changed(flagNumber) || settings.IsSet(flagNumber) {
				number := settings.GetInt(flagNumber)
				parameters.Number = &number
			}

			service, client, err := newPortal(cfg, logger)
			if err != nil {
				return err
			}
			options := []wager.Option{wager.WithOperationLogger(oplog.NewZapLogger(logger))}
			if cfg.DatabaseURL != "" {
				journal, cleanup, err := openJournal(ctx, cfg)
				if err != nil {
					return err
				}
				defer func() { _ = cleanup() }()
				options = append(options, wager.WithJournal(journal))
			}
			random := wager.SystemRandom()
			if seed := settings.GetUint64(flagSeed); seed != 0 {
				random = wager.NewSeededRandom(seed)
			}
			processor, err := wager.NewProcessor(client, random, unixNow, options...)
			if err != nil {
				return err
			}

			playerSession, _, err := service.Login(ctx, settings.GetString(flagDocument))
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			result, playErr := processor.Play(ctx, playerSession, kind, amount, parameters)
			if result.PlayID.String() != "" {
				writePlayResult(cmd.OutOrStdout(), result)
			}
			return playErr
		},
	}
	cmd.Flags().String(flagDocument, "", "customer document number")
	cmd.Flags().String(flagGame, "", "game to play")
	cmd.Flags().String(flagAmount, "", "wager amount")
	cmd.Flags().String(flagBet, "", "bet choice for games that take one")
	cmd.Flags().Int(flagNumber, 0, "roulette number for a number bet")
	cmd.Flags().Uint64(flagSeed, 0, "seed for a reproducible outcome")
	return cmd
}

func newHistoryCommand(cfg *runtimeConfig, settings *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled plays of a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()
			playerID, err := wager.NewPlayerID(settings.GetString(flagPlayer))
			if err != nil {
				return err
			}
			journal, cleanup, err := openJournal(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			records, err := journal.ListPlays(ctx, playerID, limitOrDefault(settings.GetInt(flagLimit)))
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "PLAY\tGAME\tAMOUNT\tPAYOUT\tSTATUS\tCREATED")
			for _, record := range records {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
					record.PlayID, record.Game, record.Amount.StringFixed(2), record.Payout.StringFixed(2),
					record.Status, time.Unix(record.CreatedUnixUTC, 0).UTC().Format(time.RFC3339))
			}
			return writer.Flush()
		},
	}
	cmd.Flags().String(flagPlayer, "", "player id")
	cmd.Flags().Int(flagLimit, defaultLimit, "maximum plays to list")
	return cmd
}

func newReconcileCommand(cfg *runtimeConfig, settings *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Review and settle unconfirmed prize credits",
		Long: `Without flags, lists unconfirmed prize credits and changes nothing.

A credit the casino API rejected was never applied and can be resent with
--retry-rejected. A credit whose outcome is unknown may already be paid, so an
operator checks the customer's transactions and settles it with
--play ID --resolution resubmit|paid. Every change requires --confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			retryRejected := settings.GetBool(flagRetryRejected)
			rawPlayID := strings.TrimSpace(settings.GetString(flagPlay))
			if retryRejected && rawPlayID != "" {
				return fmt.Errorf("--%s and --%s are mutually exclusive", flagRetryRejected, flagPlay)
			}
			journal, cleanup, err := openJournal(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			limit := limitOrDefault(settings.GetInt(flagLimit))
			if !retryRejected && rawPlayID == "" {
				return writePendingCredits(ctx, cmd.OutOrStdout(), journal, limit)
			}
			if !settings.GetBool(flagConfirm) {
				return fmt.Errorf("refusing to submit credits without --%s", flagConfirm)
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			credential, err := wager.NewCredential(settings.GetString(flagServiceToken))
			if err != nil {
				return fmt.Errorf("%s: %w", flagServiceToken, err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			reconciler, err := wager.NewReconciler(journal, client, credential, unixNow, wager.WithOperationLogger(oplog.NewZapLogger(logger)))
			if err != nil {
				return err
			}

			if rawPlayID != "" {
				playID, err := wager.NewPlayID(rawPlayID)
				if err != nil {
					return err
				}
				resolution, err := wager.ParseResolution(settings.GetString(flagResolution))
				if err != nil {
					return err
				}
				if err := reconciler.Resolve(ctx, playID, resolution); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "play %s: %s, reconciled\n", playID, resolution)
				return nil
			}

			report, err := reconciler.Reconcile(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempted %d, reconciled %d, failed %d, review %d\n",
				len(report.Attempted), len(report.Reconciled), len(report.Failed), len(report.Review))
			for _, playID := range report.Failed {
				fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", playID)
			}
			for _, playID := range report.Review {
				fmt.Fprintf(cmd.OutOrStdout(), "review: %s\n", playID)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d credits still unconfirmed", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().String(flagServiceToken, "", "casino API token allowed to credit any player")
	cmd.Flags().Int(flagLimit, defaultLimit, "maximum plays to list or reconcile")
	cmd.Flags().Bool(flagRetryRejected, false, "resend credits the casino API rejected")
	cmd.Flags().String(flagPlay, "", "play id to settle by hand")
	cmd.Flags().String(flagResolution, "", "verdict for --play: resubmit or paid")
	cmd.Flags().Bool(flagConfirm, false, "apply the change instead of refusing")
	return cmd
}

func writePendingCredits(ctx context.Context, out io.Writer, journal wager.Journal, limit int) error {
	pending, err := journal.ListPending(ctx, limit)
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "PLAY\tPLAYER\tPAYOUT\tFAILURE\tCREATED")
	for _, record := range pending {
		failure := record.CreditFailure.String()
		if failure == "" {
			failure = wager.CreditFailureUnknown.String()
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			record.PlayID, record.PlayerID, record.Payout.StringFixed(2), failure,
			time.Unix(record.CreatedUnixUTC, 0).UTC().Format(time.RFC3339))
	}
	return writer.Flush()
}

func writePlayResult(out io.Writer, result wager.PlayResult) {
	fmt.Fprintf(out, "play %s: %s\n", result.PlayID, result.Outcome.Description)
	fmt.Fprintf(out, "  wager %s x%s = payout %s (net %s)\n",
		result.Outcome.Amount.StringFixed(2), result.Outcome.Multiplier.String(),
		result.Outcome.Payout.StringFixed(2), result.Outcome.Net().StringFixed(2))
	fmt.Fprintf(out, "  status %s, balance %s\n", result.Status, result.Balance.Available.StringFixed(2))
}

func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return logger, nil
}

func newClient(cfg *runtimeConfig) (*remote.Client, error) {
	client, err := remote.NewClient(remote.Config{BaseURL: cfg.CasinoAPIURL, Timeout: cfg.CasinoTimeout})
	if err != nil {
		return nil, fmt.Errorf("casino client: %w", err)
	}
	return client, nil
}

func newPortal(cfg *runtimeConfig, logger *zap.Logger) (*portal.Service, *remote.Client, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	service, err := portal.NewService(client, logger)
	if err != nil {
		return nil, nil, err
	}
	return service, client, nil
}

func openJournal(ctx context.Context, cfg *runtimeConfig) (wager.Journal, func() error, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("%s is required", flagDatabaseURL)
	}
	journal, cleanup, err := dbopen.OpenJournal(ctx, cfg.DatabaseURL, dbopen.Options{Backend: cfg.JournalBackend})
	if err != nil {
		return nil, nil, fmt.Errorf("journal open: %w", err)
	}
	return journal, cleanup, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func unixNow() int64 {
	return time.Now().UTC().Unix()
}
