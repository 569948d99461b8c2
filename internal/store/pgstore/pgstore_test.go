package pgstore

import (
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsPlayConflict(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "nil", err: nil},
		{name: "generic", err: errors.New("boom")},
		{name: "primary key", err: &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: constraintPlayPrimary}, conflict: true},
		{name: "debit reference", err: &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: constraintPlayDebitReference}, conflict: true},
		{name: "other unique", err: &pgconn.PgError{Code: pgUniqueViolationCode, ConstraintName: "other_key"}},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: constraintPlayPrimary}},
	}
	for _, testCase := range testCases {
		if got := isPlayConflict(testCase.err); got != testCase.conflict {
			test.Fatalf("%s: expected %v, got %v", testCase.name, testCase.conflict, got)
		}
	}
}

func TestMapPlayRow(test *testing.T) {
	test.Parallel()
	record, err := mapPlayRow(playRow{
		playID:            "play-1",
		playerID:          "42",
		game:              "baccarat",
		amount:            "25.00",
		parameters:        `{"bet":"banker"}`,
		multiplier:        "1.9500",
		payout:            "48.75",
		description:       "Baccarat - Banker wins, player 3, banker 7",
		status:            "credit_unconfirmed",
		debitReference:    "play-1:debit",
		creditReference:   "play-1:credit",
		creditFailure:     "rejected",
		createdUnixUTC:    1_700_000_000,
		reconciledUnixUTC: 0,
	})
	if err != nil {
		test.Fatalf("map: %v", err)
	}
	if record.Game != wager.GameBaccarat || record.Parameters.Bet != wager.BetBanker || record.Parameters.Number != nil {
		test.Fatalf("unexpected record %+v", record)
	}
	if record.Payout.StringFixed(2) != "48.75" || !record.Retryable() {
		test.Fatalf("unexpected payout or status %+v", record)
	}
	if _, err := record.CreditRecord(); err != nil {
		test.Fatalf("credit record: %v", err)
	}
}

func TestMapPlayRowRejectsBadStatus(test *testing.T) {
	test.Parallel()
	_, err := mapPlayRow(playRow{
		playID: "play-1", playerID: "42", game: "slots", amount: "1", multiplier: "0", payout: "0",
		status: "bogus", debitReference: "play-1:debit",
	})
	if !errors.Is(err, wager.ErrInvalidPlayStatus) {
		test.Fatalf("expected ErrInvalidPlayStatus, got %v", err)
	}
}

func TestMarshalParameters(test *testing.T) {
	test.Parallel()
	raw, err := marshalParameters(wager.NumberParameters(0))
	if err != nil {
		test.Fatalf("marshal: %v", err)
	}
	if raw != `{"bet":"number","number":0}` {
		test.Fatalf("unexpected parameters %s", raw)
	}
	empty, err := marshalParameters(wager.Parameters{})
	if err != nil || empty != "{}" {
		test.Fatalf("unexpected empty parameters %q (%v)", empty, err)
	}
}

func TestMapPlayRowRejectsBadCreditFailure(test *testing.T) {
	test.Parallel()
	_, err := mapPlayRow(playRow{
		playID: "play-1", playerID: "42", game: "slots", amount: "1", multiplier: "2", payout: "2",
		status: "credit_unconfirmed", debitReference: "play-1:debit", creditReference: "play-1:credit",
		creditFailure: "maybe",
	})
	if !errors.Is(err, wager.ErrInvalidCreditFailure) {
		test.Fatalf("expected ErrInvalidCreditFailure, got %v", err)
	}
}
