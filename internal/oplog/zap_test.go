package oplog

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(test *testing.T) {
	test.Parallel()
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))
	playerID, err := wager.NewPlayerID("42")
	if err != nil {
		test.Fatalf("player id: %v", err)
	}
	reference, err := wager.NewReference("play-1:debit")
	if err != nil {
		test.Fatalf("reference: %v", err)
	}

	logger.LogOperation(context.Background(), wager.OperationLog{
		Operation: "debit",
		Status:    "ok",
		PlayerID:  playerID,
		Game:      wager.GameSlots,
		Amount:    decimal.RequireFromString("0.25"),
		Reference: reference,
	})
	logger.LogOperation(context.Background(), wager.OperationLog{
		Operation: "credit",
		Status:    "error",
		PlayerID:  playerID,
		Error:     errors.New("boom"),
	})

	entries := recorded.All()
	if len(entries) != 2 {
		test.Fatalf("expected 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "debit" || fields["amount"] != "0.25" || fields["reference"] != "play-1:debit" || fields["game"] != "slots" {
		test.Fatalf("unexpected fields %v", fields)
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].ContextMap()["error"] != "boom" {
		test.Fatalf("unexpected failure entry %+v", entries[1])
	}
}

func TestNewZapLoggerNil(test *testing.T) {
	test.Parallel()
	NewZapLogger(nil).LogOperation(context.Background(), wager.OperationLog{Operation: "play"})
}
