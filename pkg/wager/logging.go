package wager

import (
	"context"

	"github.com/shopspring/decimal"
)

// Option configures a Processor or Reconciler.
type Option func(*dependencies)

type dependencies struct {
	logger    OperationLogger
	journal   Journal
	newPlayID func() string
}

// OperationLogger records domain-level events emitted while playing and settling.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one step of a play or a reconciliation pass.
type OperationLog struct {
	Operation string
	PlayerID  PlayerID
	PlayID    PlayID
	Game      GameKind
	Amount    decimal.Decimal
	Reference Reference
	Status    string
	Error     error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) Option {
	return func(deps *dependencies) {
		deps.logger = logger
	}
}

// WithJournal wires the store that keeps settled and unconfirmed plays.
func WithJournal(journal Journal) Option {
	return func(deps *dependencies) {
		deps.journal = journal
	}
}

// WithPlayIDGenerator overrides how play identifiers are minted.
func WithPlayIDGenerator(generator func() string) Option {
	return func(deps *dependencies) {
		if generator != nil {
			deps.newPlayID = generator
		}
	}
}

func (deps *dependencies) logOperation(ctx context.Context, entry OperationLog) {
	if deps.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	deps.logger.LogOperation(ctx, entry)
}
