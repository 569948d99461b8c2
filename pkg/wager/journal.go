package wager

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Journal persists plays whose debit was accepted so unconfirmed credits can be
// reviewed and settled later.
type Journal interface {
	RecordPlay(ctx context.Context, record PlayRecord) error
	FindPlay(ctx context.Context, playID PlayID) (PlayRecord, error)
	ListPending(ctx context.Context, limit int) ([]PlayRecord, error)
	RecordCreditFailure(ctx context.Context, playID PlayID, failure CreditFailure) error
	MarkReconciled(ctx context.Context, playID PlayID, reconciledUnixUTC int64) error
	ListPlays(ctx context.Context, playerID PlayerID, limit int) ([]PlayRecord, error)
}

// PlayRecord is the journal row for one play.
type PlayRecord struct {
	PlayID            PlayID
	PlayerID          PlayerID
	Game              GameKind
	Amount            decimal.Decimal
	Parameters        Parameters
	Multiplier        decimal.Decimal
	Payout            decimal.Decimal
	Description       string
	Status            PlayStatus
	DebitReference    Reference
	CreditReference   Reference
	CreditFailure     CreditFailure
	CreatedUnixUTC    int64
	ReconciledUnixUTC int64
}

// NewPlayRecord captures a finished play for the journal.
func NewPlayRecord(result PlayResult) (PlayRecord, error) {
	if result.PlayID.String() == "" {
		return PlayRecord{}, ErrInvalidPlayID
	}
	if result.Wager.PlayerID.String() == "" {
		return PlayRecord{}, ErrInvalidPlayerID
	}
	if result.DebitReference.IsZero() {
		return PlayRecord{}, fmt.Errorf("%w: missing debit reference", ErrInvalidReference)
	}
	if _, err := ParsePlayStatus(result.Status.String()); err != nil {
		return PlayRecord{}, err
	}
	return PlayRecord{
		PlayID:          result.PlayID,
		PlayerID:        result.Wager.PlayerID,
		Game:            result.Wager.Game,
		Amount:          result.Wager.Amount,
		Parameters:      result.Wager.Parameters,
		Multiplier:      result.Outcome.Multiplier,
		Payout:          result.Outcome.Payout,
		Description:     result.Outcome.Description,
		Status:          result.Status,
		DebitReference:  result.DebitReference,
		CreditReference: result.CreditReference,
		CreditFailure:   result.CreditFailure,
		CreatedUnixUTC:  result.CreatedUnixUTC,
	}, nil
}

// Pending reports whether the record still owes the player a credit.
func (record PlayRecord) Pending() bool {
	return record.Status == PlayStatusCreditUnconfirmed
}

// Retryable reports whether the pending credit was definitively rejected, so
// submitting it again cannot pay the prize twice.
func (record PlayRecord) Retryable() bool {
	return record.Pending() && record.CreditFailure == CreditFailureRejected
}

// CreditRecord rebuilds the credit transaction exactly as it was first submitted.
func (record PlayRecord) CreditRecord() (TransactionRecord, error) {
	if record.CreditReference.IsZero() {
		return TransactionRecord{}, fmt.Errorf("%w: play %s has no credit", ErrInvalidReference, record.PlayID)
	}
	if !record.Payout.IsPositive() {
		return TransactionRecord{}, fmt.Errorf("%w: play %s has no payout", ErrInvalidAmount, record.PlayID)
	}
	return TransactionRecord{
		PlayerID:      record.PlayerID,
		Kind:          TransactionKindCredit,
		Amount:        record.Payout,
		Description:   creditDescription(record.Description),
		PaymentMethod: PaymentMethodPrize,
		Reference:     record.CreditReference,
	}, nil
}

func debitDescription(game Game) string {
	return descriptionPrefixWager + descriptionSeparator + game.Name
}

func creditDescription(outcomeDescription string) string {
	return descriptionPrefixPrize + descriptionSeparator + outcomeDescription
}
