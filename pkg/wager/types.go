package wager

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PlayerID identifies the customer placing wagers.
type PlayerID struct {
	value string
}

// Credential is the bearer token issued by the casino API at login.
type Credential struct {
	value string
}

// PlayID identifies a single play.
type PlayID struct {
	value string
}

// Reference is the idempotency key attached to a settlement transaction.
type Reference struct {
	value string
}

// NewPlayerID validates and normalizes a player id.
func NewPlayerID(raw string) (PlayerID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PlayerID{}, fmt.Errorf("%w: empty value", ErrInvalidPlayerID)
	}
	return PlayerID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PlayerID) String() string {
	return id.value
}

// NewCredential validates a bearer token.
func NewCredential(raw string) (Credential, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Credential{}, fmt.Errorf("%w: empty value", ErrInvalidCredential)
	}
	return Credential{value: trimmed}, nil
}

// String returns the raw token.
func (credential Credential) String() string {
	return credential.value
}

// NewPlayID validates and normalizes a play id.
func NewPlayID(raw string) (PlayID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PlayID{}, fmt.Errorf("%w: empty value", ErrInvalidPlayID)
	}
	return PlayID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PlayID) String() string {
	return id.value
}

// NewReference validates and normalizes a settlement reference.
func NewReference(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{}, fmt.Errorf("%w: empty value", ErrInvalidReference)
	}
	return Reference{value: trimmed}, nil
}

// String returns the normalized reference.
func (reference Reference) String() string {
	return reference.value
}

// IsZero reports whether the reference was never set.
func (reference Reference) IsZero() bool {
	return reference.value == ""
}

// ParseAmount parses a strictly positive decimal amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return amount, nil
}

// Parameters carries the game-specific choice made with a wager.
type Parameters struct {
	Bet    string
	Number *int
}

// NumberParameters builds roulette parameters for a straight-up number bet.
func NumberParameters(number int) Parameters {
	return Parameters{Bet: BetNumber, Number: &number}
}

func (parameters Parameters) normalizedBet() string {
	return strings.ToLower(strings.TrimSpace(parameters.Bet))
}

// Wager is a single bet submission for one game play.
type Wager struct {
	PlayerID   PlayerID
	Game       GameKind
	Amount     decimal.Decimal
	Parameters Parameters
}

// Outcome is the computed result of one play.
type Outcome struct {
	Game        GameKind
	Amount      decimal.Decimal
	Multiplier  decimal.Decimal
	Payout      decimal.Decimal
	Description string
}

// PaysOut reports whether the outcome returns anything to the player.
func (outcome Outcome) PaysOut() bool {
	return outcome.Multiplier.IsPositive()
}

// Net returns the payout minus the stake.
func (outcome Outcome) Net() decimal.Decimal {
	return outcome.Payout.Sub(outcome.Amount)
}

// TransactionKind enumerates settlement transaction kinds.
type TransactionKind string

const (
	TransactionKindWager  TransactionKind = "juego"
	TransactionKindCredit TransactionKind = "ingreso"
)

// String returns the wire value.
func (kind TransactionKind) String() string {
	return string(kind)
}

// Payment method tags understood by the casino API.
const (
	PaymentMethodBalance = "saldo"
	PaymentMethodPrize   = "premio"
)

// TransactionRecord is the shape submitted to the remote transaction service.
type TransactionRecord struct {
	PlayerID      PlayerID
	Kind          TransactionKind
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Reference     Reference
}

// Balance is the advisory copy of the player's spendable amount and loyalty points.
type Balance struct {
	Available decimal.Decimal
	Points    int64
}

// PlayStatus describes how far a play got through settlement.
type PlayStatus string

const (
	PlayStatusLost              PlayStatus = "lost"
	PlayStatusSettled           PlayStatus = "settled"
	PlayStatusCreditUnconfirmed PlayStatus = "credit_unconfirmed"
	PlayStatusReconciled        PlayStatus = "reconciled"
)

// String returns the stored value.
func (status PlayStatus) String() string {
	return string(status)
}

// ParsePlayStatus validates a stored play status.
func ParsePlayStatus(raw string) (PlayStatus, error) {
	switch PlayStatus(strings.TrimSpace(raw)) {
	case PlayStatusLost:
		return PlayStatusLost, nil
	case PlayStatusSettled:
		return PlayStatusSettled, nil
	case PlayStatusCreditUnconfirmed:
		return PlayStatusCreditUnconfirmed, nil
	case PlayStatusReconciled:
		return PlayStatusReconciled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlayStatus, raw)
	}
}

// CreditFailure records how an unconfirmed credit failed. A rejected credit was
// refused by the service and never committed; an unknown one may have been.
type CreditFailure string

const (
	CreditFailureNone     CreditFailure = ""
	CreditFailureRejected CreditFailure = "rejected"
	CreditFailureUnknown  CreditFailure = "unknown"
)

// String returns the stored value.
func (failure CreditFailure) String() string {
	return string(failure)
}

// ParseCreditFailure validates a stored credit failure.
func ParseCreditFailure(raw string) (CreditFailure, error) {
	switch CreditFailure(strings.TrimSpace(raw)) {
	case CreditFailureNone:
		return CreditFailureNone, nil
	case CreditFailureRejected:
		return CreditFailureRejected, nil
	case CreditFailureUnknown:
		return CreditFailureUnknown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCreditFailure, raw)
	}
}

// classifyCreditFailure maps a submission error onto a CreditFailure. Only an
// error matching ErrTransactionRejected proves nothing was committed.
func classifyCreditFailure(err error) CreditFailure {
	if errors.Is(err, ErrTransactionRejected) {
		return CreditFailureRejected
	}
	return CreditFailureUnknown
}

// PlayResult is what the caller receives for display after a play.
type PlayResult struct {
	PlayID           PlayID
	Wager            Wager
	Outcome          Outcome
	Status           PlayStatus
	DebitReference   Reference
	CreditReference  Reference
	CreditConfirmed  bool
	CreditFailure    CreditFailure
	BalanceRefreshed bool
	Balance          Balance
	CreatedUnixUTC   int64
}

func deriveReference(playID PlayID, suffix string) (Reference, error) {
	return NewReference(playID.String() + referenceDelimiter + suffix)
}

func roundPayout(amount decimal.Decimal, multiplier decimal.Decimal) decimal.Decimal {
	return amount.Mul(multiplier).Round(payoutDecimalPlaces)
}
