package wager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService is the remote authority that owns the player's balance.
type TransactionService interface {
	SubmitTransaction(ctx context.Context, credential Credential, record TransactionRecord) error
	FetchBalance(ctx context.Context, credential Credential, playerID PlayerID) (Balance, error)
}

// Processor validates wagers, resolves outcomes and settles them against the
// transaction service as a debit followed, when the game pays, by a credit.
type Processor struct {
	transactions TransactionService
	random       Random
	nowFn        func() int64
	deps         dependencies
}

// NewProcessor wires a Processor.
func NewProcessor(transactions TransactionService, random Random, now func() int64, options ...Option) (*Processor, error) {
	if transactions == nil {
		return nil, fmt.Errorf("%w: transaction service is nil", ErrInvalidServiceConfig)
	}
	if random == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	processor := &Processor{
		transactions: transactions,
		random:       random,
		nowFn:        now,
		deps:         dependencies{newPlayID: uuid.NewString},
	}
	for _, option := range options {
		if option != nil {
			option(&processor.deps)
		}
	}
	return processor, nil
}

// Validate checks a wager against the game rules and the session's cached balance
// without touching the network.
func (processor *Processor) Validate(session *Session, kind GameKind, amount decimal.Decimal, parameters Parameters) (Game, error) {
	if session == nil {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, ErrInvalidSession)
	}
	game, err := LookupGame(kind)
	if err != nil {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, fmt.Errorf("%w: %w", ErrInvalidWager, err))
	}
	if !amount.IsPositive() {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidWager))
	}
	if amount.LessThan(game.MinimumBet) {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, fmt.Errorf("%w: minimum bet for %s is %s", ErrInvalidWager, game.Name, game.MinimumBet.StringFixed(payoutDecimalPlaces)))
	}
	if err := game.resolver.Validate(parameters); err != nil {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, fmt.Errorf("%w: %w", ErrInvalidWager, err))
	}
	if amount.GreaterThan(session.Balance().Available) {
		return Game{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInsufficient, ErrInsufficientBalance)
	}
	return game, nil
}

// Play runs one wager end to end. When the credit leg fails the populated result
// is returned together with an error wrapping ErrCreditUnconfirmed. The play
// guard is held before the balance check so the check sees the balance left by
// any earlier play on the session.
func (processor *Processor) Play(ctx context.Context, session *Session, kind GameKind, amount decimal.Decimal, parameters Parameters) (PlayResult, error) {
	if session == nil {
		return PlayResult{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, ErrInvalidSession)
	}
	if !session.beginPlay() {
		return PlayResult{}, WrapError(errorOperationPlay, errorSubjectWager, errorCodeInvalid, ErrPlayInProgress)
	}
	defer session.endPlay()

	game, err := processor.Validate(session, kind, amount, parameters)
	if err != nil {
		return PlayResult{}, err
	}

	playID, err := NewPlayID(processor.deps.newPlayID())
	if err != nil {
		return PlayResult{}, err
	}
	debitReference, err := deriveReference(playID, referenceSuffixDebit)
	if err != nil {
		return PlayResult{}, err
	}
	creditReference, err := deriveReference(playID, referenceSuffixCredit)
	if err != nil {
		return PlayResult{}, err
	}
	wager := Wager{PlayerID: session.PlayerID(), Game: game.Kind, Amount: amount, Parameters: parameters}

	debitError := processor.transactions.SubmitTransaction(ctx, session.Credential(), TransactionRecord{
		PlayerID:      wager.PlayerID,
		Kind:          TransactionKindWager,
		Amount:        amount.Neg(),
		Description:   debitDescription(game),
		PaymentMethod: PaymentMethodBalance,
		Reference:     debitReference,
	})
	processor.deps.logOperation(ctx, OperationLog{
		Operation: operationDebit,
		PlayerID:  wager.PlayerID,
		PlayID:    playID,
		Game:      game.Kind,
		Amount:    amount,
		Reference: debitReference,
		Error:     debitError,
	})
	if debitError != nil {
		playError := WrapError(errorOperationPlay, errorSubjectDebit, errorCodeSubmit, fmt.Errorf("%w: %w", ErrTransactionFailed, debitError))
		processor.logPlay(ctx, wager, playID, playError)
		return PlayResult{}, playError
	}

	outcome := game.outcome(amount, game.resolver.Resolve(processor.random, parameters))
	result := PlayResult{
		PlayID:         playID,
		Wager:          wager,
		Outcome:        outcome,
		Status:         PlayStatusLost,
		DebitReference: debitReference,
		CreatedUnixUTC: processor.nowFn(),
	}

	var playError error
	if outcome.PaysOut() {
		result.CreditReference = creditReference
		creditError := processor.transactions.SubmitTransaction(ctx, session.Credential(), TransactionRecord{
			PlayerID:      wager.PlayerID,
			Kind:          TransactionKindCredit,
			Amount:        outcome.Payout,
			Description:   creditDescription(outcome.Description),
			PaymentMethod: PaymentMethodPrize,
			Reference:     creditReference,
		})
		processor.deps.logOperation(ctx, OperationLog{
			Operation: operationCredit,
			PlayerID:  wager.PlayerID,
			PlayID:    playID,
			Game:      game.Kind,
			Amount:    outcome.Payout,
			Reference: creditReference,
			Error:     creditError,
		})
		if creditError != nil {
			result.Status = PlayStatusCreditUnconfirmed
			result.CreditFailure = classifyCreditFailure(creditError)
			playError = WrapError(errorOperationPlay, errorSubjectCredit, errorCodeSubmit, fmt.Errorf("%w: %w", ErrCreditUnconfirmed, creditError))
		} else {
			result.Status = PlayStatusSettled
			result.CreditConfirmed = true
		}
	}

	balance, refreshError := processor.transactions.FetchBalance(ctx, session.Credential(), wager.PlayerID)
	processor.deps.logOperation(ctx, OperationLog{
		Operation: operationRefresh,
		PlayerID:  wager.PlayerID,
		PlayID:    playID,
		Game:      game.Kind,
		Error:     refreshError,
	})
	if refreshError == nil {
		session.UpdateBalance(balance)
		result.BalanceRefreshed = true
	}
	result.Balance = session.Balance()

	processor.journal(ctx, result)
	processor.logPlay(ctx, wager, playID, playError)
	return result, playError
}

func (processor *Processor) journal(ctx context.Context, result PlayResult) {
	if processor.deps.journal == nil {
		return
	}
	record, err := NewPlayRecord(result)
	if err == nil {
		err = processor.deps.journal.RecordPlay(ctx, record)
	}
	if err == nil || errors.Is(err, ErrDuplicatePlay) {
		return
	}
	processor.deps.logOperation(ctx, OperationLog{
		Operation: operationPlay,
		PlayerID:  result.Wager.PlayerID,
		PlayID:    result.PlayID,
		Game:      result.Wager.Game,
		Amount:    result.Wager.Amount,
		Error:     WrapError(errorOperationPlay, errorSubjectJournal, errorCodeSubmit, err),
	})
}

func (processor *Processor) logPlay(ctx context.Context, wager Wager, playID PlayID, playError error) {
	processor.deps.logOperation(ctx, OperationLog{
		Operation: operationPlay,
		PlayerID:  wager.PlayerID,
		PlayID:    playID,
		Game:      wager.Game,
		Amount:    wager.Amount,
		Error:     playError,
	})
}
