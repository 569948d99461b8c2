package wager

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestPlayWinningWagerSubmitsDebitThenCredit(test *testing.T) {
	test.Parallel()
	transactions := &stubTransactions{balance: Balance{Available: mustDecimal(test, "105"), Points: 12}}
	journal := newMemoryJournal()
	logger := &recordingLogger{}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.1}}, WithJournal(journal), WithOperationLogger(logger))
	session := mustSession(test, "100")

	result, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if err != nil {
		test.Fatalf("play: %v", err)
	}

	records := transactions.records()
	if len(records) != 2 {
		test.Fatalf("expected debit and credit, got %d records", len(records))
	}
	debit, credit := records[0], records[1]
	if debit.Kind != TransactionKindWager || debit.PaymentMethod != PaymentMethodBalance || debit.Reference.String() != "play-1:debit" {
		test.Fatalf("unexpected debit %+v", debit)
	}
	assertDecimal(test, "debit amount", "-5", debit.Amount)
	if debit.Description != "Wager - Quick Play" {
		test.Fatalf("unexpected debit description %q", debit.Description)
	}
	if credit.Kind != TransactionKindCredit || credit.PaymentMethod != PaymentMethodPrize || credit.Reference.String() != "play-1:credit" {
		test.Fatalf("unexpected credit %+v", credit)
	}
	assertDecimal(test, "credit amount", "10", credit.Amount)
	if credit.Description != "Prize - Quick Play - You win" {
		test.Fatalf("unexpected credit description %q", credit.Description)
	}

	if result.Status != PlayStatusSettled || !result.CreditConfirmed || !result.BalanceRefreshed {
		test.Fatalf("unexpected result %+v", result)
	}
	assertDecimal(test, "session balance", "105", session.Balance().Available)
	if session.Balance().Points != 12 {
		test.Fatalf("expected points to refresh, got %d", session.Balance().Points)
	}
	if record := journal.record(test, "play-1"); record.Status != PlayStatusSettled || record.CreatedUnixUTC != fixedNowUnix {
		test.Fatalf("unexpected journal record %+v", record)
	}
	expectedOperations := []string{"debit/ok", "credit/ok", "refresh/ok", "play/ok"}
	if got := logger.operations(); !reflect.DeepEqual(got, expectedOperations) {
		test.Fatalf("expected operations %v, got %v", expectedOperations, got)
	}
}

func TestPlayLosingWagerSkipsCredit(test *testing.T) {
	test.Parallel()
	transactions := &stubTransactions{balance: Balance{Available: mustDecimal(test, "95")}}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.9}})
	session := mustSession(test, "100")

	result, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if err != nil {
		test.Fatalf("play: %v", err)
	}
	if records := transactions.records(); len(records) != 1 || records[0].Kind != TransactionKindWager {
		test.Fatalf("expected only a debit, got %+v", records)
	}
	if result.Status != PlayStatusLost || result.CreditConfirmed || !result.CreditReference.IsZero() {
		test.Fatalf("unexpected result %+v", result)
	}
	assertDecimal(test, "net", "-5", result.Outcome.Net())
	assertDecimal(test, "balance", "95", result.Balance.Available)
}

func TestPlayDebitFailureStopsSettlement(test *testing.T) {
	test.Parallel()
	transactions := &stubTransactions{debitError: errRemoteDown}
	journal := newMemoryJournal()
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.1}}, WithJournal(journal))
	session := mustSession(test, "100")

	result, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if !errors.Is(err, ErrTransactionFailed) || !errors.Is(err, errRemoteDown) {
		test.Fatalf("expected ErrTransactionFailed wrapping remote error, got %v", err)
	}
	if result.PlayID.String() != "" {
		test.Fatalf("expected empty result, got %+v", result)
	}
	if transactions.calls() != 1 {
		test.Fatalf("expected a single debit attempt, got %d calls", transactions.calls())
	}
	if pending, _ := journal.ListPending(context.Background(), 0); len(pending) != 0 || len(journal.records) != 0 {
		test.Fatalf("expected no journal rows after failed debit")
	}
	assertDecimal(test, "balance untouched", "100", session.Balance().Available)
}

func TestPlayCreditFailureReportsUnconfirmed(test *testing.T) {
	test.Parallel()
	transactions := &stubTransactions{creditError: errRemoteDown, balance: Balance{Available: mustDecimal(test, "95")}}
	journal := newMemoryJournal()
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.1}}, WithJournal(journal))
	session := mustSession(test, "100")

	result, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if !errors.Is(err, ErrCreditUnconfirmed) {
		test.Fatalf("expected ErrCreditUnconfirmed, got %v", err)
	}
	if errors.Is(err, ErrTransactionFailed) {
		test.Fatalf("credit failure must be distinguishable from a failed debit")
	}
	if result.Status != PlayStatusCreditUnconfirmed || result.CreditConfirmed || result.CreditFailure != CreditFailureUnknown {
		test.Fatalf("unexpected result %+v", result)
	}
	assertDecimal(test, "payout", "10", result.Outcome.Payout)
	if !result.BalanceRefreshed {
		test.Fatalf("expected balance refresh after credit failure")
	}
	record := journal.record(test, "play-1")
	if !record.Pending() || record.CreditReference.String() != "play-1:credit" || record.Retryable() {
		test.Fatalf("expected pending journal row awaiting review, got %+v", record)
	}
}

func TestPlayClassifiesRefusedCredit(test *testing.T) {
	test.Parallel()
	journal := newMemoryJournal()
	transactions := &stubTransactions{creditError: errCreditRefused}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.1}}, WithJournal(journal))

	result, err := processor.Play(context.Background(), mustSession(test, "100"), GameSimple, mustDecimal(test, "5"), Parameters{})
	if !errors.Is(err, ErrCreditUnconfirmed) {
		test.Fatalf("expected ErrCreditUnconfirmed, got %v", err)
	}
	if result.CreditFailure != CreditFailureRejected {
		test.Fatalf("expected rejected credit, got %q", result.CreditFailure)
	}
	if record := journal.record(test, "play-1"); !record.Retryable() {
		test.Fatalf("expected retryable journal row, got %+v", record)
	}
}

func TestPlayRefreshFailureKeepsCachedBalance(test *testing.T) {
	test.Parallel()
	transactions := &stubTransactions{balanceError: errRemoteDown}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.9}})
	session := mustSession(test, "100")

	result, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if err != nil {
		test.Fatalf("refresh failures must not fail the play: %v", err)
	}
	if result.BalanceRefreshed {
		test.Fatalf("expected BalanceRefreshed=false")
	}
	assertDecimal(test, "cached balance", "100", result.Balance.Available)
}

func TestPlayRejectsInvalidWagersWithoutNetworkCalls(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name        string
		game        GameKind
		amount      string
		parameters  Parameters
		expectedErr error
	}{
		{name: "unknown game", game: GameKind("keno"), amount: "5", expectedErr: ErrInvalidWager},
		{name: "zero amount", game: GameSimple, amount: "0", expectedErr: ErrInvalidWager},
		{name: "below minimum", game: GameBaccarat, amount: "24.99", parameters: Parameters{Bet: BetTie}, expectedErr: ErrInvalidWager},
		{name: "missing roulette bet", game: GameRoulette, amount: "5", expectedErr: ErrInvalidWager},
		{name: "above balance", game: GamePoker, amount: "100.01", expectedErr: ErrInsufficientBalance},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			transactions := &stubTransactions{}
			processor := mustNewProcessor(test, transactions, NewSeededRandom(7))
			_, err := processor.Play(context.Background(), mustSession(test, "100"), testCase.game, mustDecimal(test, testCase.amount), testCase.parameters)
			if !errors.Is(err, testCase.expectedErr) {
				test.Fatalf("expected %v, got %v", testCase.expectedErr, err)
			}
			if transactions.calls() != 0 {
				test.Fatalf("expected no network calls, got %d", transactions.calls())
			}
		})
	}
}

func TestPlayRejectsConcurrentPlayOnSameSession(test *testing.T) {
	test.Parallel()
	session := mustSession(test, "100")
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	transactions := &stubTransactions{}
	transactions.onSubmit = func(TransactionRecord) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.9}})

	firstDone := make(chan error, 1)
	go func() {
		_, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
		firstDone <- err
	}()
	<-entered

	_, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{})
	if !errors.Is(err, ErrPlayInProgress) {
		test.Fatalf("expected ErrPlayInProgress, got %v", err)
	}
	close(release)
	if err := <-firstDone; err != nil {
		test.Fatalf("first play: %v", err)
	}
	if _, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "5"), Parameters{}); err != nil {
		test.Fatalf("play after release: %v", err)
	}
}

func TestPlayChecksBalanceUnderPlayGuard(test *testing.T) {
	test.Parallel()
	session := mustSession(test, "10")
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	transactions := &stubTransactions{balance: Balance{Available: mustDecimal(test, "2")}}
	transactions.onSubmit = func(TransactionRecord) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	processor := mustNewProcessor(test, transactions, &scriptedRandom{floats: []float64{0.9}})

	firstDone := make(chan error, 1)
	go func() {
		_, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "8"), Parameters{})
		firstDone <- err
	}()
	<-entered

	if _, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "8"), Parameters{}); !errors.Is(err, ErrPlayInProgress) {
		test.Fatalf("expected ErrPlayInProgress while the first play settles, got %v", err)
	}
	close(release)
	if err := <-firstDone; err != nil {
		test.Fatalf("first play: %v", err)
	}
	if _, err := processor.Play(context.Background(), session, GameSimple, mustDecimal(test, "8"), Parameters{}); !errors.Is(err, ErrInsufficientBalance) {
		test.Fatalf("expected the refreshed balance to reject the second play, got %v", err)
	}
	if got := len(transactions.records()); got != 1 {
		test.Fatalf("expected a single debit, got %d submissions", got)
	}
}

func TestPlayJournalFailureIsNotSurfaced(test *testing.T) {
	test.Parallel()
	journal := newMemoryJournal()
	journal.recordError = errors.New("disk full")
	logger := &recordingLogger{}
	processor := mustNewProcessor(test, &stubTransactions{}, &scriptedRandom{floats: []float64{0.9}}, WithJournal(journal), WithOperationLogger(logger))

	if _, err := processor.Play(context.Background(), mustSession(test, "100"), GameSimple, mustDecimal(test, "5"), Parameters{}); err != nil {
		test.Fatalf("journal failures must not fail the play: %v", err)
	}
	operations := logger.operations()
	if operations[len(operations)-2] != "play/error" || operations[len(operations)-1] != "play/ok" {
		test.Fatalf("expected a logged journal failure, got %v", operations)
	}
}

func TestNewProcessorValidatesDependencies(test *testing.T) {
	test.Parallel()
	if _, err := NewProcessor(nil, NewSeededRandom(1), fixedNow); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected ErrInvalidServiceConfig for nil transactions, got %v", err)
	}
	if _, err := NewProcessor(&stubTransactions{}, nil, fixedNow); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected ErrInvalidServiceConfig for nil random, got %v", err)
	}
	if _, err := NewProcessor(&stubTransactions{}, NewSeededRandom(1), nil); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected ErrInvalidServiceConfig for nil clock, got %v", err)
	}
}
