package wager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

const fixedNowUnix int64 = 1_700_000_000

func fixedNow() int64 {
	return fixedNowUnix
}

func mustPlayerID(test *testing.T, raw string) PlayerID {
	test.Helper()
	playerID, err := NewPlayerID(raw)
	if err != nil {
		test.Fatalf("player id: %v", err)
	}
	return playerID
}

func mustCredential(test *testing.T, raw string) Credential {
	test.Helper()
	credential, err := NewCredential(raw)
	if err != nil {
		test.Fatalf("credential: %v", err)
	}
	return credential
}

func mustPlayID(test *testing.T, raw string) PlayID {
	test.Helper()
	playID, err := NewPlayID(raw)
	if err != nil {
		test.Fatalf("play id: %v", err)
	}
	return playID
}

func mustReference(test *testing.T, raw string) Reference {
	test.Helper()
	reference, err := NewReference(raw)
	if err != nil {
		test.Fatalf("reference: %v", err)
	}
	return reference
}

func mustDecimal(test *testing.T, raw string) decimal.Decimal {
	test.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		test.Fatalf("decimal %q: %v", raw, err)
	}
	return value
}

func mustSession(test *testing.T, available string) *Session {
	test.Helper()
	session, err := NewSession(mustPlayerID(test, "42"), mustCredential(test, "token-42"), Balance{Available: mustDecimal(test, available)})
	if err != nil {
		test.Fatalf("session: %v", err)
	}
	return session
}

func mustNewProcessor(test *testing.T, transactions TransactionService, random Random, options ...Option) *Processor {
	test.Helper()
	options = append([]Option{WithPlayIDGenerator(func() string { return "play-1" })}, options...)
	processor, err := NewProcessor(transactions, random, fixedNow, options...)
	if err != nil {
		test.Fatalf("new processor: %v", err)
	}
	return processor
}

func assertDecimal(test *testing.T, label string, want string, got decimal.Decimal) {
	test.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		test.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

// scriptedRandom replays fixed draws in order and falls back to zero.
type scriptedRandom struct {
	mutex  sync.Mutex
	floats []float64
	ints   []int
}

func (random *scriptedRandom) Float64() float64 {
	random.mutex.Lock()
	defer random.mutex.Unlock()
	if len(random.floats) == 0 {
		return 0
	}
	value := random.floats[0]
	random.floats = random.floats[1:]
	return value
}

func (random *scriptedRandom) IntN(n int) int {
	random.mutex.Lock()
	defer random.mutex.Unlock()
	if len(random.ints) == 0 {
		return 0
	}
	value := random.ints[0]
	random.ints = random.ints[1:]
	return value % n
}

type stubTransactions struct {
	mutex        sync.Mutex
	submitted    []TransactionRecord
	credentials  []Credential
	balanceCalls int
	balance      Balance
	debitError   error
	creditError  error
	balanceError error
	onSubmit     func(record TransactionRecord)
}

func (stub *stubTransactions) SubmitTransaction(_ context.Context, credential Credential, record TransactionRecord) error {
	stub.mutex.Lock()
	onSubmit := stub.onSubmit
	var err error
	switch record.Kind {
	case TransactionKindWager:
		err = stub.debitError
	case TransactionKindCredit:
		err = stub.creditError
	}
	stub.submitted = append(stub.submitted, record)
	stub.credentials = append(stub.credentials, credential)
	stub.mutex.Unlock()
	if onSubmit != nil {
		onSubmit(record)
	}
	return err
}

func (stub *stubTransactions) FetchBalance(_ context.Context, _ Credential, _ PlayerID) (Balance, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.balanceCalls++
	if stub.balanceError != nil {
		return Balance{}, stub.balanceError
	}
	return stub.balance, nil
}

func (stub *stubTransactions) calls() int {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return len(stub.submitted) + stub.balanceCalls
}

func (stub *stubTransactions) records() []TransactionRecord {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return append([]TransactionRecord(nil), stub.submitted...)
}

type memoryJournal struct {
	mutex       sync.Mutex
	records     map[string]PlayRecord
	recordError error
	listError   error
	markError   error
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{records: make(map[string]PlayRecord)}
}

func (journal *memoryJournal) RecordPlay(_ context.Context, record PlayRecord) error {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	if journal.recordError != nil {
		return journal.recordError
	}
	if _, exists := journal.records[record.PlayID.String()]; exists {
		return ErrDuplicatePlay
	}
	journal.records[record.PlayID.String()] = record
	return nil
}

func (journal *memoryJournal) ListPending(_ context.Context, limit int) ([]PlayRecord, error) {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	if journal.listError != nil {
		return nil, journal.listError
	}
	pending := make([]PlayRecord, 0)
	for _, record := range journal.records {
		if record.Pending() {
			pending = append(pending, record)
		}
	}
	sort.Slice(pending, func(left, right int) bool {
		return pending[left].PlayID.String() < pending[right].PlayID.String()
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (journal *memoryJournal) MarkReconciled(_ context.Context, playID PlayID, reconciledUnixUTC int64) error {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	if journal.markError != nil {
		return journal.markError
	}
	record, exists := journal.records[playID.String()]
	if !exists || !record.Pending() {
		return ErrUnknownPlay
	}
	record.Status = PlayStatusReconciled
	record.ReconciledUnixUTC = reconciledUnixUTC
	journal.records[playID.String()] = record
	return nil
}

func (journal *memoryJournal) FindPlay(_ context.Context, playID PlayID) (PlayRecord, error) {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	record, exists := journal.records[playID.String()]
	if !exists {
		return PlayRecord{}, ErrUnknownPlay
	}
	return record, nil
}

func (journal *memoryJournal) RecordCreditFailure(_ context.Context, playID PlayID, failure CreditFailure) error {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	record, exists := journal.records[playID.String()]
	if !exists || !record.Pending() {
		return ErrUnknownPlay
	}
	record.CreditFailure = failure
	journal.records[playID.String()] = record
	return nil
}

func (journal *memoryJournal) ListPlays(_ context.Context, playerID PlayerID, limit int) ([]PlayRecord, error) {
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	plays := make([]PlayRecord, 0)
	for _, record := range journal.records {
		if record.PlayerID == playerID {
			plays = append(plays, record)
		}
	}
	if limit > 0 && len(plays) > limit {
		plays = plays[:limit]
	}
	return plays, nil
}

func (journal *memoryJournal) record(test *testing.T, playID string) PlayRecord {
	test.Helper()
	journal.mutex.Lock()
	defer journal.mutex.Unlock()
	record, ok := journal.records[playID]
	if !ok {
		test.Fatalf("missing journal record %s", playID)
	}
	return record
}

type recordingLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recordingLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

func (logger *recordingLogger) operations() []string {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	operations := make([]string, 0, len(logger.entries))
	for _, entry := range logger.entries {
		operations = append(operations, entry.Operation+"/"+entry.Status)
	}
	return operations
}

var (
	errRemoteDown    = errors.New("remote down")
	errCreditRefused = fmt.Errorf("%w: status 400", ErrTransactionRejected)
)

// creditCount counts credit submissions carrying reference.
func creditCount(records []TransactionRecord, reference string) int {
	count := 0
	for _, record := range records {
		if record.Kind == TransactionKindCredit && record.Reference.String() == reference {
			count++
		}
	}
	return count
}
