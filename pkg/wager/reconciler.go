package wager

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Reconciler settles journaled credits that were never confirmed. An automatic
// pass only resubmits credits the service definitively rejected. A credit whose
// fate is unknown may already be committed, so it waits for an operator to
// check the service and Resolve it.
type Reconciler struct {
	journal      Journal
	transactions TransactionService
	credential   Credential
	nowFn        func() int64
	deps         dependencies
}

// ReconcileReport summarizes one reconciliation pass. Review lists pending plays
// that were left untouched because only an operator can settle them.
type ReconcileReport struct {
	Attempted  []PlayID
	Reconciled []PlayID
	Failed     []PlayID
	Review     []PlayID
}

// Resolution is an operator's verdict on a pending credit after checking the
// service's transaction history.
type Resolution string

const (
	// ResolutionResubmit means the credit is absent from the service and is sent again.
	ResolutionResubmit Resolution = "resubmit"
	// ResolutionPaid means the credit was committed and only the journal is updated.
	ResolutionPaid Resolution = "paid"
)

// ParseResolution validates an operator verdict.
func ParseResolution(raw string) (Resolution, error) {
	switch Resolution(strings.ToLower(strings.TrimSpace(raw))) {
	case ResolutionResubmit:
		return ResolutionResubmit, nil
	case ResolutionPaid:
		return ResolutionPaid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResolution, raw)
	}
}

// NewReconciler wires a Reconciler that submits with a service credential.
func NewReconciler(journal Journal, transactions TransactionService, credential Credential, now func() int64, options ...Option) (*Reconciler, error) {
	if journal == nil {
		return nil, fmt.Errorf("%w: journal dependency is nil", ErrInvalidServiceConfig)
	}
	if transactions == nil {
		return nil, fmt.Errorf("%w: transaction service is nil", ErrInvalidServiceConfig)
	}
	if credential.String() == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceConfig, ErrInvalidCredential)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	reconciler := &Reconciler{journal: journal, transactions: transactions, credential: credential, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(&reconciler.deps)
		}
	}
	return reconciler, nil
}

// Reconcile processes up to limit pending plays, resubmitting only rejected
// credits. Individual failures are reported in the result; only a journal
// listing failure is returned as an error.
func (reconciler *Reconciler) Reconcile(ctx context.Context, limit int) (ReconcileReport, error) {
	pending, err := reconciler.journal.ListPending(ctx, limit)
	if err != nil {
		return ReconcileReport{}, WrapError(errorOperationReconcile, errorSubjectJournal, errorCodeList, err)
	}
	report := ReconcileReport{}
	for _, record := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !record.Retryable() {
			report.Review = append(report.Review, record.PlayID)
			continue
		}
		report.Attempted = append(report.Attempted, record.PlayID)
		if err := reconciler.settle(ctx, record); err != nil {
			report.Failed = append(report.Failed, record.PlayID)
			continue
		}
		report.Reconciled = append(report.Reconciled, record.PlayID)
	}
	return report, nil
}

// Resolve applies an operator's verdict to one pending play.
func (reconciler *Reconciler) Resolve(ctx context.Context, playID PlayID, resolution Resolution) error {
	if _, err := ParseResolution(string(resolution)); err != nil {
		return WrapError(errorOperationReconcile, errorSubjectCredit, errorCodeInvalid, err)
	}
	record, err := reconciler.journal.FindPlay(ctx, playID)
	if err != nil {
		return WrapError(errorOperationReconcile, errorSubjectJournal, errorCodeFind, err)
	}
	if !record.Pending() {
		return WrapError(errorOperationReconcile, errorSubjectJournal, errorCodeInvalid, fmt.Errorf("%w: play %s has no pending credit", ErrUnknownPlay, playID))
	}
	if resolution == ResolutionResubmit {
		return reconciler.settle(ctx, record)
	}
	err = reconciler.markReconciled(ctx, record)
	reconciler.logReconcile(ctx, record, err)
	return err
}

func (reconciler *Reconciler) settle(ctx context.Context, record PlayRecord) error {
	credit, err := record.CreditRecord()
	if err == nil {
		submitError := reconciler.transactions.SubmitTransaction(ctx, reconciler.credential, credit)
		if submitError != nil {
			err = WrapError(errorOperationReconcile, errorSubjectCredit, errorCodeSubmit, fmt.Errorf("%w: %w", ErrTransactionFailed, submitError))
			if recordError := reconciler.journal.RecordCreditFailure(ctx, record.PlayID, classifyCreditFailure(submitError)); recordError != nil {
				err = errors.Join(err, WrapError(errorOperationReconcile, errorSubjectJournal, errorCodeSubmit, recordError))
			}
		}
	}
	if err == nil {
		err = reconciler.markReconciled(ctx, record)
	}
	reconciler.logReconcile(ctx, record, err)
	return err
}

func (reconciler *Reconciler) markReconciled(ctx context.Context, record PlayRecord) error {
	return WrapError(errorOperationReconcile, errorSubjectJournal, errorCodeSubmit, reconciler.journal.MarkReconciled(ctx, record.PlayID, reconciler.nowFn()))
}

func (reconciler *Reconciler) logReconcile(ctx context.Context, record PlayRecord, err error) {
	reconciler.deps.logOperation(ctx, OperationLog{
		Operation: operationReconcile,
		PlayerID:  record.PlayerID,
		PlayID:    record.PlayID,
		Game:      record.Game,
		Amount:    record.Payout,
		Reference: record.CreditReference,
		Error:     err,
	})
}
