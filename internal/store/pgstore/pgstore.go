package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	constraintPlayPrimary        = "plays_pkey"
	constraintPlayDebitReference = "plays_debit_reference_key"
	pgUniqueViolationCode        = "23505"
	errorOperationStore          = "store"
	errorSubjectPlay             = "play"
	errorCodeDuplicate           = "duplicate"
	errorCodeFind                = "find"
	errorCodeInsert              = "insert"
	errorCodeInvalid             = "invalid"
	errorCodeList                = "list"
	errorCodeUpdateStatus        = "update_status"

	sqlInsertPlay = `
		insert into plays(
			play_id, player_id, game, amount, parameters, multiplier, payout, description,
			status, debit_reference, credit_reference, credit_failure, created_at, reconciled_at
		)
		values(
			$1, $2, $3, $4::numeric, coalesce(nullif($5,''),'{}')::jsonb, $6::numeric, $7::numeric, $8,
			$9, $10, $11, $12, to_timestamp($13), to_timestamp(nullif($14,0))
		)
	`

	sqlSelectPlayColumns = `
		select
			play_id,
			player_id,
			game,
			amount::text,
			parameters::text,
			multiplier::text,
			payout::text,
			description,
			status,
			debit_reference,
			credit_reference,
			credit_failure,
			extract(epoch from created_at)::bigint,
			coalesce(extract(epoch from reconciled_at)::bigint,0)
		from plays
	`

	sqlFindPlay = sqlSelectPlayColumns + `
		where play_id = $1
	`

	sqlListPending = sqlSelectPlayColumns + `
		where status = $1
		order by created_at asc, play_id asc
		limit $2
	`

	sqlListPlays = sqlSelectPlayColumns + `
		where player_id = $1
		order by created_at desc, play_id desc
		limit $2
	`

	sqlMarkReconciled = `
		update plays
		set status = $3, reconciled_at = to_timestamp($4)
		where play_id = $1 and status = $2
	`

	sqlRecordCreditFailure = `
		update plays
		set credit_failure = $3
		where play_id = $1 and status = $2
	`
)

var _ wager.Journal = (*Store)(nil)

// Store implements wager.Journal using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects a pool to dsn and verifies it.
func Open(ctx context.Context, dsn string) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return New(pool), pool.Close, nil
}

func (store *Store) RecordPlay(ctx context.Context, record wager.PlayRecord) error {
	parameters, err := marshalParameters(record.Parameters)
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeInvalid, err)
	}
	_, err = store.pool.Exec(ctx, sqlInsertPlay,
		record.PlayID.String(),
		record.PlayerID.String(),
		record.Game.String(),
		record.Amount.String(),
		parameters,
		record.Multiplier.String(),
		record.Payout.String(),
		record.Description,
		record.Status.String(),
		record.DebitReference.String(),
		record.CreditReference.String(),
		record.CreditFailure.String(),
		record.CreatedUnixUTC,
		record.ReconciledUnixUTC,
	)
	if isPlayConflict(err) {
		return wrapStoreError(errorSubjectPlay, errorCodeDuplicate, wager.ErrDuplicatePlay)
	}
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) FindPlay(ctx context.Context, playID wager.PlayID) (wager.PlayRecord, error) {
	rows, err := store.pool.Query(ctx, sqlFindPlay, playID.String())
	if err != nil {
		return wager.PlayRecord{}, wrapStoreError(errorSubjectPlay, errorCodeFind, err)
	}
	records, err := collectPlays(rows)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	if len(records) == 0 {
		return wager.PlayRecord{}, wrapStoreError(errorSubjectPlay, errorCodeFind, wager.ErrUnknownPlay)
	}
	return records[0], nil
}

func (store *Store) ListPending(ctx context.Context, limit int) ([]wager.PlayRecord, error) {
	rows, err := store.pool.Query(ctx, sqlListPending, wager.PlayStatusCreditUnconfirmed.String(), limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
	}
	return collectPlays(rows)
}

func (store *Store) MarkReconciled(ctx context.Context, playID wager.PlayID, reconciledUnixUTC int64) error {
	tag, err := store.pool.Exec(ctx, sqlMarkReconciled,
		playID.String(),
		wager.PlayStatusCreditUnconfirmed.String(),
		wager.PlayStatusReconciled.String(),
		reconciledUnixUTC,
	)
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, wager.ErrUnknownPlay)
	}
	return nil
}

// RecordCreditFailure updates how a pending credit failed.
func (store *Store) RecordCreditFailure(ctx context.Context, playID wager.PlayID, failure wager.CreditFailure) error {
	tag, err := store.pool.Exec(ctx, sqlRecordCreditFailure,
		playID.String(),
		wager.PlayStatusCreditUnconfirmed.String(),
		failure.String(),
	)
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, wager.ErrUnknownPlay)
	}
	return nil
}

func (store *Store) ListPlays(ctx context.Context, playerID wager.PlayerID, limit int) ([]wager.PlayRecord, error) {
	rows, err := store.pool.Query(ctx, sqlListPlays, playerID.String(), limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
	}
	return collectPlays(rows)
}

func wrapStoreError(subject string, code string, err error) error {
	return wager.WrapError(errorOperationStore, subject, code, err)
}

type playRow struct {
	playID            string
	playerID          string
	game              string
	amount            string
	parameters        string
	multiplier        string
	payout            string
	description       string
	status            string
	debitReference    string
	creditReference   string
	creditFailure     string
	createdUnixUTC    int64
	reconciledUnixUTC int64
}

func collectPlays(rows pgx.Rows) ([]wager.PlayRecord, error) {
	defer rows.Close()
	var records []wager.PlayRecord
	for rows.Next() {
		var row playRow
		if err := rows.Scan(
			&row.playID,
			&row.playerID,
			&row.game,
			&row.amount,
			&row.parameters,
			&row.multiplier,
			&row.payout,
			&row.description,
			&row.status,
			&row.debitReference,
			&row.creditReference,
			&row.creditFailure,
			&row.createdUnixUTC,
			&row.reconciledUnixUTC,
		); err != nil {
			return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
		}
		record, err := mapPlayRow(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPlay, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
	}
	return records, nil
}

type parametersDocument struct {
	Bet    string `json:"bet,omitempty"`
	Number *int   `json:"number,omitempty"`
}

func marshalParameters(parameters wager.Parameters) (string, error) {
	raw, err := json.Marshal(parametersDocument{Bet: parameters.Bet, Number: parameters.Number})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func mapPlayRow(row playRow) (wager.PlayRecord, error) {
	playID, err := wager.NewPlayID(row.playID)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	playerID, err := wager.NewPlayerID(row.playerID)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	kind, err := wager.ParseGameKind(row.game)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	status, err := wager.ParsePlayStatus(row.status)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	amount, err := decimal.NewFromString(row.amount)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	multiplier, err := decimal.NewFromString(row.multiplier)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	payout, err := decimal.NewFromString(row.payout)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	debitReference, err := wager.NewReference(row.debitReference)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	var creditReference wager.Reference
	if row.creditReference != "" {
		creditReference, err = wager.NewReference(row.creditReference)
		if err != nil {
			return wager.PlayRecord{}, err
		}
	}
	creditFailure, err := wager.ParseCreditFailure(row.creditFailure)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	var parameters parametersDocument
	if row.parameters != "" {
		if err := json.Unmarshal([]byte(row.parameters), &parameters); err != nil {
			return wager.PlayRecord{}, err
		}
	}
	return wager.PlayRecord{
		PlayID:            playID,
		PlayerID:          playerID,
		Game:              kind,
		Amount:            amount,
		Parameters:        wager.Parameters{Bet: parameters.Bet, Number: parameters.Number},
		Multiplier:        multiplier,
		Payout:            payout,
		Description:       row.description,
		Status:            status,
		DebitReference:    debitReference,
		CreditReference:   creditReference,
		CreditFailure:     creditFailure,
		CreatedUnixUTC:    row.createdUnixUTC,
		ReconciledUnixUTC: row.reconciledUnixUTC,
	}, nil
}

func isPlayConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode &&
			(pgErr.ConstraintName == constraintPlayPrimary || pgErr.ConstraintName == constraintPlayDebitReference)
	}
	return false
}
