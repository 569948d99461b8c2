package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	constraintPlayPrimary        = "plays_pkey"
	constraintPlayDebitReference = "plays_debit_reference_key"
	defaultParametersJSON        = "{}"
	pgUniqueViolationCode        = "23505"
	sqliteConstraintCode         = 19
	errorOperationStore          = "store"
	errorSubjectPlay             = "play"
	errorCodeDuplicate           = "duplicate"
	errorCodeInsert              = "insert"
	errorCodeInvalid             = "invalid"
	errorCodeList                = "list"
	errorCodeFind                = "find"
	errorCodeUpdateStatus        = "update_status"
)

var _ wager.Journal = (*Store)(nil)

// Store implements wager.Journal using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the plays table for databases without SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Play{})
}

func (store *Store) RecordPlay(ctx context.Context, record wager.PlayRecord) error {
	parameters, err := json.Marshal(parametersDocument{Bet: record.Parameters.Bet, Number: record.Parameters.Number})
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeInvalid, err)
	}
	model := Play{
		PlayID:          record.PlayID.String(),
		PlayerID:        record.PlayerID.String(),
		Game:            record.Game.String(),
		Amount:          record.Amount,
		Parameters:      datatypesJSON(parameters),
		Multiplier:      record.Multiplier,
		Payout:          record.Payout,
		Description:     record.Description,
		Status:          record.Status.String(),
		DebitReference:  record.DebitReference.String(),
		CreditReference: record.CreditReference.String(),
		CreditFailure:   record.CreditFailure.String(),
		CreatedAt:       time.Unix(record.CreatedUnixUTC, 0).UTC(),
		ReconciledAt:    timeOrNil(record.ReconciledUnixUTC),
	}
	if record.CreatedUnixUTC == 0 {
		model.CreatedAt = time.Now().UTC()
	}
	err = store.db.WithContext(ctx).Create(&model).Error
	if isPlayConflict(err) {
		return wrapStoreError(errorSubjectPlay, errorCodeDuplicate, wager.ErrDuplicatePlay)
	}
	if err != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) FindPlay(ctx context.Context, playID wager.PlayID) (wager.PlayRecord, error) {
	var row Play
	err := store.db.WithContext(ctx).Where("play_id = ?", playID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wager.PlayRecord{}, wrapStoreError(errorSubjectPlay, errorCodeFind, wager.ErrUnknownPlay)
	}
	if err != nil {
		return wager.PlayRecord{}, wrapStoreError(errorSubjectPlay, errorCodeFind, err)
	}
	record, err := mapPlay(row)
	if err != nil {
		return wager.PlayRecord{}, wrapStoreError(errorSubjectPlay, errorCodeInvalid, err)
	}
	return record, nil
}

func (store *Store) ListPending(ctx context.Context, limit int) ([]wager.PlayRecord, error) {
	var rows []Play
	err := store.db.WithContext(ctx).
		Where("status = ?", wager.PlayStatusCreditUnconfirmed.String()).
		Order("created_at ASC").
		Order("play_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
	}
	return mapPlays(rows)
}

func (store *Store) MarkReconciled(ctx context.Context, playID wager.PlayID, reconciledUnixUTC int64) error {
	result := store.db.WithContext(ctx).
		Model(&Play{}).
		Where("play_id = ? AND status = ?", playID.String(), wager.PlayStatusCreditUnconfirmed.String()).
		Updates(map[string]any{
			"status":        wager.PlayStatusReconciled.String(),
			"reconciled_at": time.Unix(reconciledUnixUTC, 0).UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, wager.ErrUnknownPlay)
	}
	return nil
}

// RecordCreditFailure updates how a pending credit failed.
func (store *Store) RecordCreditFailure(ctx context.Context, playID wager.PlayID, failure wager.CreditFailure) error {
	result := store.db.WithContext(ctx).
		Model(&Play{}).
		Where("play_id = ? AND status = ?", playID.String(), wager.PlayStatusCreditUnconfirmed.String()).
		Update("credit_failure", failure.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPlay, errorCodeUpdateStatus, wager.ErrUnknownPlay)
	}
	return nil
}

func (store *Store) ListPlays(ctx context.Context, playerID wager.PlayerID, limit int) ([]wager.PlayRecord, error) {
	var rows []Play
	err := store.db.WithContext(ctx).
		Where("player_id = ?", playerID.String()).
		Order("created_at DESC").
		Order("play_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPlay, errorCodeList, err)
	}
	return mapPlays(rows)
}

func wrapStoreError(subject string, code string, err error) error {
	return wager.WrapError(errorOperationStore, subject, code, err)
}

func mapPlays(rows []Play) ([]wager.PlayRecord, error) {
	records := make([]wager.PlayRecord, 0, len(rows))
	for _, row := range rows {
		record, err := mapPlay(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectPlay, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func mapPlay(row Play) (wager.PlayRecord, error) {
	playID, err := wager.NewPlayID(row.PlayID)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	playerID, err := wager.NewPlayerID(row.PlayerID)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	kind, err := wager.ParseGameKind(row.Game)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	status, err := wager.ParsePlayStatus(row.Status)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	creditFailure, err := wager.ParseCreditFailure(row.CreditFailure)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	debitReference, err := wager.NewReference(row.DebitReference)
	if err != nil {
		return wager.PlayRecord{}, err
	}
	var creditReference wager.Reference
	if row.CreditReference != "" {
		creditReference, err = wager.NewReference(row.CreditReference)
		if err != nil {
			return wager.PlayRecord{}, err
		}
	}
	var parameters parametersDocument
	if len(row.Parameters) > 0 {
		if err := json.Unmarshal(row.Parameters, &parameters); err != nil {
			return wager.PlayRecord{}, err
		}
	}
	return wager.PlayRecord{
		PlayID:            playID,
		PlayerID:          playerID,
		Game:              kind,
		Amount:            normalizeDecimal(row.Amount),
		Parameters:        wager.Parameters{Bet: parameters.Bet, Number: parameters.Number},
		Multiplier:        normalizeDecimal(row.Multiplier),
		Payout:            normalizeDecimal(row.Payout),
		Description:       row.Description,
		Status:            status,
		DebitReference:    debitReference,
		CreditReference:   creditReference,
		CreditFailure:     creditFailure,
		CreatedUnixUTC:    row.CreatedAt.Unix(),
		ReconciledUnixUTC: timeOrZero(row.ReconciledAt),
	}, nil
}

// normalizeDecimal drops float noise from SQLite REAL columns.
func normalizeDecimal(value decimal.Decimal) decimal.Decimal {
	return value.Round(4)
}

func timeOrZero(value *time.Time) int64 {
	if value == nil {
		return 0
	}
	return value.Unix()
}

func timeOrNil(unixUTC int64) *time.Time {
	if unixUTC == 0 {
		return nil
	}
	value := time.Unix(unixUTC, 0).UTC()
	return &value
}

func datatypesJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte(defaultParametersJSON))
	}
	return datatypes.JSON(raw)
}

func isPlayConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode &&
			(pgErr.ConstraintName == constraintPlayPrimary || pgErr.ConstraintName == constraintPlayDebitReference)
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
