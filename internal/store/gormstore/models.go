package gormstore

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Play mirrors the plays table.
type Play struct {
	PlayID          string          `gorm:"primaryKey"`
	PlayerID        string          `gorm:"not null;index:idx_plays_player_created,priority:1"`
	Game            string          `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Parameters      datatypes.JSON  `gorm:"type:jsonb;not null"`
	Multiplier      decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	Payout          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Description     string          `gorm:"not null"`
	Status          string          `gorm:"not null;index:idx_plays_status_created,priority:1"`
	DebitReference  string          `gorm:"not null;uniqueIndex:plays_debit_reference_key"`
	CreditReference string          `gorm:"not null"`
	CreditFailure   string          `gorm:"not null;default:''"`
	CreatedAt       time.Time       `gorm:"not null;index:idx_plays_player_created,priority:2;index:idx_plays_status_created,priority:2"`
	ReconciledAt    *time.Time      `gorm:""`
}

func (Play) TableName() string { return "plays" }

// parametersDocument is the JSON shape of the parameters column.
type parametersDocument struct {
	Bet    string `json:"bet,omitempty"`
	Number *int   `json:"number,omitempty"`
}
