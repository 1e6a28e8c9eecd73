package model

import (
	"time"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
)

const TableVaultState = "vault_state"

// Summary of the persisted log, updated with every flush
type VaultState struct {
	// Id always equals one
	Id int

	// Sequence number of the last stored event
	LastSeq uint64

	// Aggregates after applying the last stored event
	TotalStaked            decimal.Decimal `gorm:"type:numeric(20,0)"`
	TotalPendingRedemption decimal.Decimal `gorm:"type:numeric(20,0)"`

	// Parameters in force after the last stored event
	Params pgtype.JSONB `gorm:"type:jsonb"`

	UpdatedAt time.Time
}

func (VaultState) TableName() string {
	return TableVaultState
}
