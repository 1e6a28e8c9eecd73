package model

import (
	"time"

	"github.com/jackc/pgtype"
	"github.com/lib/pq"
)

const TableVaultEvent = "vault_events"

// Append-only log of committed vault events
type VaultEvent struct {
	// Consecutive sequence number, starts at 1
	Seq uint64 `gorm:"primaryKey;autoIncrement:false"`

	// Unique, sortable
	Id string

	Kind string

	// Unix seconds when the event was committed
	Timestamp int64 `gorm:"column:event_timestamp"`

	// Addresses taking part, for lookups by account
	Accounts pq.StringArray `gorm:"type:text[]"`

	// Whole event as JSON
	Payload pgtype.JSONB `gorm:"type:jsonb"`

	CreatedAt time.Time
}

func (VaultEvent) TableName() string {
	return TableVaultEvent
}
