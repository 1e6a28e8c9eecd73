package store

import (
	"fmt"
	"strings"

	"github.com/warp-contracts/vault/src/utils/model"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/jackc/pgtype"
	"github.com/lib/pq"
)

// Accounts are stored lowercase, lookups don't depend on checksum casing
func accountKey(account vault.Account) string {
	return strings.ToLower(account.Hex())
}

func toModel(event *vault.Event) (row *model.VaultEvent, err error) {
	payload, err := event.MarshalBinary()
	if err != nil {
		return
	}

	row = &model.VaultEvent{
		Seq:       event.Seq,
		Id:        event.Id,
		Kind:      string(event.Kind),
		Timestamp: event.Timestamp,
		Accounts:  pq.StringArray{},
	}

	for _, account := range event.Accounts() {
		row.Accounts = append(row.Accounts, accountKey(account))
	}

	err = row.Payload.Set(payload)
	if err != nil {
		return nil, err
	}

	return
}

func fromModel(row *model.VaultEvent) (event *vault.Event, err error) {
	if row.Payload.Status != pgtype.Present {
		return nil, fmt.Errorf("event %d has no payload", row.Seq)
	}

	event = new(vault.Event)
	err = event.UnmarshalBinary(row.Payload.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event %d: %w", row.Seq, err)
	}

	if event.Seq != row.Seq || string(event.Kind) != row.Kind {
		return nil, fmt.Errorf("event %d doesn't match its row (seq %d, kind %s)", row.Seq, event.Seq, event.Kind)
	}

	return
}
