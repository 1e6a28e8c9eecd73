package report

import (
	"go.uber.org/atomic"
)

type StoreErrors struct {
	Conversion atomic.Uint64 `json:"conversion"`
	Insert     atomic.Uint64 `json:"insert"`
}

type StoreState struct {
	EventsSaved       atomic.Uint64 `json:"events_saved"`
	LastSavedSeq      atomic.Uint64 `json:"last_saved_seq"`
	LastFlushDuration atomic.Int64  `json:"last_flush_duration_ms"`
	EventsReplayed    atomic.Uint64 `json:"events_replayed"`
}

type StoreReport struct {
	State  StoreState  `json:"state"`
	Errors StoreErrors `json:"errors"`
}
