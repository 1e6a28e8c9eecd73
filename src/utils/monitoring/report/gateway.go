package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	BadRequest   atomic.Uint64 `json:"bad_request"`
	Unauthorized atomic.Uint64 `json:"unauthorized"`
	RateLimited  atomic.Uint64 `json:"rate_limited"`
	Rejected     atomic.Uint64 `json:"rejected"`
	Internal     atomic.Uint64 `json:"internal"`
}

type GatewayState struct {
	Requests          atomic.Uint64 `json:"requests"`
	IdempotentReplays atomic.Uint64 `json:"idempotent_replays"`
	StreamClients     atomic.Int64  `json:"stream_clients"`
	StreamedEvents    atomic.Uint64 `json:"streamed_events"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
