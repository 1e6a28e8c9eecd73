package report

import (
	"go.uber.org/atomic"
)

type RedisPublisherErrors struct {
	Publish           atomic.Uint64 `json:"publish"`
	PersistentFailure atomic.Uint64 `json:"persistent"`
	Marshal           atomic.Uint64 `json:"marshal"`
}

type RedisPublisherState struct {
	LastSuccessfulMessageTimestamp atomic.Int64  `json:"last_successful_message_timestamp"`
	MessagesPublished              atomic.Uint64 `json:"messages_published"`
	PoolHits                       atomic.Uint64 `json:"pool_hits"`
	PoolMisses                     atomic.Uint64 `json:"pool_misses"`
	PoolTimeouts                   atomic.Uint64 `json:"pool_timeouts"`
	PoolTotalConns                 atomic.Uint64 `json:"pool_total_conns"`
	PoolIdleConns                  atomic.Uint64 `json:"pool_idle_conns"`
	PoolStaleConns                 atomic.Uint64 `json:"pool_stale_conns"`
}

type RedisPublisherReport struct {
	State  RedisPublisherState  `json:"state"`
	Errors RedisPublisherErrors `json:"errors"`
}
