package monitor_vault

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Vault
	Transactions           *prometheus.Desc
	FailedTransactions     *prometheus.Desc
	Operations             *prometheus.Desc
	TotalStaked            *prometheus.Desc
	TotalPendingRedemption *prometheus.Desc
	RewardsMinted          *prometheus.Desc
	ReferralRewardsMinted  *prometheus.Desc
	FeesCollected          *prometheus.Desc
	EventsDropped          *prometheus.Desc
	VaultErrors            *prometheus.Desc

	// Store
	StoreEventsSaved  *prometheus.Desc
	StoreLastSavedSeq *prometheus.Desc
	StoreErrors       *prometheus.Desc

	// Redis publisher
	RedisMessagesPublished *prometheus.Desc
	RedisPublishErrors     *prometheus.Desc
	RedisPersistentErrors  *prometheus.Desc

	// Gateway
	GatewayRequests      *prometheus.Desc
	GatewayErrors        *prometheus.Desc
	GatewayStreamClients *prometheus.Desc

	// Auditor
	Audits              *prometheus.Desc
	InvariantViolations *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		// Run
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Vault
		Transactions:           prometheus.NewDesc("vault_transactions", "", nil, nil),
		FailedTransactions:     prometheus.NewDesc("vault_failed_transactions", "", nil, nil),
		Operations:             prometheus.NewDesc("vault_operations", "", []string{"operation"}, nil),
		TotalStaked:            prometheus.NewDesc("vault_total_staked", "", nil, nil),
		TotalPendingRedemption: prometheus.NewDesc("vault_total_pending_redemption", "", nil, nil),
		RewardsMinted:          prometheus.NewDesc("vault_rewards_minted", "", nil, nil),
		ReferralRewardsMinted:  prometheus.NewDesc("vault_referral_rewards_minted", "", nil, nil),
		FeesCollected:          prometheus.NewDesc("vault_fees_collected", "", nil, nil),
		EventsDropped:          prometheus.NewDesc("vault_events_dropped", "", nil, nil),
		VaultErrors:            prometheus.NewDesc("error_vault", "", []string{"kind"}, nil),

		// Store
		StoreEventsSaved:  prometheus.NewDesc("store_events_saved", "", nil, nil),
		StoreLastSavedSeq: prometheus.NewDesc("store_last_saved_seq", "", nil, nil),
		StoreErrors:       prometheus.NewDesc("error_store", "", []string{"kind"}, nil),

		// Redis publisher
		RedisMessagesPublished: prometheus.NewDesc("redis_messages_published", "", nil, nil),
		RedisPublishErrors:     prometheus.NewDesc("error_redis_publish_errors", "", nil, nil),
		RedisPersistentErrors:  prometheus.NewDesc("error_redis_persistent_errors", "", nil, nil),

		// Gateway
		GatewayRequests:      prometheus.NewDesc("gateway_requests", "", nil, nil),
		GatewayErrors:        prometheus.NewDesc("error_gateway", "", []string{"kind"}, nil),
		GatewayStreamClients: prometheus.NewDesc("gateway_stream_clients", "", nil, nil),

		// Auditor
		Audits:              prometheus.NewDesc("auditor_audits", "", nil, nil),
		InvariantViolations: prometheus.NewDesc("error_auditor_invariant_violations", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Vault
	ch <- self.Transactions
	ch <- self.FailedTransactions
	ch <- self.Operations
	ch <- self.TotalStaked
	ch <- self.TotalPendingRedemption
	ch <- self.RewardsMinted
	ch <- self.ReferralRewardsMinted
	ch <- self.FeesCollected
	ch <- self.EventsDropped
	ch <- self.VaultErrors

	// Store
	ch <- self.StoreEventsSaved
	ch <- self.StoreLastSavedSeq
	ch <- self.StoreErrors

	// Redis publisher
	ch <- self.RedisMessagesPublished
	ch <- self.RedisPublishErrors
	ch <- self.RedisPersistentErrors

	// Gateway
	ch <- self.GatewayRequests
	ch <- self.GatewayErrors
	ch <- self.GatewayStreamClients

	// Auditor
	ch <- self.Audits
	ch <- self.InvariantViolations
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := self.monitor.GetReport()

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	// Vault
	ch <- prometheus.MustNewConstMetric(self.Transactions, prometheus.CounterValue, float64(r.Vault.State.Transactions.Load()))
	ch <- prometheus.MustNewConstMetric(self.FailedTransactions, prometheus.CounterValue, float64(r.Vault.State.FailedTransactions.Load()))
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.Deposits.Load()), "deposit")
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.Stakes.Load()), "stake")
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.Unstakes.Load()), "unstake")
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.RedemptionRequests.Load()), "request_redemption")
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.RedemptionsFulfilled.Load()), "fulfill_redemption")
	ch <- prometheus.MustNewConstMetric(self.Operations, prometheus.CounterValue, float64(r.Vault.State.AdminOperations.Load()), "admin")
	ch <- prometheus.MustNewConstMetric(self.TotalStaked, prometheus.GaugeValue, float64(r.Vault.State.TotalStaked.Load()))
	ch <- prometheus.MustNewConstMetric(self.TotalPendingRedemption, prometheus.GaugeValue, float64(r.Vault.State.TotalPendingRedemption.Load()))
	ch <- prometheus.MustNewConstMetric(self.RewardsMinted, prometheus.CounterValue, float64(r.Vault.State.RewardsMinted.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReferralRewardsMinted, prometheus.CounterValue, float64(r.Vault.State.ReferralRewardsMinted.Load()))
	ch <- prometheus.MustNewConstMetric(self.FeesCollected, prometheus.CounterValue, float64(r.Vault.State.FeesCollected.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsDropped, prometheus.CounterValue, float64(r.Vault.State.EventsDropped.Load()))
	ch <- prometheus.MustNewConstMetric(self.VaultErrors, prometheus.CounterValue, float64(r.Vault.Errors.Rejected.Load()), "rejected")
	ch <- prometheus.MustNewConstMetric(self.VaultErrors, prometheus.CounterValue, float64(r.Vault.Errors.Ledger.Load()), "ledger")
	ch <- prometheus.MustNewConstMetric(self.VaultErrors, prometheus.CounterValue, float64(r.Vault.Errors.Compensation.Load()), "compensation")
	ch <- prometheus.MustNewConstMetric(self.VaultErrors, prometheus.CounterValue, float64(r.Vault.Errors.Reentrant.Load()), "reentrant")

	// Store
	ch <- prometheus.MustNewConstMetric(self.StoreEventsSaved, prometheus.CounterValue, float64(r.Store.State.EventsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreLastSavedSeq, prometheus.GaugeValue, float64(r.Store.State.LastSavedSeq.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreErrors, prometheus.CounterValue, float64(r.Store.Errors.Conversion.Load()), "conversion")
	ch <- prometheus.MustNewConstMetric(self.StoreErrors, prometheus.CounterValue, float64(r.Store.Errors.Insert.Load()), "insert")

	// Redis publisher
	ch <- prometheus.MustNewConstMetric(self.RedisMessagesPublished, prometheus.CounterValue, float64(r.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPublishErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPersistentErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.PersistentFailure.Load()))

	// Gateway
	ch <- prometheus.MustNewConstMetric(self.GatewayRequests, prometheus.CounterValue, float64(r.Gateway.State.Requests.Load()))
	ch <- prometheus.MustNewConstMetric(self.GatewayErrors, prometheus.CounterValue, float64(r.Gateway.Errors.BadRequest.Load()), "bad_request")
	ch <- prometheus.MustNewConstMetric(self.GatewayErrors, prometheus.CounterValue, float64(r.Gateway.Errors.Unauthorized.Load()), "unauthorized")
	ch <- prometheus.MustNewConstMetric(self.GatewayErrors, prometheus.CounterValue, float64(r.Gateway.Errors.RateLimited.Load()), "rate_limited")
	ch <- prometheus.MustNewConstMetric(self.GatewayErrors, prometheus.CounterValue, float64(r.Gateway.Errors.Rejected.Load()), "rejected")
	ch <- prometheus.MustNewConstMetric(self.GatewayErrors, prometheus.CounterValue, float64(r.Gateway.Errors.Internal.Load()), "internal")
	ch <- prometheus.MustNewConstMetric(self.GatewayStreamClients, prometheus.GaugeValue, float64(r.Gateway.State.StreamClients.Load()))

	// Auditor
	ch <- prometheus.MustNewConstMetric(self.Audits, prometheus.CounterValue, float64(r.Auditor.State.Audits.Load()))
	ch <- prometheus.MustNewConstMetric(self.InvariantViolations, prometheus.CounterValue, float64(r.Auditor.Errors.InvariantViolations.Load()))
}
