package monitor_vault

import (
	"net/http"
	"sync"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/monitoring/report"
	"github.com/warp-contracts/vault/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report    *report.Report
	collector *Collector

	// Committed transactions in each of the last minutes, oldest first
	mtx              sync.RWMutex
	history          *deque.Deque[uint64]
	historySize      int
	lastTransactions uint64
}

type State struct {
	*report.Report

	TransactionsPerMinute []uint64 `json:"transactions_per_minute"`
}

func NewMonitor(config *config.Config) (self *Monitor) {
	self = new(Monitor)

	self.Report = report.NewReport()
	self.history = deque.New[uint64]()
	self.historySize = 30
	if config != nil && config.Auditor.MonitorHistorySize > 0 {
		self.historySize = config.Auditor.MonitorHistorySize
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(config, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitor)

	return
}

func (self *Monitor) GetReport() *report.Report {
	return self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func (self *Monitor) IsOK() bool {
	// Broken invariants mean balances can't be trusted anymore
	if self.Report.Auditor.State.Audits.Load() > 0 && !self.Report.Auditor.State.LastAuditOK.Load() {
		return false
	}

	// Rollback that didn't fully compensate ledger operations
	return self.Report.Vault.Errors.Compensation.Load() == 0
}

// Transactions committed in each of the last minutes
func (self *Monitor) History() []uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]uint64, 0, self.history.Len())
	for i := 0; i < self.history.Len(); i++ {
		out = append(out, self.history.At(i))
	}
	return out
}

func (self *Monitor) monitor() (err error) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	transactions := self.Report.Vault.State.Transactions.Load()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.history.PushBack(transactions - self.lastTransactions)
	self.lastTransactions = transactions
	for self.history.Len() > self.historySize {
		self.history.PopFront()
	}

	return nil
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &State{
		Report:                self.Report,
		TransactionsPerMinute: self.History(),
	})
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
