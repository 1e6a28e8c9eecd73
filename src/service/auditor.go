package service

import (
	"time"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/monitoring"
	"github.com/warp-contracts/vault/src/utils/task"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/robfig/cron"
)

// Periodically checks that balances and aggregates agree. Never changes anything.
type Auditor struct {
	*task.Task

	cron    *cron.Cron
	engine  *vault.Engine
	monitor monitoring.Monitor
}

func NewAuditor(config *config.Config) (self *Auditor) {
	self = new(Auditor)

	self.cron = cron.New()

	self.Task = task.NewTask(config, "auditor").
		WithOnBeforeStart(self.schedule).
		WithSubtaskFunc(self.run)

	return
}

func (self *Auditor) WithEngine(v *vault.Engine) *Auditor {
	self.engine = v
	return self
}

func (self *Auditor) WithMonitor(v monitoring.Monitor) *Auditor {
	self.monitor = v
	return self
}

func (self *Auditor) schedule() error {
	if self.Config.Auditor.Schedule == "" {
		self.Log.Info("Auditor disabled")
		return nil
	}
	return self.cron.AddFunc(self.Config.Auditor.Schedule, func() { _ = self.Audit() })
}

func (self *Auditor) run() error {
	self.cron.Start()
	<-self.StopChannel
	self.cron.Stop()
	return nil
}

// Audit runs a single check and records the result
func (self *Auditor) Audit() (err error) {
	report := self.monitor.GetReport().Auditor

	err = self.engine.CheckInvariants(self.Ctx)

	report.State.Audits.Inc()
	report.State.LastAuditTimestamp.Store(time.Now().Unix())
	report.State.LastAuditOK.Store(err == nil)

	if err != nil {
		report.Errors.InvariantViolations.Inc()
		self.Log.WithError(err).Error("Invariant violated")
		return
	}

	self.Log.WithField("seq", self.engine.Seq()).Debug("Audit passed")
	return
}
