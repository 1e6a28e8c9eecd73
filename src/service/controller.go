package service

import (
	"context"

	"github.com/warp-contracts/vault/src/gateway"
	"github.com/warp-contracts/vault/src/store"
	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/model"
	monitor_vault "github.com/warp-contracts/vault/src/utils/monitoring/vault"
	"github.com/warp-contracts/vault/src/utils/publisher"
	"github.com/warp-contracts/vault/src/utils/task"
	"github.com/warp-contracts/vault/src/vault"

	"gorm.io/gorm"
)

type Controller struct {
	*task.Task

	Engine *vault.Engine
}

// Main class that orchestrates the vault service.
// Replays the persisted event log, serves the API and fans committed events out
// to the database and Redis.
func NewController(config *config.Config) (self *Controller, err error) {
	err = config.Gateway.Validate(config.IsDevelopment)
	if err != nil {
		return
	}

	self = new(Controller)
	self.Task = task.NewTask(config, "controller")

	// Monitoring
	monitor := monitor_vault.NewMonitor(config)

	genesis, err := Genesis(config)
	if err != nil {
		return
	}

	// Event log
	var db *gorm.DB
	state := genesis
	if config.Database.Enabled {
		err = model.Migrate(self.Ctx, config)
		if err != nil {
			return
		}

		db, err = model.NewConnection(self.Ctx, config, "vault")
		if err != nil {
			return
		}

		state, err = self.replay(db, genesis)
		if err != nil {
			return
		}
		monitor.GetReport().Store.State.EventsReplayed.Add(state.Seq - genesis.Seq)
	}

	hub := vault.NewHub(config.Vault.EventBufferSize)

	self.Engine = vault.NewEngine(state).
		WithHub(hub).
		WithMonitor(monitor)

	err = self.restoreCustody(state)
	if err != nil {
		return
	}

	// Rest API
	server := gateway.NewServer(config).
		WithEngine(self.Engine).
		WithMonitor(monitor)

	auditor := NewAuditor(config).
		WithEngine(self.Engine).
		WithMonitor(monitor)

	// Stores every event, holds the engine back when the database is slow
	var storeTask *task.Task
	if config.Database.Enabled {
		storeTask = store.NewStore(config).
			WithDB(db).
			WithMonitor(monitor).
			WithState(state).
			WithHub(hub).
			Task
	}

	// Notifications, slow Redis loses events
	var publisherTask *task.Task
	if config.Redis.Enabled {
		sub := hub.Subscribe()
		publisherTask = publisher.NewRedisPublisher[*vault.Event](config, "redis-publisher").
			WithMonitor(monitor).
			WithInputChannel(sub.C).
			Task.
			WithOnStop(func() { hub.Unsubscribe(sub) })
	}

	// Gateway stops first, so everything it committed reaches the store
	self.Task = self.Task.
		WithSubtask(server.Task).
		WithSubtask(storeTask).
		WithSubtask(publisherTask).
		WithSubtask(auditor.Task).
		WithSubtask(monitor.Task).
		WithOnAfterStop(func() {
			hub.Close()
			if db == nil {
				return
			}
			sqlDB, err := db.DB()
			if err == nil {
				_ = sqlDB.Close()
			}
		})

	return
}

// Genesis state built from configuration
func Genesis(config *config.Config) (state *vault.State, err error) {
	params, err := vault.NewParams(&config.Vault)
	if err != nil {
		return
	}

	vips, err := parseAccounts(config.Vault.VIPs)
	if err != nil {
		return
	}

	redeemers, err := parseAccounts(config.Vault.Redeemers)
	if err != nil {
		return
	}

	state = vault.NewState(params).
		WithVIPs(vips...).
		WithRedeemers(redeemers...)
	return
}

func parseAccounts(in []string) (out []vault.Account, err error) {
	for _, s := range in {
		account, err := vault.ParseAccount(s)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return
}

func (self *Controller) replay(db *gorm.DB, genesis *vault.State) (state *vault.State, err error) {
	ctx, cancel := context.WithTimeout(self.Ctx, self.Config.Database.PingTimeout*4)
	defer cancel()

	events, err := store.LoadEvents(ctx, db)
	if err != nil {
		return
	}

	state, err = vault.Replay(genesis, events)
	if err != nil {
		return
	}

	self.Log.WithField("seq", state.Seq).WithField("staked", state.Totals.Staked).Info("Replayed event log")
	return
}

// In-memory ledgers start empty, custody gets back what backs the replayed stakes and escrow
func (self *Controller) restoreCustody(state *vault.State) error {
	amount := state.Totals.Staked + state.Totals.PendingRedemption
	if amount == 0 {
		return nil
	}

	ledger, err := self.Engine.Ledger(state.Params.ProtocolAsset)
	if err != nil {
		return err
	}

	return ledger.Mint(self.Ctx, state.Params.Custody, amount)
}
