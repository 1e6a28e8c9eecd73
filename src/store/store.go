package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/big"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/model"
	"github.com/warp-contracts/vault/src/utils/monitoring"
	"github.com/warp-contracts/vault/src/utils/task"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists committed events in batches.
// It follows the log with its own copy of the state, so every stored batch is known to replay cleanly.
type Store struct {
	*task.Processor[*vault.Event, *model.VaultEvent]

	db      *gorm.DB
	monitor monitoring.Monitor
	hub     *vault.Hub
	sub     *vault.Subscription

	// State after the last processed event
	state *vault.State
}

func NewStore(config *config.Config) (self *Store) {
	self = new(Store)

	self.Processor = task.NewProcessor[*vault.Event, *model.VaultEvent](config, "store").
		WithBatchSize(config.Store.BatchSize).
		WithOnFlush(config.Store.FlushInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(config.Store.MaxBackoffElapsedTime, config.Store.MaxBackoffInterval)

	self.Processor.Task = self.Processor.Task.
		WithOnStop(self.unsubscribe)

	return
}

func (self *Store) WithMonitor(v monitoring.Monitor) *Store {
	self.monitor = v
	return self
}

func (self *Store) WithDB(v *gorm.DB) *Store {
	self.db = v
	return self
}

// State the incoming events continue from
func (self *Store) WithState(v *vault.State) *Store {
	self.state = v.Clone()
	return self
}

// Subscribes to committed events. Store never drops events, slow writes hold back the engine instead.
func (self *Store) WithHub(v *vault.Hub) *Store {
	self.hub = v
	self.sub = v.SubscribeLossless()
	self.Processor = self.Processor.WithInputChannel(self.sub.C)
	return self
}

func (self *Store) unsubscribe() {
	if self.hub != nil {
		self.hub.Unsubscribe(self.sub)
	}
}

func (self *Store) process(event *vault.Event) (out []*model.VaultEvent, err error) {
	err = self.state.Apply(event)
	if err != nil {
		self.monitor.GetReport().Store.Errors.Conversion.Inc()
		return
	}

	row, err := toModel(event)
	if err != nil {
		self.monitor.GetReport().Store.Errors.Conversion.Inc()
		return
	}

	out = []*model.VaultEvent{row}
	return
}

// Totals may exceed int64
func numeric(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func (self *Store) stateRow() (row *model.VaultState, err error) {
	params, err := json.Marshal(self.state.Params)
	if err != nil {
		return
	}

	row = &model.VaultState{
		Id:                     1,
		LastSeq:                self.state.Seq,
		TotalStaked:            numeric(self.state.Totals.Staked),
		TotalPendingRedemption: numeric(self.state.Totals.PendingRedemption),
		UpdatedAt:              time.Now(),
	}

	err = row.Params.Set(params)
	return
}

func (self *Store) flush(rows []*model.VaultEvent) (err error) {
	start := time.Now()

	state, err := self.stateRow()
	if err != nil {
		return
	}

	self.Log.WithField("len", len(rows)).WithField("seq", state.LastSeq).Debug("Saving events")

	// Task context is cancelled on stop, the last flush still needs to go through
	ctx, cancel := context.WithTimeout(self.CtxRunning, self.Config.StopTimeout)
	defer cancel()

	err = self.db.WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(rows, len(rows)).
				Error
			if err != nil {
				return err
			}

			return tx.Clauses(clause.OnConflict{UpdateAll: true}).
				Create(state).
				Error
		}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		self.monitor.GetReport().Store.Errors.Insert.Inc()
		return
	}

	self.monitor.GetReport().Store.State.EventsSaved.Add(uint64(len(rows)))
	self.monitor.GetReport().Store.State.LastSavedSeq.Store(state.LastSeq)
	self.monitor.GetReport().Store.State.LastFlushDuration.Store(time.Since(start).Milliseconds())
	return
}

// LoadEvents reads the whole log in sequence order
func LoadEvents(ctx context.Context, db *gorm.DB) (events []*vault.Event, err error) {
	var batch []model.VaultEvent
	err = db.WithContext(ctx).
		Table(model.TableVaultEvent).
		Order("seq ASC").
		FindInBatches(&batch, 1000, func(tx *gorm.DB, n int) error {
			for i := range batch {
				event, err := fromModel(&batch[i])
				if err != nil {
					return err
				}
				events = append(events, event)
			}
			return nil
		}).
		Error
	return
}
