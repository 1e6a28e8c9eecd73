package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/utils/monitoring"
	"github.com/warp-contracts/vault/src/utils/monitoring/report"

	"github.com/raulk/clock"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

const DefaultEventBufferSize = 1000

// Engine executes vault operations as serialized, all-or-nothing transactions.
//
// A transaction holds the write lock for its whole duration. Ledger calls
// made inside it are journaled and compensated in reverse order if the
// transaction fails, state changes are rolled back from pre-images.
// Committed events are published to the hub in sequence order after the
// write lock is released, so a slow subscriber holds back writers but not reads.
type Engine struct {
	log *logrus.Entry

	mtx   sync.RWMutex
	state *State

	// Committed events waiting for the hub, in sequence order
	outboxMtx  sync.Mutex
	outbox     []*Event
	publishMtx sync.Mutex

	clock   clock.Clock
	ledgers map[Asset]Ledger
	hub     *Hub
	report  *report.VaultReport
}

func NewEngine(state *State) (self *Engine) {
	self = new(Engine)
	self.log = logger.NewSublogger("engine")
	self.state = state
	self.clock = clock.New()
	self.hub = NewHub(DefaultEventBufferSize)
	self.report = &report.VaultReport{}

	// In-memory ledgers unless configured otherwise
	self.ledgers = make(map[Asset]Ledger)
	for _, asset := range append([]Asset{state.Params.ProtocolAsset, state.Params.SettlementAsset}, state.Params.StrayAssets...) {
		self.ledgers[asset] = NewMemoryLedger(asset)
	}

	self.storeGauges()

	return
}

func (self *Engine) storeGauges() {
	self.report.State.LastSeq.Store(self.state.Seq)
	self.report.State.TotalStaked.Store(self.state.Totals.Staked)
	self.report.State.TotalPendingRedemption.Store(self.state.Totals.PendingRedemption)
}

func (self *Engine) WithClock(v clock.Clock) *Engine {
	self.clock = v
	return self
}

func (self *Engine) WithLedger(v Ledger) *Engine {
	self.ledgers[v.Asset()] = v
	return self
}

func (self *Engine) WithHub(v *Hub) *Engine {
	self.hub = v
	return self
}

func (self *Engine) WithMonitor(v monitoring.Monitor) *Engine {
	self.report = v.GetReport().Vault
	self.storeGauges()
	return self
}

func (self *Engine) Hub() *Hub {
	return self.hub
}

func (self *Engine) Ledger(asset Asset) (Ledger, error) {
	ledger, ok := self.ledgers[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
	}
	return ledger, nil
}

// Now in Unix seconds
func (self *Engine) Now() int64 {
	return self.clock.Now().Unix()
}

type txKey struct{}

type receiptKey struct{}

// Receipt of a committed transaction
type Receipt struct {
	// Sequence number of the last event committed by the transaction
	Seq uint64
}

// WithReceipt returns a context that collects the receipt of the transaction run with it
func WithReceipt(ctx context.Context) (context.Context, *Receipt) {
	receipt := new(Receipt)
	return context.WithValue(ctx, receiptKey{}, receipt), receipt
}

// Inside a transaction ctx carries the transaction, so ledgers calling back into the engine are rejected
func isInTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func (self *Engine) atomically(ctx context.Context, f func(tx *tx) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if isInTransaction(ctx) {
		self.report.Errors.Reentrant.Inc()
		return ErrReentrantCall
	}

	err = self.transact(ctx, f)
	if err != nil {
		return
	}

	self.publish()
	return nil
}

func (self *Engine) transact(ctx context.Context, f func(tx *tx) error) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	t := &tx{
		engine: self,
		state:  self.state,
		now:    self.Now(),
	}
	t.ctx = context.WithValue(ctx, txKey{}, t)

	self.state.begin()

	committed := false
	defer func() {
		if committed {
			return
		}
		t.compensate()
		self.state.rollback()
		self.report.State.FailedTransactions.Inc()
	}()

	err = f(t)
	if err != nil {
		self.report.Errors.Rejected.Inc()
		return
	}

	self.state.commit()
	committed = true

	self.report.State.Transactions.Inc()
	self.storeGauges()

	if receipt, ok := ctx.Value(receiptKey{}).(*Receipt); ok {
		receipt.Seq = self.state.Seq
	}

	if len(t.events) > 0 {
		self.outboxMtx.Lock()
		self.outbox = append(self.outbox, t.events...)
		self.outboxMtx.Unlock()
	}

	return nil
}

// Hands queued events to the hub. Whoever takes the outbox first publishes
// everything committed so far, so events never overtake each other.
func (self *Engine) publish() {
	self.publishMtx.Lock()
	defer self.publishMtx.Unlock()

	self.outboxMtx.Lock()
	events := self.outbox
	self.outbox = nil
	self.outboxMtx.Unlock()

	if len(events) == 0 {
		return
	}

	self.hub.Publish(events...)
	self.report.State.EventsDropped.Store(self.hub.Dropped.Load())
}

// Runs f on a consistent snapshot
func (self *Engine) read(f func(state *State)) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	f(self.state)
}

// Snapshot returns a deep copy of the current state
func (self *Engine) Snapshot() (state *State) {
	self.read(func(s *State) { state = s.Clone() })
	return
}

type ledgerOpKind int

const (
	opMint ledgerOpKind = iota
	opBurn
	opTransfer
)

type ledgerOp struct {
	kind   ledgerOpKind
	ledger Ledger
	from   Account
	to     Account
	amount uint64
}

type tx struct {
	ctx    context.Context
	engine *Engine
	state  *State

	// Unix seconds, fixed for the whole transaction
	now int64

	journal []ledgerOp
	events  []*Event
}

func (self *tx) params() Params {
	return self.state.Params
}

func (self *tx) ledger(asset Asset) (Ledger, error) {
	return self.engine.Ledger(asset)
}

func (self *tx) mint(asset Asset, to Account, amount uint64) error {
	if amount == 0 {
		return nil
	}

	ledger, err := self.ledger(asset)
	if err != nil {
		return err
	}

	err = ledger.Mint(self.ctx, to, amount)
	if err != nil {
		self.engine.report.Errors.Ledger.Inc()
		return fmt.Errorf("failed to mint %d %s to %s: %w", amount, asset, to, err)
	}

	self.journal = append(self.journal, ledgerOp{kind: opMint, ledger: ledger, to: to, amount: amount})
	return nil
}

func (self *tx) burn(asset Asset, from Account, amount uint64) error {
	if amount == 0 {
		return nil
	}

	ledger, err := self.ledger(asset)
	if err != nil {
		return err
	}

	err = ledger.Burn(self.ctx, from, amount)
	if err != nil {
		self.engine.report.Errors.Ledger.Inc()
		return fmt.Errorf("failed to burn %d %s from %s: %w", amount, asset, from, err)
	}

	self.journal = append(self.journal, ledgerOp{kind: opBurn, ledger: ledger, from: from, amount: amount})
	return nil
}

// A transfer to the same account still goes through the ledger, so the balance is checked
func (self *tx) transfer(asset Asset, from, to Account, amount uint64) error {
	if amount == 0 {
		return nil
	}

	ledger, err := self.ledger(asset)
	if err != nil {
		return err
	}

	err = ledger.Transfer(self.ctx, from, to, amount)
	if err != nil {
		self.engine.report.Errors.Ledger.Inc()
		return fmt.Errorf("failed to transfer %d %s from %s to %s: %w", amount, asset, from, to, err)
	}

	self.journal = append(self.journal, ledgerOp{kind: opTransfer, ledger: ledger, from: from, to: to, amount: amount})
	return nil
}

// Reverts journaled ledger calls, newest first
func (self *tx) compensate() {
	ctx := context.WithoutCancel(self.ctx)

	for i := len(self.journal) - 1; i >= 0; i-- {
		op := self.journal[i]

		var err error
		switch op.kind {
		case opMint:
			err = op.ledger.Burn(ctx, op.to, op.amount)
		case opBurn:
			err = op.ledger.Mint(ctx, op.from, op.amount)
		case opTransfer:
			err = op.ledger.Transfer(ctx, op.to, op.from, op.amount)
		}

		if err != nil {
			self.engine.report.Errors.Compensation.Inc()
			self.engine.log.WithError(err).
				WithField("asset", op.ledger.Asset()).
				WithField("amount", op.amount).
				Error("Failed to compensate ledger operation")
		}
	}

	self.journal = nil
}

// Stamps the event and applies it to the transaction's state
func (self *tx) emit(event *Event) error {
	event.Id = xid.New().String()
	event.Seq = self.state.Seq + 1
	event.Timestamp = self.now

	err := self.state.Apply(event)
	if err != nil {
		return err
	}

	self.events = append(self.events, event)
	return nil
}

// Fails for anyone but the owner
func (self *tx) requireOwner(caller Account) error {
	if caller == NoAccount || caller != self.params().Owner {
		return ErrUnauthorized
	}
	return nil
}

// Custody backs every position and escrow, it can't act as a user
func (self *tx) requireUser(account Account) error {
	if account == NoAccount || account == self.params().Custody {
		return ErrInvalidAddress
	}
	return nil
}

func (self *tx) account(account Account) AccountState {
	return self.state.Account(account)
}

// Seconds since the position was opened
func timeStaked(position Position, now int64) uint64 {
	if now <= 0 || uint64(now) <= position.Start {
		return 0
	}
	return uint64(now) - position.Start
}
