package vault

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Ledger keeps fungible balances of a single asset.
// Every operation is atomic and leaves balances untouched on failure.
type Ledger interface {
	Asset() Asset
	BalanceOf(ctx context.Context, account Account) (uint64, error)
	Mint(ctx context.Context, to Account, amount uint64) error
	Burn(ctx context.Context, from Account, amount uint64) error
	Transfer(ctx context.Context, from, to Account, amount uint64) error
}

// In-process ledger
type MemoryLedger struct {
	mtx      sync.RWMutex
	asset    Asset
	supply   uint64
	balances map[Account]uint64
}

func NewMemoryLedger(asset Asset) *MemoryLedger {
	return &MemoryLedger{
		asset:    asset,
		balances: make(map[Account]uint64),
	}
}

func (self *MemoryLedger) Asset() Asset {
	return self.asset
}

func (self *MemoryLedger) BalanceOf(ctx context.Context, account Account) (uint64, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.balances[account], nil
}

func (self *MemoryLedger) TotalSupply() uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.supply
}

// Copy of all non-zero balances
func (self *MemoryLedger) Balances() map[Account]uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return maps.Clone(self.balances)
}

func (self *MemoryLedger) Mint(ctx context.Context, to Account, amount uint64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.supply+amount < self.supply {
		return fmt.Errorf("%w: minting %d %s", ErrAmountOverflow, amount, self.asset)
	}

	self.supply += amount
	self.add(to, amount)
	return nil
}

func (self *MemoryLedger) Burn(ctx context.Context, from Account, amount uint64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.sub(from, amount)
	if err != nil {
		return err
	}

	self.supply -= amount
	return nil
}

func (self *MemoryLedger) Transfer(ctx context.Context, from, to Account, amount uint64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.sub(from, amount)
	if err != nil {
		return err
	}

	// Can't overflow, total supply fits in uint64
	self.add(to, amount)
	return nil
}

func (self *MemoryLedger) add(account Account, amount uint64) {
	if amount == 0 {
		return
	}
	self.balances[account] += amount
}

func (self *MemoryLedger) sub(account Account, amount uint64) error {
	balance := self.balances[account]
	if balance < amount {
		return fmt.Errorf("%w: %s has %d %s, needs %d", ErrInsufficientBalance, account, balance, self.asset, amount)
	}

	if balance == amount {
		delete(self.balances, account)
	} else {
		self.balances[account] = balance - amount
	}
	return nil
}
