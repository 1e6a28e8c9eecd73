package vault

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	alice   = common.HexToAddress("0xa11ce")
	bob     = common.HexToAddress("0xb0b")
	carol   = common.HexToAddress("0xca201")
	manager = common.HexToAddress("0x3a3a")
)

const boundary = 1000_000000

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *clock.Mock
	params Params

	protocol   *MemoryLedger
	settlement *MemoryLedger
	stray      *MemoryLedger

	genesis *State
	engine  *Engine
	sub     *Subscription
}

func (s *EngineTestSuite) SetupTest() {
	var err error
	s.ctx = context.Background()

	s.params, err = NewParams(&config.Default().Vault)
	s.Require().Nil(err)

	s.clock = clock.NewMock()
	s.clock.Set(time.Unix(1_700_000_000, 0))

	s.protocol = NewMemoryLedger(s.params.ProtocolAsset)
	s.settlement = NewMemoryLedger(s.params.SettlementAsset)
	s.stray = NewMemoryLedger("USDC")

	s.genesis = NewState(s.params)
	s.engine = NewEngine(s.genesis.Clone()).
		WithClock(s.clock).
		WithHub(NewHub(100_000)).
		WithLedger(s.protocol).
		WithLedger(s.settlement).
		WithLedger(s.stray)

	s.sub = s.engine.Hub().Subscribe()
}

func (s *EngineTestSuite) TearDownTest() {
	s.engine.Hub().Close()
}

func (s *EngineTestSuite) fund(account Account, amount uint64) {
	s.Require().Nil(s.settlement.Mint(s.ctx, account, amount))
}

func (s *EngineTestSuite) deposit(account Account, amount uint64, referrer Account) DepositResult {
	s.fund(account, amount)
	out, err := s.engine.Deposit(s.ctx, account, amount, referrer)
	s.Require().Nil(err)
	return out
}

func (s *EngineTestSuite) balance(ledger Ledger, account Account) uint64 {
	balance, err := ledger.BalanceOf(s.ctx, account)
	s.Require().Nil(err)
	return balance
}

func (s *EngineTestSuite) events() (out []*Event) {
	for {
		select {
		case event := <-s.sub.C:
			out = append(out, event)
		default:
			return
		}
	}
}

func kinds(events []*Event) (out []EventKind) {
	for _, event := range events {
		out = append(out, event.Kind)
	}
	return
}

func (s *EngineTestSuite) requireConsistent() {
	s.Require().Nil(s.engine.CheckInvariants(s.ctx))
}

func (s *EngineTestSuite) TestFullCycle() {
	s.deposit(alice, 1_000_000, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 1_000_000))
	s.Require().Equal(uint64(1_000_000), s.engine.Totals().Staked)

	s.clock.Add(time.Duration(SecondsPerYear/2) * time.Second)

	quote, err := s.engine.QuoteUnstake(alice)
	s.Require().Nil(err)

	out, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(quote, out)

	s.Require().Equal(uint64(SecondsPerYear/2), out.TimeStaked)
	s.Require().Equal(uint64(30000), out.Reward)
	s.Require().Equal(uint64(30000), out.EarlyFee)

	// Below the boundary, a full year of APY
	s.Require().Equal(uint64(120000), out.SmallFee)
	s.Require().Equal(uint64(150000), out.TotalFee)
	s.Require().Equal(uint64(850000), out.Payout)

	s.Require().Equal(uint64(880000), s.balance(s.protocol, alice))
	s.Require().Equal(uint64(150000), s.balance(s.protocol, s.params.Owner))
	s.Require().Zero(s.balance(s.protocol, s.params.Custody))
	s.Require().Equal(uint64(1_000_000), s.balance(s.settlement, s.params.Settlement))

	s.Require().False(s.engine.Position(alice).IsLive())
	s.Require().Zero(s.engine.Totals().Staked)
	s.requireConsistent()

	s.Require().Equal([]EventKind{EventDeposited, EventStaked, EventUnstaked}, kinds(s.events()))
}

func (s *EngineTestSuite) TestStakeErrors() {
	s.Require().ErrorIs(s.engine.Stake(s.ctx, alice, 0), ErrZeroAmount)
	s.Require().ErrorIs(s.engine.Stake(s.ctx, NoAccount, 1), ErrInvalidAddress)

	// Nothing to stake with
	err := s.engine.Stake(s.ctx, alice, 1)
	s.Require().ErrorIs(err, ErrInsufficientBalance)
	s.Require().False(s.engine.Position(alice).IsLive())

	s.deposit(alice, 100, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 50))
	s.Require().ErrorIs(s.engine.Stake(s.ctx, alice, 50), ErrAlreadyStaked)

	_, err = s.engine.Unstake(s.ctx, bob)
	s.Require().ErrorIs(err, ErrNoStakedBalance)

	_, err = s.engine.QuoteUnstake(bob)
	s.Require().ErrorIs(err, ErrNoStakedBalance)

	s.Require().Equal(uint64(50), s.engine.Totals().Staked)
	s.requireConsistent()
}

func (s *EngineTestSuite) TestCustodyCannotActAsUser() {
	custody := s.params.Custody

	s.Require().ErrorIs(s.engine.Stake(s.ctx, custody, 5_000_000), ErrInvalidAddress)
	s.Require().False(s.engine.Position(custody).IsLive())
	s.Require().Zero(s.engine.Totals().Staked)
	s.requireConsistent()

	s.deposit(alice, 10_000_000, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 10_000_000))

	// Escrow of others must not pay the fee
	_, err := s.engine.RequestRedemption(s.ctx, custody, 5000)
	s.Require().ErrorIs(err, ErrInvalidAddress)
	s.Require().Zero(s.balance(s.protocol, s.params.Owner))
	s.Require().Equal(uint64(10_000_000), s.balance(s.protocol, custody))
	s.Require().Zero(s.engine.Totals().PendingRedemption)

	_, err = s.engine.Unstake(s.ctx, custody)
	s.Require().ErrorIs(err, ErrInvalidAddress)

	s.fund(custody, 100)
	_, err = s.engine.Deposit(s.ctx, custody, 100, NoAccount)
	s.Require().ErrorIs(err, ErrInvalidAddress)

	// Settlement would pay itself and get minted for free
	s.fund(s.params.Settlement, 100)
	_, err = s.engine.Deposit(s.ctx, s.params.Settlement, 100, NoAccount)
	s.Require().ErrorIs(err, ErrInvalidAddress)
	s.Require().Zero(s.balance(s.protocol, s.params.Settlement))

	s.Require().Equal(uint64(10_000_000), s.protocol.TotalSupply())
	s.requireConsistent()
}

func (s *EngineTestSuite) TestFulfillOwnRedemptionNeedsFunds() {
	s.Require().Nil(s.engine.SetRedeemer(s.ctx, s.params.Owner, manager, true))
	s.deposit(manager, boundary, NoAccount)
	_, err := s.engine.RequestRedemption(s.ctx, manager, boundary)
	s.Require().Nil(err)

	// Paying itself still requires the balance
	_, err = s.engine.FulfillRedemption(s.ctx, manager, manager)
	s.Require().ErrorIs(err, ErrInsufficientBalance)
	s.Require().Equal(uint64(boundary), s.engine.PendingRedemption(manager))
	s.Require().Equal(uint64(boundary), s.balance(s.protocol, s.params.Custody))
	s.requireConsistent()

	s.fund(manager, boundary)
	amount, err := s.engine.FulfillRedemption(s.ctx, manager, manager)
	s.Require().Nil(err)
	s.Require().Equal(uint64(boundary), amount)
	s.Require().Equal(uint64(boundary), s.balance(s.settlement, manager))
	s.Require().Zero(s.engine.PendingRedemption(manager))
	s.requireConsistent()
}

func (s *EngineTestSuite) TestReceipt() {
	s.deposit(alice, boundary, bob)

	ctx, receipt := WithReceipt(s.ctx)
	s.Require().Nil(s.engine.Stake(ctx, alice, boundary))
	s.Require().Equal(s.engine.Seq(), receipt.Seq)

	events := s.events()
	last := events[len(events)-1]
	s.Require().Equal(EventStaked, last.Kind)
	s.Require().Equal(last.Seq, receipt.Seq)

	// Failed transactions leave it empty
	ctx, receipt = WithReceipt(s.ctx)
	s.Require().ErrorIs(s.engine.Stake(ctx, alice, 1), ErrAlreadyStaked)
	s.Require().Zero(receipt.Seq)
}

func (s *EngineTestSuite) TestStalledSubscriberDoesNotBlockReads() {
	hub := NewHub(0)
	s.engine.WithHub(hub)
	sub := hub.SubscribeLossless()

	s.fund(alice, 100)
	done := make(chan error, 1)
	go func() {
		_, err := s.engine.Deposit(s.ctx, alice, 100, NoAccount)
		done <- err
	}()

	// Committed and waiting for the subscriber, reads still go through
	s.Require().Eventually(func() bool { return s.engine.Seq() == 1 }, 5*time.Second, time.Millisecond)
	s.Require().Equal(uint64(100), s.balance(s.protocol, alice))
	s.Require().Nil(s.engine.CheckInvariants(s.ctx))

	select {
	case <-done:
		s.FailNow("deposit returned before its event was delivered")
	default:
	}

	event := <-sub.C
	s.Require().Equal(EventDeposited, event.Kind)
	s.Require().Nil(<-done)
}

func (s *EngineTestSuite) TestEventsKeepOrderUnderConcurrentWrites() {
	sub := s.engine.Hub().SubscribeLossless()

	accounts := make([]Account, 16)
	for i := range accounts {
		accounts[i] = common.BigToAddress(big.NewInt(int64(0x7000 + i)))
		s.fund(accounts[i], 10)
	}

	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(account Account) {
			defer wg.Done()
			_, _ = s.engine.Deposit(s.ctx, account, 10, NoAccount)
		}(account)
	}
	wg.Wait()

	for i := range accounts {
		event := <-sub.C
		s.Require().Equal(uint64(i+1), event.Seq)
	}
}

func (s *EngineTestSuite) TestUnstakeAfterYear() {
	s.deposit(alice, boundary, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))

	s.clock.Add(2 * time.Duration(SecondsPerYear) * time.Second)

	out, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(240_000000), out.Reward)
	s.Require().Zero(out.TotalFee)
	s.Require().Equal(uint64(boundary+240_000000), s.balance(s.protocol, alice))
}

func (s *EngineTestSuite) TestReadsPredictUnstake() {
	s.deposit(alice, boundary, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))
	s.clock.Add(time.Duration(SecondsPerYear/2) * time.Second)
	s.events()

	reward, err := s.engine.AccruedReward(alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(30_000000), reward)

	fee, err := s.engine.EarlyExitFee(alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(30_000000), fee)

	small, err := s.engine.SmallAmountFee(500)
	s.Require().Nil(err)
	s.Require().Equal(uint64(60), small)

	// Reads don't change anything
	s.Require().Empty(s.events())
	s.Require().True(s.engine.Position(alice).IsLive())
}

func (s *EngineTestSuite) TestSmallRedemptionRoundTrip() {
	s.deposit(alice, 500, NoAccount)

	out, err := s.engine.RequestRedemption(s.ctx, alice, 500)
	s.Require().Nil(err)
	s.Require().Equal(uint64(60), out.SmallFee)
	s.Require().Equal(uint64(440), out.NetAmount)

	s.Require().Equal(uint64(440), s.engine.PendingRedemption(alice))
	s.Require().Equal(uint64(440), s.engine.Totals().PendingRedemption)
	s.Require().Equal(uint64(60), s.balance(s.protocol, s.params.Owner))
	s.Require().Equal(uint64(440), s.balance(s.protocol, s.params.Custody))
	s.requireConsistent()

	// Settled from the owner's own funds
	s.fund(s.params.Owner, 440)
	amount, err := s.engine.FulfillRedemption(s.ctx, s.params.Owner, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(440), amount)

	s.Require().Equal(uint64(440), s.balance(s.settlement, alice))
	s.Require().Zero(s.balance(s.settlement, s.params.Owner))
	s.Require().Zero(s.engine.PendingRedemption(alice))
	s.Require().Zero(s.engine.Totals().PendingRedemption)
	s.Require().Zero(s.balance(s.protocol, s.params.Custody))
	s.Require().Equal(uint64(60), s.protocol.TotalSupply())
	s.requireConsistent()

	_, err = s.engine.FulfillRedemption(s.ctx, s.params.Owner, alice)
	s.Require().ErrorIs(err, ErrNoPendingRedemption)
}

func (s *EngineTestSuite) TestLargeRedemptionHasNoFee() {
	s.deposit(alice, 2*boundary, NoAccount)

	out, err := s.engine.RequestRedemption(s.ctx, alice, boundary)
	s.Require().Nil(err)
	s.Require().Zero(out.SmallFee)
	s.Require().Equal(uint64(boundary), out.NetAmount)

	// Queue accumulates
	_, err = s.engine.RequestRedemption(s.ctx, alice, boundary)
	s.Require().Nil(err)
	s.Require().Equal(uint64(2*boundary), s.engine.PendingRedemption(alice))

	_, err = s.engine.RequestRedemption(s.ctx, alice, 1)
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	_, err = s.engine.RequestRedemption(s.ctx, alice, 0)
	s.Require().ErrorIs(err, ErrZeroAmount)
	s.requireConsistent()
}

func (s *EngineTestSuite) TestFulfillAuthorization() {
	s.deposit(alice, boundary, NoAccount)
	_, err := s.engine.RequestRedemption(s.ctx, alice, boundary)
	s.Require().Nil(err)
	s.events()

	s.fund(carol, boundary)
	_, err = s.engine.FulfillRedemption(s.ctx, carol, alice)
	s.Require().ErrorIs(err, ErrUnauthorized)
	s.Require().Equal(uint64(boundary), s.engine.PendingRedemption(alice))
	s.Require().Equal(uint64(boundary), s.balance(s.settlement, carol))
	s.Require().Empty(s.events())

	// Only the owner grants the role
	s.Require().ErrorIs(s.engine.SetRedeemer(s.ctx, carol, manager, true), ErrUnauthorized)
	s.Require().Nil(s.engine.SetRedeemer(s.ctx, s.params.Owner, manager, true))
	s.Require().True(s.engine.IsRedeemer(manager))

	// Redeemer without funds fails and nothing moves
	_, err = s.engine.FulfillRedemption(s.ctx, manager, alice)
	s.Require().ErrorIs(err, ErrInsufficientBalance)
	s.Require().Equal(uint64(boundary), s.engine.PendingRedemption(alice))
	s.Require().Equal(uint64(boundary), s.balance(s.protocol, s.params.Custody))

	s.fund(manager, boundary)
	amount, err := s.engine.FulfillRedemption(s.ctx, manager, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(boundary), amount)
	s.Require().Equal(uint64(boundary), s.balance(s.settlement, alice))
	s.requireConsistent()

	// Revoked
	s.Require().Nil(s.engine.SetRedeemer(s.ctx, s.params.Owner, manager, false))
	s.Require().False(s.engine.IsRedeemer(manager))
}

func (s *EngineTestSuite) TestMinimumRedemption() {
	policy := s.params.Policy()
	policy.EnforceMinimumRedemption = true
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	s.deposit(alice, 500, NoAccount)
	_, err := s.engine.RequestRedemption(s.ctx, alice, 500)
	s.Require().ErrorIs(err, ErrBelowMinimumRedemption)

	s.Require().Nil(s.engine.SetVIP(s.ctx, s.params.Owner, alice, true))
	_, err = s.engine.RequestRedemption(s.ctx, alice, 500)
	s.Require().Nil(err)
}

func (s *EngineTestSuite) TestAssignReferrer() {
	s.Require().ErrorIs(s.engine.AssignReferrer(s.ctx, alice, alice), ErrInvalidReferrer)
	s.Require().ErrorIs(s.engine.AssignReferrer(s.ctx, alice, NoAccount), ErrInvalidAddress)

	s.Require().Nil(s.engine.AssignReferrer(s.ctx, alice, bob))
	s.Require().Equal(bob, s.engine.Referrer(alice))

	before := s.engine.Snapshot()
	s.Require().ErrorIs(s.engine.AssignReferrer(s.ctx, alice, carol), ErrAlreadyHasReferrer)
	s.Require().Equal(before, s.engine.Snapshot())
	s.Require().Equal(bob, s.engine.Referrer(alice))
}

func (s *EngineTestSuite) TestReferredLargeDeposit() {
	out := s.deposit(alice, boundary, bob)
	s.Require().Equal(bob, out.Referrer)
	s.Require().Equal(uint64(50_000000), out.ReferralReward)
	s.Require().True(out.VIPGranted)

	s.Require().True(s.engine.IsVIP(alice))
	s.Require().False(s.engine.IsVIP(bob))
	s.Require().Equal(uint64(50_000000), s.balance(s.protocol, bob))
	s.Require().Equal(uint64(boundary), s.balance(s.protocol, alice))

	events := s.events()
	s.Require().Equal([]EventKind{EventReferrerAssigned, EventReferralRewardMinted, EventVIPUpdated, EventDeposited}, kinds(events))
	for i, event := range events {
		s.Require().Equal(uint64(i+1), event.Seq)
		s.Require().Equal(s.clock.Now().Unix(), event.Timestamp)
		s.Require().NotEmpty(event.Id)
	}
	s.Require().Equal(ReasonLargeDeposit, events[1].Reason)

	// Existing assignment wins, the new referrer is ignored
	out = s.deposit(alice, boundary, carol)
	s.Require().Equal(bob, out.Referrer)
	s.Require().False(out.VIPGranted)
	s.Require().Equal(uint64(100_000000), s.balance(s.protocol, bob))
	s.Require().Zero(s.balance(s.protocol, carol))

	// Small deposits don't reward
	out = s.deposit(alice, 10, NoAccount)
	s.Require().Zero(out.ReferralReward)

	_, err := s.engine.Deposit(s.ctx, alice, 10, alice)
	s.Require().ErrorIs(err, ErrInvalidReferrer)
	s.requireConsistent()
}

func (s *EngineTestSuite) TestDepositErrors() {
	_, err := s.engine.Deposit(s.ctx, alice, 0, NoAccount)
	s.Require().ErrorIs(err, ErrZeroAmount)

	_, err = s.engine.Deposit(s.ctx, NoAccount, 1, NoAccount)
	s.Require().ErrorIs(err, ErrInvalidAddress)

	// Not funded, the referrer assignment is rolled back too
	_, err = s.engine.Deposit(s.ctx, alice, 1, bob)
	s.Require().ErrorIs(err, ErrInsufficientBalance)
	s.Require().Equal(NoAccount, s.engine.Referrer(alice))
	s.Require().Zero(s.protocol.TotalSupply())
	s.Require().Empty(s.events())
}

func (s *EngineTestSuite) TestUnstakeRewardsAndClearsReferral() {
	s.deposit(alice, boundary, bob)
	s.Require().True(s.engine.IsVIP(alice))
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))
	s.events()

	s.clock.Add(time.Duration(SecondsPerYear/2) * time.Second)

	out, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(30_000000), out.Reward)

	// VIP doesn't pay the early fee, large amounts don't pay the small fee
	s.Require().Zero(out.TotalFee)
	s.Require().Equal(uint64(50_000000), out.ReferralReward)
	s.Require().Equal(bob, out.Referrer)

	// Deposit and unstake rewards
	s.Require().Equal(uint64(100_000000), s.balance(s.protocol, bob))

	s.Require().Equal(NoAccount, s.engine.Referrer(alice))
	s.Require().False(s.engine.IsVIP(alice))
	s.Require().Equal([]EventKind{EventUnstaked, EventReferralRewardMinted, EventReferrerCleared, EventVIPUpdated}, kinds(s.events()))

	// Farming the same relationship doesn't pay anymore
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))
	out, err = s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Zero(out.ReferralReward)
	s.Require().Equal(uint64(100_000000), s.balance(s.protocol, bob))
	s.requireConsistent()
}

func (s *EngineTestSuite) TestReferralKeptWhenClearingDisabled() {
	policy := s.params.Policy()
	policy.ClearReferrerOnUnstake = false
	policy.RevokeVIPOnUnstake = false
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	s.deposit(alice, boundary, bob)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))
	_, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)

	s.Require().Equal(bob, s.engine.Referrer(alice))
	s.Require().True(s.engine.IsVIP(alice))
}

func (s *EngineTestSuite) TestUnstakeReferralModes() {
	policy := s.params.Policy()
	policy.UnstakeReferral = UnstakeReferralLargeDeposit
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	// Small depositor isn't eligible
	s.deposit(alice, 1000, bob)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 1000))
	out, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Zero(out.ReferralReward)

	// Large depositor is
	s.deposit(carol, boundary, bob)
	s.Require().Nil(s.engine.Stake(s.ctx, carol, boundary))
	out, err = s.engine.Unstake(s.ctx, carol)
	s.Require().Nil(err)
	s.Require().Equal(uint64(50_000000), out.ReferralReward)

	policy.UnstakeReferral = UnstakeReferralNever
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	s.deposit(manager, boundary, bob)
	s.Require().Nil(s.engine.Stake(s.ctx, manager, boundary))
	out, err = s.engine.Unstake(s.ctx, manager)
	s.Require().Nil(err)
	s.Require().Zero(out.ReferralReward)
}

func (s *EngineTestSuite) TestSmallRedemptionReferral() {
	s.deposit(alice, 1000, bob)

	out, err := s.engine.RequestRedemption(s.ctx, alice, 500)
	s.Require().Nil(err)

	// On the pre-fee amount
	s.Require().Equal(uint64(25), out.ReferralReward)
	s.Require().Equal(uint64(25), s.balance(s.protocol, bob))

	policy := s.params.Policy()
	policy.RewardSmallRedemption = false
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	out, err = s.engine.RequestRedemption(s.ctx, alice, 500)
	s.Require().Nil(err)
	s.Require().Zero(out.ReferralReward)
	s.requireConsistent()
}

func (s *EngineTestSuite) TestFeeClamp() {
	s.Require().Nil(s.engine.SetRates(s.ctx, s.params.Owner, 10000, 10000, 0))

	s.deposit(alice, 1000, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 1000))

	// Both fees are 100% of principal at t=0
	quote, err := s.engine.QuoteUnstake(alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(1000), quote.EarlyFee)
	s.Require().Equal(uint64(1000), quote.SmallFee)
	s.Require().Equal(uint64(1000), quote.TotalFee)
	s.Require().Zero(quote.Payout)

	policy := s.params.Policy()
	policy.ClampFeeToPrincipal = false
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	_, err = s.engine.Unstake(s.ctx, alice)
	s.Require().ErrorIs(err, ErrFeeExceedsPrincipal)
	s.Require().True(s.engine.Position(alice).IsLive())

	policy.ClampFeeToPrincipal = true
	s.Require().Nil(s.engine.SetPolicy(s.ctx, s.params.Owner, policy))

	out, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Zero(out.Payout)
	s.Require().Zero(s.balance(s.protocol, alice))
	s.Require().Equal(uint64(1000), s.balance(s.protocol, s.params.Owner))
	s.requireConsistent()
}

func (s *EngineTestSuite) TestLinearOnlyCurve() {
	s.Require().Nil(s.engine.SetCurve(s.ctx, s.params.Owner, false, "2.0"))

	s.deposit(alice, boundary, NoAccount)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, boundary))
	s.clock.Add(time.Duration(SecondsPerYear/2) * time.Second)

	reward, err := s.engine.AccruedReward(alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(60_000000), reward)

	s.Require().ErrorIs(s.engine.SetCurve(s.ctx, s.params.Owner, true, "0"), ErrInvalidParams)
}

// Fails transfers into one account
type faultyLedger struct {
	Ledger
	to Account
}

func (self *faultyLedger) Transfer(ctx context.Context, from, to Account, amount uint64) error {
	if to == self.to {
		return errors.New("ledger unavailable")
	}
	return self.Ledger.Transfer(ctx, from, to, amount)
}

func (s *EngineTestSuite) TestFailedUnstakeRollsBack() {
	s.deposit(alice, 1000, bob)
	s.Require().Nil(s.engine.Stake(s.ctx, alice, 1000))
	s.clock.Add(time.Hour)
	s.events()

	before := s.engine.Snapshot()
	balances := s.protocol.Balances()
	supply := s.protocol.TotalSupply()

	// Fee routing is the last transfer, after reward was minted and payout released
	s.engine.WithLedger(&faultyLedger{Ledger: s.protocol, to: s.params.Owner})

	_, err := s.engine.Unstake(s.ctx, alice)
	s.Require().Error(err)

	s.Require().Equal(before, s.engine.Snapshot())
	s.Require().Equal(balances, s.protocol.Balances())
	s.Require().Equal(supply, s.protocol.TotalSupply())
	s.Require().Empty(s.events())
	s.requireConsistent()

	s.engine.WithLedger(s.protocol)
	_, err = s.engine.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(before.Seq+3, s.engine.Snapshot().Seq)
	s.Require().Equal([]EventKind{EventUnstaked, EventReferralRewardMinted, EventReferrerCleared}, kinds(s.events()))
}

// Calls back into the engine from inside a ledger call
type reentrantLedger struct {
	Ledger
	engine *Engine
	errs   []error
}

func (self *reentrantLedger) Transfer(ctx context.Context, from, to Account, amount uint64) error {
	self.errs = append(self.errs, self.engine.Stake(ctx, from, amount))
	_, err := self.engine.Unstake(ctx, from)
	self.errs = append(self.errs, err)
	return self.Ledger.Transfer(ctx, from, to, amount)
}

func (s *EngineTestSuite) TestReentrantCallsAreRejected() {
	s.deposit(alice, 1000, NoAccount)

	ledger := &reentrantLedger{Ledger: s.protocol, engine: s.engine}
	s.engine.WithLedger(ledger)

	s.Require().Nil(s.engine.Stake(s.ctx, alice, 1000))
	s.Require().Len(ledger.errs, 2)
	for _, err := range ledger.errs {
		s.Require().ErrorIs(err, ErrReentrantCall)
	}
	s.Require().Equal(uint64(1000), s.engine.Totals().Staked)
	s.requireConsistent()
}

func (s *EngineTestSuite) TestAdmin() {
	s.Require().ErrorIs(s.engine.SetRates(s.ctx, alice, 1, 1, 1), ErrUnauthorized)
	s.Require().ErrorIs(s.engine.SetRates(s.ctx, s.params.Owner, 10001, 1, 1), ErrInvalidParams)
	s.Require().Nil(s.engine.SetRates(s.ctx, s.params.Owner, 800, 300, 100))

	params := s.engine.Params()
	s.Require().Equal(uint64(800), params.APY)
	s.Require().Equal(uint64(300), params.MaxEarlyFeeRate)
	s.Require().Equal(uint64(100), params.ReferralRate)

	s.Require().Nil(s.engine.SetBoundaryAmount(s.ctx, s.params.Owner, 5))
	s.Require().Equal(uint64(5), s.engine.Params().BoundaryAmount)

	s.Require().ErrorIs(s.engine.SetVault(s.ctx, s.params.Owner, NoAccount), ErrInvalidAddress)
	s.Require().Nil(s.engine.SetVault(s.ctx, s.params.Owner, carol))
	s.deposit(alice, 10, NoAccount)
	s.Require().Equal(uint64(10), s.balance(s.settlement, carol))

	s.Require().ErrorIs(s.engine.SetVIP(s.ctx, s.params.Owner, NoAccount, true), ErrInvalidAddress)
	s.Require().ErrorIs(s.engine.SetVIP(s.ctx, bob, alice, true), ErrUnauthorized)

	s.Require().ErrorIs(s.engine.TransferOwnership(s.ctx, s.params.Owner, NoAccount), ErrInvalidAddress)
	s.Require().Nil(s.engine.TransferOwnership(s.ctx, s.params.Owner, manager))
	s.Require().Equal(manager, s.engine.Params().Owner)
	s.Require().ErrorIs(s.engine.SetRates(s.ctx, s.params.Owner, 1, 1, 1), ErrUnauthorized)
	s.Require().Nil(s.engine.SetRates(s.ctx, manager, 1200, 600, 500))
}

func (s *EngineTestSuite) TestSweep() {
	s.Require().Nil(s.stray.Mint(s.ctx, s.params.Custody, 100))

	owner := s.params.Owner
	s.Require().ErrorIs(s.engine.Sweep(s.ctx, alice, "USDC", carol, 10), ErrUnauthorized)
	s.Require().ErrorIs(s.engine.Sweep(s.ctx, owner, s.params.ProtocolAsset, carol, 10), ErrCannotWithdrawOwnAsset)
	s.Require().ErrorIs(s.engine.Sweep(s.ctx, owner, "USDC", NoAccount, 10), ErrInvalidAddress)
	s.Require().ErrorIs(s.engine.Sweep(s.ctx, owner, "USDC", carol, 0), ErrZeroAmount)

	err := s.engine.Sweep(s.ctx, owner, "USDC", carol, 101)
	s.Require().ErrorIs(err, ErrWithdrawFailed)
	s.Require().ErrorIs(err, ErrInsufficientBalance)

	err = s.engine.Sweep(s.ctx, owner, "DAI", carol, 1)
	s.Require().ErrorIs(err, ErrWithdrawFailed)
	s.Require().ErrorIs(err, ErrUnknownAsset)

	s.Require().Nil(s.engine.Sweep(s.ctx, owner, "USDC", carol, 100))
	s.Require().Equal(uint64(100), s.balance(s.stray, carol))

	events := s.events()
	s.Require().Len(events, 1)
	s.Require().Equal(EventSwept, events[0].Kind)
	s.Require().Equal(Asset("USDC"), events[0].Asset)
}

// Random operations never break the invariants and the event log reproduces the state
func (s *EngineTestSuite) TestConservationAndReplay() {
	accounts := []Account{alice, bob, carol, manager}
	rnd := rand.New(rand.NewSource(7))
	pick := func() Account { return accounts[rnd.Intn(len(accounts))] }
	amount := func() uint64 {
		if rnd.Intn(2) == 0 {
			return uint64(rnd.Intn(5000) + 1)
		}
		return uint64(boundary + rnd.Intn(boundary))
	}

	s.Require().Nil(s.engine.SetRedeemer(s.ctx, s.params.Owner, manager, true))

	for i := 0; i < 500; i++ {
		account := pick()
		var err error

		switch rnd.Intn(8) {
		case 0:
			referrer := NoAccount
			if rnd.Intn(2) == 0 {
				referrer = pick()
			}
			a := amount()
			s.fund(account, a)
			_, err = s.engine.Deposit(s.ctx, account, a, referrer)
		case 1:
			balance := s.balance(s.protocol, account)
			if balance > 0 {
				err = s.engine.Stake(s.ctx, account, uint64(rnd.Int63n(int64(balance)))+1)
			}
		case 2:
			_, err = s.engine.Unstake(s.ctx, account)
		case 3:
			balance := s.balance(s.protocol, account)
			if balance > 0 {
				_, err = s.engine.RequestRedemption(s.ctx, account, uint64(rnd.Int63n(int64(balance)))+1)
			}
		case 4:
			s.fund(manager, s.engine.PendingRedemption(account))
			_, err = s.engine.FulfillRedemption(s.ctx, manager, account)
		case 5:
			err = s.engine.AssignReferrer(s.ctx, account, pick())
		case 6:
			err = s.engine.SetVIP(s.ctx, s.params.Owner, account, rnd.Intn(2) == 0)
		case 7:
			s.clock.Add(time.Duration(rnd.Int63n(int64(SecondsPerYear/4))) * time.Second)
		}

		if err != nil {
			s.Require().True(
				errors.Is(err, ErrAlreadyStaked) ||
					errors.Is(err, ErrNoStakedBalance) ||
					errors.Is(err, ErrNoPendingRedemption) ||
					errors.Is(err, ErrInvalidReferrer) ||
					errors.Is(err, ErrAlreadyHasReferrer),
				"unexpected error: %v", err)
		}

		s.requireConsistent()
	}

	snapshot := s.engine.Snapshot()
	s.Require().Greater(snapshot.Seq, uint64(100))

	replayed, err := Replay(s.genesis, s.events())
	s.Require().Nil(err)
	s.Require().Equal(snapshot, replayed)
}

func (s *EngineTestSuite) TestReplayRejectsGaps() {
	s.deposit(alice, 10, NoAccount)
	s.deposit(alice, 10, NoAccount)

	events := s.events()
	s.Require().Len(events, 2)

	_, err := Replay(s.genesis, events[1:])
	s.Require().ErrorIs(err, ErrEventOutOfOrder)
}

func (s *EngineTestSuite) TestEventsRoundTripThroughJSON() {
	s.deposit(alice, boundary, bob)
	s.Require().Nil(s.engine.SetRates(s.ctx, s.params.Owner, 900, 600, 500))

	var decoded []*Event
	for _, event := range s.events() {
		buf, err := event.MarshalBinary()
		s.Require().Nil(err)

		out := new(Event)
		s.Require().Nil(out.UnmarshalBinary(buf))
		decoded = append(decoded, out)
	}

	replayed, err := Replay(s.genesis, decoded)
	s.Require().Nil(err)
	s.Require().Equal(s.engine.Snapshot(), replayed)
	s.Require().Equal(uint64(900), replayed.Params.APY)
}

func TestStateRollback(t *testing.T) {
	params, err := NewParams(&config.Default().Vault)
	require.Nil(t, err)

	state := NewState(params).WithRedeemers(bob)
	before := state.Clone()

	state.begin()
	require.Nil(t, state.openPosition(alice, 10, 1))
	require.Nil(t, state.enqueueRedemption(carol, 5))
	state.setRedeemer(bob, false)
	state.setRedeemer(alice, true)
	state.Params.APY = 1
	state.rollback()

	require.Equal(t, before, state)
}
