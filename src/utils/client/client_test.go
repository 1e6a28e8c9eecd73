package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/warp-contracts/vault/src/gateway"
	"github.com/warp-contracts/vault/src/gateway/request"
	"github.com/warp-contracts/vault/src/utils/config"
	monitor_vault "github.com/warp-contracts/vault/src/utils/monitoring/vault"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/suite"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *clock.Mock
	params vault.Params
	engine *vault.Engine
	srv    *httptest.Server
	client *Client
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()

	config := config.Default()
	config.IsDevelopment = true
	config.Gateway.AuthSecret = "secret"
	config.Client.MaxRequestsPerSecond = 1000

	var err error
	s.params, err = vault.NewParams(&config.Vault)
	s.Require().Nil(err)

	s.clock = clock.NewMock()
	s.clock.Set(time.Unix(1_700_000_000, 0))

	monitor := monitor_vault.NewMonitor(config)
	s.engine = vault.NewEngine(vault.NewState(s.params)).
		WithClock(s.clock).
		WithMonitor(monitor)

	server := gateway.NewServer(config).
		WithEngine(s.engine).
		WithMonitor(monitor)
	s.srv = httptest.NewServer(server.Handler())

	s.client = NewClient(config).
		WithBaseUrl(s.srv.URL).
		WithToken(s.token(alice))
}

func (s *ClientTestSuite) TearDownTest() {
	s.srv.Close()
	s.engine.Hub().Close()
}

func (s *ClientTestSuite) token(account vault.Account) string {
	token, err := gateway.IssueToken("secret", account, time.Hour)
	s.Require().Nil(err)
	return token
}

func (s *ClientTestSuite) TestStakeAndUnstake() {
	balance, err := s.client.Credit(s.ctx, alice, s.params.SettlementAsset, 2000_000000)
	s.Require().Nil(err)
	s.Require().Equal(uint64(2000_000000), balance.Balance)

	deposit, err := s.client.Deposit(s.ctx, alice, 2000_000000, bob)
	s.Require().Nil(err)
	s.Require().Equal(bob, deposit.Referrer)
	s.Require().Equal(uint64(100_000000), deposit.ReferralReward)

	_, err = s.client.Stake(s.ctx, alice, 2000_000000)
	s.Require().Nil(err)

	s.clock.Add(time.Duration(vault.SecondsPerYear) * time.Second)

	quote, err := s.client.Quote(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(240_000000), quote.Reward)

	unstake, err := s.client.Unstake(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(*quote, *unstake)

	account, err := s.client.Account(s.ctx, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(0), account.Principal)
	s.Require().Equal("", account.Referrer)

	state, err := s.client.State(s.ctx)
	s.Require().Nil(err)
	s.Require().Equal(s.engine.Seq(), state.Seq)
}

func (s *ClientTestSuite) TestErrorsMatchEngine() {
	_, err := s.client.Stake(s.ctx, alice, 0)
	s.Require().ErrorIs(err, vault.ErrZeroAmount)

	_, err = s.client.Unstake(s.ctx, alice)
	s.Require().ErrorIs(err, vault.ErrNoStakedBalance)

	_, err = s.client.Admin(s.ctx, "rates", &request.SetRates{APY: 1})
	s.Require().ErrorIs(err, vault.ErrUnauthorized)

	_, err = s.client.WithToken("garbage").Stake(s.ctx, alice, 1)
	s.Require().Error(err)
}

func (s *ClientTestSuite) TestAdmin() {
	owner := NewClient(config.Default()).
		WithBaseUrl(s.srv.URL).
		WithToken(s.token(s.params.Owner))

	_, err := owner.Admin(s.ctx, "redeemer", &request.SetFlag{Account: bob.Hex(), Enabled: true})
	s.Require().Nil(err)
	s.Require().True(s.engine.IsRedeemer(bob))

	params, err := owner.Params(s.ctx)
	s.Require().Nil(err)
	s.Require().Equal(s.params.APY, params.APY)

	// Redemption settled by the new redeemer
	_, err = s.client.Credit(s.ctx, alice, s.params.ProtocolAsset, 1500_000000)
	s.Require().Nil(err)
	_, err = s.client.Credit(s.ctx, bob, s.params.SettlementAsset, 1500_000000)
	s.Require().Nil(err)

	redemption, err := s.client.RequestRedemption(s.ctx, alice, 1500_000000)
	s.Require().Nil(err)
	s.Require().Equal(uint64(1500_000000), redemption.NetAmount)

	redeemer := NewClient(config.Default()).
		WithBaseUrl(s.srv.URL).
		WithToken(s.token(bob))
	fulfilled, err := redeemer.FulfillRedemption(s.ctx, bob, alice)
	s.Require().Nil(err)
	s.Require().Equal(uint64(1500_000000), fulfilled.Amount)
}
