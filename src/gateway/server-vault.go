package gateway

import (
	"net/http"

	"github.com/warp-contracts/vault/src/gateway/request"
	"github.com/warp-contracts/vault/src/gateway/response"
	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-gonic/gin"
)

// Empty address means no account
func optionalAccount(s string) (vault.Account, error) {
	if s == "" {
		return vault.NoAccount, nil
	}
	return vault.ParseAccount(s)
}

func (self *Server) onDeposit(c *gin.Context) {
	var in request.Deposit
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	referrer, err := optionalAccount(in.Referrer)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()

	out, err := self.engine.Deposit(ctx, caller, in.Amount, referrer)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("account", caller).WithField("amount", in.Amount).Debug("Deposited")
	c.JSON(http.StatusOK, out)
}

func (self *Server) onStake(c *gin.Context) {
	var in request.Stake
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()
	ctx, receipt := vault.WithReceipt(ctx)

	err = self.engine.Stake(ctx, caller, in.Amount)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("account", caller).WithField("amount", in.Amount).Debug("Staked")
	c.JSON(http.StatusOK, &response.Ok{Seq: receipt.Seq})
}

func (self *Server) onUnstake(c *gin.Context) {
	var in request.Unstake
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()

	out, err := self.engine.Unstake(ctx, caller)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("account", caller).WithField("payout", out.Payout).Debug("Unstaked")
	c.JSON(http.StatusOK, out)
}

func (self *Server) onAssignReferrer(c *gin.Context) {
	var in request.AssignReferrer
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	referrer, err := vault.ParseAccount(in.Referrer)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()
	ctx, receipt := vault.WithReceipt(ctx)

	err = self.engine.AssignReferrer(ctx, caller, referrer)
	if err != nil {
		self.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &response.Ok{Seq: receipt.Seq})
}

func (self *Server) onRequestRedemption(c *gin.Context) {
	var in request.RequestRedemption
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()

	out, err := self.engine.RequestRedemption(ctx, caller, in.Amount)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("account", caller).WithField("net", out.NetAmount).Debug("Redemption requested")
	c.JSON(http.StatusOK, out)
}

func (self *Server) onFulfillRedemption(c *gin.Context) {
	var in request.FulfillRedemption
	if !self.bind(c, &in) {
		return
	}

	caller, err := self.caller(c, in.Auth)
	if err != nil {
		self.fail(c, err)
		return
	}

	investor, err := vault.ParseAccount(in.Investor)
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()

	amount, err := self.engine.FulfillRedemption(ctx, caller, investor)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("investor", investor).WithField("amount", amount).Debug("Redemption fulfilled")
	c.JSON(http.StatusOK, &response.Fulfilled{Investor: investor.Hex(), Amount: amount})
}

// Development only, credits any ledger
func (self *Server) onCredit(c *gin.Context) {
	var in request.Credit
	if !self.bind(c, &in) {
		return
	}

	account, err := vault.ParseAccount(in.Account)
	if err != nil {
		self.fail(c, err)
		return
	}

	ledger, err := self.engine.Ledger(vault.Asset(in.Asset))
	if err != nil {
		self.fail(c, err)
		return
	}

	ctx, cancel := self.ctx(c)
	defer cancel()

	err = ledger.Mint(ctx, account, in.Amount)
	if err != nil {
		self.fail(c, err)
		return
	}

	balance, err := ledger.BalanceOf(ctx, account)
	if err != nil {
		self.fail(c, err)
		return
	}

	logger.LOG(c).WithField("account", account).WithField("asset", in.Asset).WithField("amount", in.Amount).Info("Credited")
	c.JSON(http.StatusOK, &response.Balance{Account: account.Hex(), Asset: vault.Asset(in.Asset), Balance: balance})
}
