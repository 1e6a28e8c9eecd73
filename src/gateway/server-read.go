package gateway

import (
	"net/http"
	"strconv"

	"github.com/warp-contracts/vault/src/gateway/response"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-gonic/gin"
)

func (self *Server) onGetState(c *gin.Context) {
	snapshot := &response.State{
		Seq:    self.engine.Seq(),
		Totals: self.engine.Totals(),
		Params: self.engine.Params(),
	}
	c.JSON(http.StatusOK, snapshot)
}

func (self *Server) onGetParams(c *gin.Context) {
	c.JSON(http.StatusOK, self.engine.Params())
}

func (self *Server) onGetAccount(c *gin.Context) {
	account, err := vault.ParseAccount(c.Param("address"))
	if err != nil {
		self.fail(c, err)
		return
	}

	params := self.engine.Params()
	balances := make(map[vault.Asset]uint64)
	for _, asset := range []vault.Asset{params.ProtocolAsset, params.SettlementAsset} {
		ledger, err := self.engine.Ledger(asset)
		if err != nil {
			self.fail(c, err)
			return
		}

		balances[asset], err = ledger.BalanceOf(c, account)
		if err != nil {
			self.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, response.AccountToResponse(account, self.engine.Account(account), self.engine.IsRedeemer(account), balances))
}

func (self *Server) onGetQuote(c *gin.Context) {
	account, err := vault.ParseAccount(c.Param("address"))
	if err != nil {
		self.fail(c, err)
		return
	}

	quote, err := self.engine.QuoteUnstake(account)
	if err != nil {
		self.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (self *Server) onGetSmallAmountFee(c *gin.Context) {
	amount, err := strconv.ParseUint(c.Param("amount"), 10, 64)
	if err != nil {
		self.fail(c, vault.ErrAmountOverflow)
		return
	}

	fee, err := self.engine.SmallAmountFee(amount)
	if err != nil {
		self.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &response.Fee{Amount: amount, Fee: fee})
}
