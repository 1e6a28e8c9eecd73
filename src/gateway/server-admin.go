package gateway

import (
	"context"
	"net/http"

	"github.com/warp-contracts/vault/src/gateway/request"
	"github.com/warp-contracts/vault/src/gateway/response"
	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-gonic/gin"
)

type authenticated interface {
	GetAuth() request.Auth
}

// Binds the request, resolves the caller and runs an owner operation
func admin[In any](self *Server, f func(ctx context.Context, caller vault.Account, in *In) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := new(In)
		if !self.bind(c, in) {
			return
		}

		var auth request.Auth
		if v, ok := any(in).(authenticated); ok {
			auth = v.GetAuth()
		}

		caller, err := self.caller(c, auth)
		if err != nil {
			self.fail(c, err)
			return
		}

		ctx, cancel := self.ctx(c)
		defer cancel()
		ctx, receipt := vault.WithReceipt(ctx)

		err = f(ctx, caller, in)
		if err != nil {
			self.fail(c, err)
			return
		}

		logger.LOG(c).WithField("caller", caller).Info("Admin operation")
		c.JSON(http.StatusOK, &response.Ok{Seq: receipt.Seq})
	}
}

func (self *Server) onSetRates(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetRates) error {
		return self.engine.SetRates(ctx, caller, in.APY, in.MaxEarlyFeeRate, in.ReferralRate)
	})(c)
}

func (self *Server) onSetBoundaryAmount(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetBoundaryAmount) error {
		return self.engine.SetBoundaryAmount(ctx, caller, in.Amount)
	})(c)
}

func (self *Server) onSetVault(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetVault) error {
		account, err := vault.ParseAccount(in.Vault)
		if err != nil {
			return err
		}
		return self.engine.SetVault(ctx, caller, account)
	})(c)
}

func (self *Server) onSetCurve(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetCurve) error {
		return self.engine.SetCurve(ctx, caller, in.Enabled, in.Power)
	})(c)
}

func (self *Server) onSetPolicy(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetPolicy) error {
		return self.engine.SetPolicy(ctx, caller, in.Policy)
	})(c)
}

func (self *Server) onSetVIP(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetFlag) error {
		account, err := vault.ParseAccount(in.Account)
		if err != nil {
			return err
		}
		return self.engine.SetVIP(ctx, caller, account, in.Enabled)
	})(c)
}

func (self *Server) onSetRedeemer(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.SetFlag) error {
		account, err := vault.ParseAccount(in.Account)
		if err != nil {
			return err
		}
		return self.engine.SetRedeemer(ctx, caller, account, in.Enabled)
	})(c)
}

func (self *Server) onTransferOwnership(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.TransferOwnership) error {
		owner, err := vault.ParseAccount(in.Owner)
		if err != nil {
			return err
		}
		return self.engine.TransferOwnership(ctx, caller, owner)
	})(c)
}

func (self *Server) onSweep(c *gin.Context) {
	admin(self, func(ctx context.Context, caller vault.Account, in *request.Sweep) error {
		to, err := vault.ParseAccount(in.To)
		if err != nil {
			return err
		}
		return self.engine.Sweep(ctx, caller, vault.Asset(in.Asset), to, in.Amount)
	})(c)
}
