package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp-contracts/vault/src/gateway"
	"github.com/warp-contracts/vault/src/gateway/request"
	"github.com/warp-contracts/vault/src/gateway/response"
	"github.com/warp-contracts/vault/src/utils/build_info"
	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/go-resty/resty/v2"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Typed client of the gateway
type Client struct {
	client  *resty.Client
	limiter ratelimit.Limiter
	log     *logrus.Entry
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.log = logger.NewSublogger("client")

	self.limiter = ratelimit.NewUnlimited()
	if config.Client.MaxRequestsPerSecond > 0 {
		self.limiter = ratelimit.New(config.Client.MaxRequestsPerSecond)
	}

	self.client = resty.New().
		SetBaseURL(config.Client.Url).
		SetTimeout(config.Client.RequestTimeout).
		SetHeader("User-Agent", "warp.cc/vault/"+build_info.Version).
		SetHeader("Content-Type", "application/json").
		SetLogger(NewLogger()).
		OnBeforeRequest(self.onRateLimit).
		OnAfterResponse(self.onStatusToError)

	if config.Client.Token != "" {
		self.client.SetAuthToken(config.Client.Token)
	}

	return
}

func (self *Client) WithBaseUrl(url string) *Client {
	self.client.SetBaseURL(url)
	return self
}

func (self *Client) WithToken(token string) *Client {
	self.client.SetAuthToken(token)
	return self
}

func (self *Client) onRateLimit(c *resty.Client, req *resty.Request) error {
	self.limiter.Take()
	return nil
}

// Non-success status code turns into an error matching the engine's error
func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	self.log.WithField("status", resp.StatusCode()).
		WithField("url", resp.Request.URL).
		WithField("resp", string(resp.Body())).
		Debug("Request failed")

	out := &response.Error{Status: resp.StatusCode()}
	err := json.Unmarshal(resp.Body(), out)
	if err != nil || out.Code == "" {
		return fmt.Errorf("unexpected status: %s", resp.Status())
	}
	return out.Err()
}

func get[Out any](ctx context.Context, self *Client, path string) (out *Out, err error) {
	out = new(Out)
	_, err = self.client.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		return nil, err
	}
	return
}

// Every write carries a fresh Idempotency-Key
func post[Out any](ctx context.Context, self *Client, path string, body any) (out *Out, err error) {
	out = new(Out)
	_, err = self.client.R().
		SetContext(ctx).
		SetHeader(gateway.IdempotencyKeyHeader, xid.New().String()).
		SetBody(body).
		SetResult(out).
		Post(path)
	if err != nil {
		return nil, err
	}
	return
}

func auth(caller vault.Account) request.Auth {
	return request.Auth{Caller: caller.Hex()}
}

// Empty for the zero address
func hex(account vault.Account) string {
	if account == vault.NoAccount {
		return ""
	}
	return account.Hex()
}

func (self *Client) Deposit(ctx context.Context, caller vault.Account, amount uint64, referrer vault.Account) (*vault.DepositResult, error) {
	return post[vault.DepositResult](ctx, self, "/v1/deposit", &request.Deposit{Auth: auth(caller), Amount: amount, Referrer: hex(referrer)})
}

func (self *Client) Stake(ctx context.Context, caller vault.Account, amount uint64) (*response.Ok, error) {
	return post[response.Ok](ctx, self, "/v1/stake", &request.Stake{Auth: auth(caller), Amount: amount})
}

func (self *Client) Unstake(ctx context.Context, caller vault.Account) (*vault.Quote, error) {
	return post[vault.Quote](ctx, self, "/v1/unstake", &request.Unstake{Auth: auth(caller)})
}

func (self *Client) AssignReferrer(ctx context.Context, caller, referrer vault.Account) (*response.Ok, error) {
	return post[response.Ok](ctx, self, "/v1/referrer", &request.AssignReferrer{Auth: auth(caller), Referrer: hex(referrer)})
}

func (self *Client) RequestRedemption(ctx context.Context, caller vault.Account, amount uint64) (*vault.RedemptionResult, error) {
	return post[vault.RedemptionResult](ctx, self, "/v1/redemption/request", &request.RequestRedemption{Auth: auth(caller), Amount: amount})
}

func (self *Client) FulfillRedemption(ctx context.Context, caller, investor vault.Account) (*response.Fulfilled, error) {
	return post[response.Fulfilled](ctx, self, "/v1/redemption/fulfill", &request.FulfillRedemption{Auth: auth(caller), Investor: hex(investor)})
}

// Works only against a gateway in development mode
func (self *Client) Credit(ctx context.Context, account vault.Account, asset vault.Asset, amount uint64) (*response.Balance, error) {
	return post[response.Balance](ctx, self, "/v1/dev/credit", &request.Credit{Account: account.Hex(), Asset: string(asset), Amount: amount})
}

// Owner operation, e.g. Admin(ctx, "vip", &request.SetFlag{...})
func (self *Client) Admin(ctx context.Context, operation string, body any) (*response.Ok, error) {
	return post[response.Ok](ctx, self, "/v1/admin/"+operation, body)
}

func (self *Client) Account(ctx context.Context, account vault.Account) (*response.Account, error) {
	return get[response.Account](ctx, self, "/v1/account/"+account.Hex())
}

func (self *Client) Quote(ctx context.Context, account vault.Account) (*vault.Quote, error) {
	return get[vault.Quote](ctx, self, "/v1/quote/"+account.Hex())
}

func (self *Client) State(ctx context.Context) (*response.State, error) {
	return get[response.State](ctx, self, "/v1/state")
}

func (self *Client) Params(ctx context.Context) (*vault.Params, error) {
	return get[vault.Params](ctx, self, "/v1/params")
}
