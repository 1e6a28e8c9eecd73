package gateway

import (
	"bytes"
	"net/http"

	"github.com/warp-contracts/vault/src/gateway/request"
	"github.com/warp-contracts/vault/src/gateway/response"
	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const IdempotencyKeyHeader = "Idempotency-Key"

func (self *Server) count(c *gin.Context) {
	self.monitor.GetReport().Gateway.State.Requests.Inc()
	c.Next()
}

func (self *Server) rateLimit(c *gin.Context) {
	if self.limiter != nil && !self.limiter.Allow() {
		self.monitor.GetReport().Gateway.Errors.RateLimited.Inc()
		logger.LOGE(c, nil, http.StatusTooManyRequests).Debug("Rate limited")
		return
	}
	c.Next()
}

// Resolves the caller from the bearer token when authentication is on
func (self *Server) authenticate(c *gin.Context) {
	if self.Config.Gateway.AuthSecret == "" {
		c.Next()
		return
	}

	caller, err := ParseToken(self.Config.Gateway.AuthSecret, c.GetHeader("Authorization"))
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.Unauthorized.Inc()
		logger.LOGE(c, err, http.StatusUnauthorized).Debug("Invalid token")
		return
	}

	c.Set(callerKey, caller)
	c.Next()
}

func (self *Server) caller(c *gin.Context, in request.Auth) (caller vault.Account, err error) {
	if v, ok := c.Get(callerKey); ok {
		return v.(vault.Account), nil
	}
	return vault.ParseAccount(in.Caller)
}

type recorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (self *recorder) Write(data []byte) (int, error) {
	self.body.Write(data)
	return self.ResponseWriter.Write(data)
}

type recorded struct {
	status int
	body   []byte
}

// Placeholder of a request that is still being handled
type inFlight struct{}

// Replays the stored response of a request repeated with the same Idempotency-Key.
// The key is reserved before the handler runs, a repeat arriving meanwhile gets a conflict.
func (self *Server) idempotent(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		c.Next()
		return
	}

	key = c.FullPath() + "|" + key
	if v, ok := c.Get(callerKey); ok {
		key = v.(vault.Account).Hex() + "|" + key
	}

	err := self.idempotency.Add(key, inFlight{}, cache.DefaultExpiration)
	if err != nil {
		v, _ := self.idempotency.Get(key)
		prev, ok := v.(*recorded)
		if !ok {
			self.fail(c, response.ErrRequestInProgress)
			return
		}

		self.monitor.GetReport().Gateway.State.IdempotentReplays.Inc()
		c.Data(prev.status, gin.MIMEJSON, prev.body)
		c.Abort()
		return
	}

	done := false
	defer func() {
		// Released when the handler fails or panics, so a retry runs again
		if !done {
			self.idempotency.Delete(key)
		}
	}()

	w := &recorder{ResponseWriter: c.Writer}
	c.Writer = w
	c.Next()

	// Server errors may succeed on retry
	if w.Status() >= http.StatusInternalServerError {
		return
	}
	self.idempotency.Set(key, &recorded{status: w.Status(), body: w.body.Bytes()}, cache.DefaultExpiration)
	done = true
}

// Aborts with the status and code of an engine error
func (self *Server) fail(c *gin.Context, err error) {
	status, code := response.Code(err)

	report := &self.monitor.GetReport().Gateway.Errors
	switch {
	case status >= http.StatusInternalServerError:
		report.Internal.Inc()
	case status == http.StatusBadRequest:
		report.BadRequest.Inc()
	default:
		report.Rejected.Inc()
	}

	c.AbortWithStatusJSON(status, &response.Error{
		Status: status,
		Code:   code,
		Error:  err.Error(),
	})
	logger.LOG(c).WithError(err).WithField("status", status).Debug("Request rejected")
}

// Parses the body, failing with a bad request
func (self *Server) bind(c *gin.Context, in any) bool {
	err := c.ShouldBindJSON(in)
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequest.Inc()
		c.AbortWithStatusJSON(http.StatusBadRequest, &response.Error{
			Status: http.StatusBadRequest,
			Code:   "bad_request",
			Error:  err.Error(),
		})
		logger.LOG(c).WithError(err).Debug("Failed to parse request")
		return false
	}
	return true
}
