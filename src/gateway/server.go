package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/logger"
	"github.com/warp-contracts/vault/src/utils/monitoring"
	"github.com/warp-contracts/vault/src/utils/task"
	"github.com/warp-contracts/vault/src/vault"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teivah/onecontext"
	"golang.org/x/time/rate"
)

// Rest API of the vault
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine
	once       sync.Once

	engine  *vault.Engine
	monitor monitoring.Monitor

	limiter     *rate.Limiter
	idempotency *cache.Cache
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if config.Gateway.RateLimit > 0 {
		self.limiter = rate.NewLimiter(rate.Limit(config.Gateway.RateLimit), max(config.Gateway.RateLimitBurst, 1))
	}

	self.idempotency = cache.New(config.Gateway.IdempotencyTTL, 2*config.Gateway.IdempotencyTTL)

	gin.SetMode(gin.ReleaseMode)
	if config.IsDevelopment {
		gin.SetMode(gin.DebugMode)
	}
	self.Router = gin.New()

	self.httpServer = &http.Server{
		Addr:    config.Gateway.ServerListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithEngine(v *vault.Engine) *Server {
	self.engine = v
	return self
}

func (self *Server) WithMonitor(v monitoring.Monitor) *Server {
	self.monitor = v
	return self
}

// Handler with all routes registered
func (self *Server) Handler() http.Handler {
	self.once.Do(self.routes)
	return self.Router
}

func (self *Server) routes() {
	self.Router.Use(gin.Recovery(), logger.Middleware(self.Log), self.count)

	if self.Config.Profiler.Enabled {
		pprof.Register(self.Router)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(self.monitor.GetPrometheusCollector())
	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("monitor", self.monitor.OnGetState)
		v1.GET("state", self.onGetState)
		v1.GET("params", self.onGetParams)
		v1.GET("account/:address", self.onGetAccount)
		v1.GET("quote/:address", self.onGetQuote)
		v1.GET("fee/small/:amount", self.onGetSmallAmountFee)
		v1.GET("events/ws", self.onEvents)
	}

	write := v1.Group("", self.rateLimit, self.authenticate, self.idempotent)
	{
		write.POST("deposit", self.onDeposit)
		write.POST("stake", self.onStake)
		write.POST("unstake", self.onUnstake)
		write.POST("referrer", self.onAssignReferrer)
		write.POST("redemption/request", self.onRequestRedemption)
		write.POST("redemption/fulfill", self.onFulfillRedemption)
	}

	admin := write.Group("admin")
	{
		admin.POST("rates", self.onSetRates)
		admin.POST("boundary", self.onSetBoundaryAmount)
		admin.POST("vault", self.onSetVault)
		admin.POST("curve", self.onSetCurve)
		admin.POST("policy", self.onSetPolicy)
		admin.POST("vip", self.onSetVIP)
		admin.POST("redeemer", self.onSetRedeemer)
		admin.POST("ownership", self.onTransferOwnership)
		admin.POST("sweep", self.onSweep)
	}

	if self.Config.IsDevelopment {
		v1.POST("dev/credit", self.onCredit)
	}
}

// Request context that is also cancelled when the server stops
func (self *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return onecontext.Merge(c.Request.Context(), self.Ctx)
}

func (self *Server) run() (err error) {
	self.httpServer.Handler = self.Handler()

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
