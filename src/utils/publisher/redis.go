package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding"
	"errors"
	"fmt"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/monitoring"
	"github.com/warp-contracts/vault/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// Forwards messages to a Redis pub/sub channel
type RedisPublisher[In encoding.BinaryMarshaler] struct {
	*task.Task

	client      *redis.Client
	monitor     monitoring.Monitor
	channelName string
	input       <-chan In
}

func NewRedisPublisher[In encoding.BinaryMarshaler](config *config.Config, name string) (self *RedisPublisher[In]) {
	self = new(RedisPublisher[In])

	self.channelName = config.Redis.ChannelName

	// A single worker keeps messages in order
	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithPeriodicSubtaskFunc(30*time.Second, self.monitorPool).
		WithWorkerPool(max(config.Redis.MaxWorkers, 1), config.Redis.MaxQueueSize).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *RedisPublisher[In]) WithMonitor(v monitoring.Monitor) *RedisPublisher[In] {
	self.monitor = v
	return self
}

func (self *RedisPublisher[In]) WithInputChannel(v <-chan In) *RedisPublisher[In] {
	self.input = v
	return self
}

func (self *RedisPublisher[In]) WithChannelName(v string) *RedisPublisher[In] {
	self.channelName = v
	return self
}

func (self *RedisPublisher[In]) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *RedisPublisher[In]) connect() (err error) {
	opts := redis.Options{
		ClientName:      fmt.Sprintf("vault/%s", self.Name),
		Addr:            fmt.Sprintf("%s:%d", self.Config.Redis.Host, self.Config.Redis.Port),
		Password:        self.Config.Redis.Password,
		Username:        self.Config.Redis.User,
		DB:              self.Config.Redis.DB,
		MinIdleConns:    self.Config.Redis.MinIdleConns,
		MaxIdleConns:    self.Config.Redis.MaxIdleConns,
		ConnMaxIdleTime: self.Config.Redis.ConnMaxIdleTime,
		PoolSize:        self.Config.Redis.MaxOpenConns,
		ConnMaxLifetime: self.Config.Redis.ConnMaxLifetime,
	}

	if self.Config.Redis.ClientCert != "" && self.Config.Redis.ClientKey != "" && self.Config.Redis.CaCert != "" {
		cert, err := tls.X509KeyPair([]byte(self.Config.Redis.ClientCert), []byte(self.Config.Redis.ClientKey))
		if err != nil {
			return fmt.Errorf("failed to load client cert: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(self.Config.Redis.CaCert)) {
			return errors.New("failed to append CA cert to pool")
		}

		opts.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			RootCAs:      caCertPool,
			Certificates: []tls.Certificate{cert},
		}
	}

	self.client = redis.NewClient(&opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}

	return
}

func (self *RedisPublisher[In]) publish(payload In) {
	data, err := payload.MarshalBinary()
	if err != nil {
		self.Log.WithError(err).Error("Failed to marshal message, skipping")
		self.monitor.GetReport().RedisPublisher.Errors.Marshal.Inc()
		return
	}

	err = task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Redis.MaxElapsedTime).
		WithMaxInterval(self.Config.Redis.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			self.Log.WithError(err).Warn("Failed to publish message, retrying")
			self.monitor.GetReport().RedisPublisher.Errors.Publish.Inc()
			return err
		}).
		Run(func() error {
			return self.client.Publish(self.Ctx, self.channelName, data).Err()
		})
	if err != nil {
		self.Log.WithError(err).Error("Failed to publish message, giving up")
		self.monitor.GetReport().RedisPublisher.Errors.PersistentFailure.Inc()
		return
	}

	self.monitor.GetReport().RedisPublisher.State.MessagesPublished.Inc()
	self.monitor.GetReport().RedisPublisher.State.LastSuccessfulMessageTimestamp.Store(time.Now().Unix())
}

func (self *RedisPublisher[In]) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			return nil
		case payload, ok := <-self.input:
			if !ok {
				return nil
			}
			self.SubmitToWorker(func() {
				self.publish(payload)
			})
		}
	}
}

func (self *RedisPublisher[In]) monitorPool() error {
	stats := self.client.PoolStats()
	state := &self.monitor.GetReport().RedisPublisher.State
	state.PoolHits.Store(uint64(stats.Hits))
	state.PoolMisses.Store(uint64(stats.Misses))
	state.PoolTimeouts.Store(uint64(stats.Timeouts))
	state.PoolTotalConns.Store(uint64(stats.TotalConns))
	state.PoolIdleConns.Store(uint64(stats.IdleConns))
	state.PoolStaleConns.Store(uint64(stats.StaleConns))
	return nil
}
