package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx                context.Context
	maxElapsedTime     time.Duration
	maxInterval        time.Duration
	acceptableDuration time.Duration
	onError            func(error, bool) error
}

func NewRetry() *Retry {
	return &Retry{
		ctx: context.Background(),
	}
}

func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// Errors occurring after this duration are reported as not acceptable
func (self *Retry) WithAcceptableDuration(acceptableDuration time.Duration) *Retry {
	self.acceptableDuration = acceptableDuration
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

// Callback may return backoff.Permanent to stop retrying
func (self *Retry) WithOnError(v func(error, bool) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	if self.maxInterval > 0 {
		b.MaxInterval = self.maxInterval
	}

	started := time.Now()
	op := func() error {
		err := f()
		if err == nil || self.onError == nil {
			return err
		}
		isDurationAcceptable := self.acceptableDuration == 0 || time.Since(started) < self.acceptableDuration
		return self.onError(err, isDurationAcceptable)
	}

	return backoff.Retry(op, backoff.WithContext(b, self.ctx))
}
