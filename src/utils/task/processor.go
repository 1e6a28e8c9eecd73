package task

import (
	"context"
	"errors"
	"math/bits"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/deque"
)

// Implements a two step processing task:
// - onProcess is called for each incoming data item for pre processing
// - onFlush is called periodically or when the batch is full to handle the processed data
type Processor[In any, Out any] struct {
	*Task

	// Channel for the data to be processed
	input <-chan In

	// Called for each incoming data
	onProcess func(In) ([]Out, error)

	// Handles a batch of processed data
	onFlush func([]Out) error

	// Queue for the processed data
	queue *deque.Deque[Out]

	// Batch size that will trigger the onFlush function
	batchSize int

	// Flush interval
	flushInterval time.Duration

	// Max time flush should be retried. 0 means no limit.
	maxElapsedTime time.Duration

	// Max times between flush retries
	maxInterval time.Duration
}

func NewProcessor[In any, Out any](config *config.Config, name string) (self *Processor[In, Out]) {
	self = new(Processor[In, Out])
	self.batchSize = 1
	self.flushInterval = time.Second
	self.queue = deque.New[Out]()

	self.Task = NewTask(config, name).
		WithSubtaskFunc(self.run)

	return
}

func (self *Processor[In, Out]) WithBatchSize(batchSize int) *Processor[In, Out] {
	if batchSize > 0 {
		self.batchSize = batchSize
	}
	// Capacity is given as a power of 2
	self.queue.SetMinCapacity(uint(min(bits.Len(uint(self.batchSize)), 16)))
	return self
}

func (self *Processor[In, Out]) WithInputChannel(v <-chan In) *Processor[In, Out] {
	self.input = v
	return self
}

func (self *Processor[In, Out]) WithOnFlush(interval time.Duration, f func([]Out) error) *Processor[In, Out] {
	if interval > 0 {
		self.flushInterval = interval
	}
	self.onFlush = f
	return self
}

func (self *Processor[In, Out]) WithOnProcess(f func(In) ([]Out, error)) *Processor[In, Out] {
	self.onProcess = f
	return self
}

func (self *Processor[In, Out]) WithBackoff(maxElapsedTime, maxInterval time.Duration) *Processor[In, Out] {
	self.maxElapsedTime = maxElapsedTime
	self.maxInterval = maxInterval
	return self
}

func (self *Processor[In, Out]) flush() (err error) {
	size := self.queue.Len()
	if size == 0 {
		return
	}

	data := make([]Out, 0, size)
	for i := 0; i < size; i++ {
		data = append(data, self.queue.PopFront())
	}

	err = NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.maxElapsedTime).
		WithMaxInterval(self.maxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				// Stopping
				return backoff.Permanent(err)
			}
			self.Log.WithError(err).WithField("len", len(data)).Warn("Failed to flush data, retrying...")
			return err
		}).
		Run(func() error {
			return self.onFlush(data)
		})
	if err != nil {
		self.Log.WithError(err).Error("Failed to flush data")
		return
	}

	return
}

// Receives data from the input channel and passes batches to onFlush
func (self *Processor[In, Out]) run() (err error) {
	// Used to ensure data isn't stuck in Processor for too long
	timer := time.NewTimer(self.flushInterval)
	defer timer.Stop()

	for {
		select {
		case in, ok := <-self.input:
			if !ok {
				// The only way input channel is closed is that the Processor's source is stopping
				// There will be no more data, flush everything there is and quit.
				return self.flush()
			}

			data, err := self.onProcess(in)
			if err != nil {
				self.Log.WithError(err).Error("Failed to process data, skipping")
				continue
			}

			// Cache the processed data
			for _, d := range data {
				self.queue.PushBack(d)
			}

			if self.queue.Len() >= self.batchSize {
				err = self.flush()
				if err != nil {
					return err
				}
			}

		case <-timer.C:
			err = self.flush()
			if err != nil {
				return err
			}
			timer.Reset(self.flushInterval)

		case <-self.StopChannel:
			// Drain what's already buffered
			for {
				select {
				case in, ok := <-self.input:
					if !ok {
						return self.flush()
					}
					data, err := self.onProcess(in)
					if err == nil {
						for _, d := range data {
							self.queue.PushBack(d)
						}
					}
				default:
					return self.flush()
				}
			}
		}
	}
}
