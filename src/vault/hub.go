package vault

import (
	"sync"

	"go.uber.org/atomic"
)

// Hub fans committed events out to subscribers.
// Lossy subscribers drop events when their buffer is full, lossless ones apply backpressure.
type Hub struct {
	mtx           sync.Mutex
	bufferSize    int
	subscriptions map[*Subscription]struct{}

	// Events dropped by all lossy subscribers
	Dropped atomic.Uint64
}

type Subscription struct {
	C <-chan *Event

	ch       chan *Event
	done     chan struct{}
	once     sync.Once
	lossless bool

	// Events this subscriber didn't receive
	Dropped atomic.Uint64
}

func NewHub(bufferSize int) *Hub {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Hub{
		bufferSize:    bufferSize,
		subscriptions: make(map[*Subscription]struct{}),
	}
}

func (self *Hub) subscribe(lossless bool) *Subscription {
	ch := make(chan *Event, self.bufferSize)
	sub := &Subscription{
		C:        ch,
		ch:       ch,
		done:     make(chan struct{}),
		lossless: lossless,
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.subscriptions[sub] = struct{}{}
	return sub
}

// Subscribe returns a subscription that drops events when it falls behind
func (self *Hub) Subscribe() *Subscription {
	return self.subscribe(false)
}

// SubscribeLossless returns a subscription that blocks publishing until it catches up
func (self *Hub) SubscribeLossless() *Subscription {
	return self.subscribe(true)
}

// Unsubscribe closes the subscription channel. Safe to call more than once.
func (self *Hub) Unsubscribe(sub *Subscription) {
	// Unblocks a publisher waiting on this subscriber
	sub.once.Do(func() { close(sub.done) })

	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.subscriptions[sub]; !ok {
		return
	}
	delete(self.subscriptions, sub)
	close(sub.ch)
}

func (self *Hub) Len() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return len(self.subscriptions)
}

func (self *Hub) Publish(events ...*Event) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, event := range events {
		for sub := range self.subscriptions {
			if sub.lossless {
				select {
				case sub.ch <- event:
				case <-sub.done:
					sub.Dropped.Inc()
				}
				continue
			}

			select {
			case sub.ch <- event:
			default:
				sub.Dropped.Inc()
				self.Dropped.Inc()
			}
		}
	}
}

// Close unsubscribes everyone
func (self *Hub) Close() {
	self.mtx.Lock()
	subs := make([]*Subscription, 0, len(self.subscriptions))
	for sub := range self.subscriptions {
		subs = append(subs, sub)
	}
	self.mtx.Unlock()

	for _, sub := range subs {
		self.Unsubscribe(sub)
	}
}
