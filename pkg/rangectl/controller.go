package rangectl

import (
	"log"
	"sync"
	"time"

	"github.com/matst80/slask-catalog/pkg/query"
)

const DefaultDelay = 500 * time.Millisecond

type State int

const (
	Synced State = iota
	DirtyPending
	Committing
)

func (s State) String() string {
	switch s {
	case Synced:
		return "synced"
	case DirtyPending:
		return "dirty"
	case Committing:
		return "committing"
	}
	return "unknown"
}

// Committer writes a price range into the shared filter state.
type Committer interface {
	CommitPrice(lo, hi int)
}

type CommitterFunc func(lo, hi int)

func (f CommitterFunc) CommitPrice(lo, hi int) {
	f(lo, hi)
}

// CodecCommitter commits through the query codec, resetting the page.
// Values outside the codec bounds are clamped first.
type CodecCommitter struct {
	Codec  *query.Codec
	Router query.Router
}

func (c CodecCommitter) CommitPrice(lo, hi int) {
	lo, hi = c.Codec.ClampPrice(lo), c.Codec.ClampPrice(hi)
	nav := c.Codec.Mutate(c.Router.Query(), query.Price(lo, hi), query.MutateOptions{})
	c.Router.Navigate(nav)
}

type Option func(*Controller)

func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// Controller buffers a min/max pair that changes on every drag tick and
// commits it once the user pauses, or right away on Flush.
type Controller struct {
	mu        sync.Mutex
	committer Committer
	delay     time.Duration

	lo, hi                   int
	committedLo, committedHi int

	state  State
	timer  *time.Timer
	armed  uint64
	closed bool
}

func New(committer Committer, lo, hi int, opts ...Option) *Controller {
	c := &Controller{
		committer:   committer,
		delay:       DefaultDelay,
		lo:          lo,
		hi:          hi,
		committedLo: lo,
		committedHi: hi,
		state:       Synced,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Values() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lo, c.hi
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SetMin(v int) {
	c.edit(func() { c.lo = v })
}

func (c *Controller) SetMax(v int) {
	c.edit(func() { c.hi = v })
}

func (c *Controller) edit(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	apply()
	c.state = DirtyPending
	c.arm()
}

// arm restarts the commit timer, caller holds the lock.
func (c *Controller) arm() {
	c.disarm()
	armed := c.armed
	c.timer = time.AfterFunc(c.delay, func() {
		c.fire(armed)
	})
}

// disarm stops the timer. Bumping armed makes a callback that already
// started return without committing.
func (c *Controller) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.armed++
}

func (c *Controller) fire(armed uint64) {
	c.mu.Lock()
	if c.closed || armed != c.armed || c.state != DirtyPending {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	lo, hi := c.take()
	c.mu.Unlock()

	c.committer.CommitPrice(lo, hi)
}

func (c *Controller) take() (int, int) {
	c.state = Committing
	return c.lo, c.hi
}

// Flush commits a pending edit immediately. It reports whether anything
// was committed.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	if c.closed || c.state != DirtyPending {
		c.mu.Unlock()
		return false
	}
	c.disarm()
	lo, hi := c.take()
	c.mu.Unlock()

	c.committer.CommitPrice(lo, hi)
	return true
}

// Sync takes the committed range from the shared state. A changed range
// overwrites the local buffer and drops any pending commit.
func (c *Controller) Sync(lo, hi int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	unchanged := lo == c.committedLo && hi == c.committedHi
	c.committedLo, c.committedHi = lo, hi
	if unchanged && c.state == DirtyPending {
		return
	}
	if c.state == DirtyPending {
		log.Printf("price edit %d-%d replaced by %d-%d", c.lo, c.hi, lo, hi)
	}
	c.disarm()
	c.lo, c.hi = lo, hi
	c.state = Synced
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.disarm()
}
