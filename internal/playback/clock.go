package playback

import (
	"sync"
	"time"
)

// Clock is the single position source driving the player. Exactly one clock
// runs per lesson: a MediaClock when real audio exists, a SimulatedClock for
// previewing visuals before synthesis has finished. The player is written
// against this interface so the two can never both be ticking.
type Clock interface {
	// Start begins emitting positions (seconds) to tick. Calling Start on a
	// running clock is a no-op.
	Start(tick func(pos float64))
	// Stop halts ticking and releases any timer. Safe to call repeatedly.
	Stop()
	// Seek moves the playback position.
	Seek(pos float64)
	// Position returns the current playback position.
	Position() float64
}

// SimulatedClock advances a fake playback position on a fixed interval. Used
// when no audio asset exists yet; the visuals preview at an assumed pace.
type SimulatedClock struct {
	mu       sync.Mutex
	interval time.Duration
	pos      float64
	ticker   *time.Ticker
	done     chan struct{}
}

// DefaultTickInterval matches the original client's preview timer.
const DefaultTickInterval = 100 * time.Millisecond

func NewSimulatedClock(interval time.Duration) *SimulatedClock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &SimulatedClock{interval: interval}
}

func (c *SimulatedClock) Start(tick func(pos float64)) {
	c.mu.Lock()
	if c.ticker != nil {
		c.mu.Unlock()
		return
	}
	c.ticker = time.NewTicker(c.interval)
	c.done = make(chan struct{})
	ticker, done := c.ticker, c.done
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				c.pos += c.interval.Seconds()
				pos := c.pos
				c.mu.Unlock()
				tick(pos)
			}
		}
	}()
}

func (c *SimulatedClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.ticker = nil
	c.done = nil
}

func (c *SimulatedClock) Seek(pos float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
}

func (c *SimulatedClock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// MediaClock is driven by an external media element: the transport glue calls
// Advance with each timeupdate position. It emits nothing on its own.
type MediaClock struct {
	mu      sync.Mutex
	pos     float64
	tick    func(pos float64)
	running bool
}

func NewMediaClock() *MediaClock {
	return &MediaClock{}
}

func (c *MediaClock) Start(tick func(pos float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.tick = tick
	c.running = true
}

func (c *MediaClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.tick = nil
}

func (c *MediaClock) Seek(pos float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
}

func (c *MediaClock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Advance reports a new media position, forwarding it to the player while
// the clock is running. Positions arriving after Stop are dropped, which is
// what prevents a stale audio element from mutating a switched lesson.
func (c *MediaClock) Advance(pos float64) {
	c.mu.Lock()
	c.pos = pos
	tick := c.tick
	running := c.running
	c.mu.Unlock()
	if running && tick != nil {
		tick(pos)
	}
}
