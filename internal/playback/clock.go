package playback

import (
	"sync"
	"time"
)

// Clock is the read-only view of a playback position.
type Clock interface {
	Position() float64
}

// MediaClock simulates a media element: a position that advances with wall
// time at Rate while playing. It implements the session's player port.
type MediaClock struct {
	mu sync.Mutex

	now      func() time.Time
	base     float64
	anchor   time.Time
	playing  bool
	rate     float64
	duration float64
}

type ClockOption func(*MediaClock)

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) ClockOption {
	return func(c *MediaClock) {
		c.now = now
	}
}

// WithRate sets the playback rate; non-positive values are ignored.
func WithRate(rate float64) ClockOption {
	return func(c *MediaClock) {
		if rate > 0 {
			c.rate = rate
		}
	}
}

// NewMediaClock creates a paused clock at zero. A duration of 0 means
// unbounded.
func NewMediaClock(duration float64, opts ...ClockOption) *MediaClock {
	c := &MediaClock{
		now:      time.Now,
		rate:     1,
		duration: max(duration, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.anchor = c.now()
	return c
}

// caller holds mu
func (c *MediaClock) position() float64 {
	pos := c.base
	if c.playing {
		pos += c.now().Sub(c.anchor).Seconds() * c.rate
	}
	return c.clamp(pos)
}

func (c *MediaClock) clamp(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if c.duration > 0 && pos > c.duration {
		return c.duration
	}
	return pos
}

func (c *MediaClock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *MediaClock) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.clamp(seconds)
	c.anchor = c.now()
}

func (c *MediaClock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.anchor = c.now()
	c.playing = true
}

func (c *MediaClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.position()
	c.playing = false
}

func (c *MediaClock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing && !c.ended()
}

// Ended reports whether a bounded clock reached its duration.
func (c *MediaClock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended()
}

func (c *MediaClock) ended() bool {
	return c.duration > 0 && c.position() >= c.duration
}

func (c *MediaClock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *MediaClock) SetDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.position()
	c.anchor = c.now()
	c.duration = max(seconds, 0)
	c.base = c.clamp(c.base)
}
