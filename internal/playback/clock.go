package playback

import (
	"sync"
	"time"
)

// Clock is a Player driven by wall time. Sessions without a real media
// element use it as their playback clock.
type Clock struct {
	mu        sync.Mutex
	state     State
	position  float64
	startedAt time.Time
	now       func() time.Time
}

func NewClock() *Clock {
	return &Clock{state: StateIdle, now: time.Now}
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) positionLocked() float64 {
	if c.state == StatePlaying {
		return c.position + c.now().Sub(c.startedAt).Seconds()
	}
	return c.position
}

func (c *Clock) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = seconds
	c.startedAt = c.now()
}

func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePlaying {
		return
	}
	c.state = StatePlaying
	c.startedAt = c.now()
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return
	}
	c.position = c.positionLocked()
	c.state = StatePaused
}

// SetState forces a state, e.g. StateLoading while media is being attached.
func (c *Clock) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePlaying && s != StatePlaying {
		c.position = c.positionLocked()
	}
	if s == StatePlaying && c.state != StatePlaying {
		c.startedAt = c.now()
	}
	c.state = s
}
