package playback

import (
	"testing"
	"time"
)

func newTestClock() (*Clock, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestClock_AdvancesOnlyWhilePlaying(t *testing.T) {
	c, now := newTestClock()

	*now = now.Add(5 * time.Second)
	if got := c.CurrentTime(); got != 0 {
		t.Fatalf("idle CurrentTime() = %v, want 0", got)
	}

	c.Play()
	*now = now.Add(2 * time.Second)
	if got := c.CurrentTime(); got != 2 {
		t.Fatalf("playing CurrentTime() = %v, want 2", got)
	}

	c.Pause()
	*now = now.Add(10 * time.Second)
	if got := c.CurrentTime(); got != 2 {
		t.Errorf("paused CurrentTime() = %v, want 2", got)
	}
	if c.State() != StatePaused {
		t.Errorf("State() = %v, want paused", c.State())
	}
}

func TestClock_SeekWhilePlaying(t *testing.T) {
	c, now := newTestClock()
	c.Play()
	*now = now.Add(3 * time.Second)
	c.Seek(10)
	*now = now.Add(time.Second)

	if got := c.CurrentTime(); got != 11 {
		t.Errorf("CurrentTime() = %v, want 11", got)
	}
}

func TestClock_SetStateFreezesPosition(t *testing.T) {
	c, now := newTestClock()
	c.Play()
	*now = now.Add(4 * time.Second)
	c.SetState(StateLoading)
	*now = now.Add(4 * time.Second)

	if got := c.CurrentTime(); got != 4 {
		t.Errorf("CurrentTime() = %v, want 4", got)
	}
}

func TestParseState(t *testing.T) {
	for _, st := range []State{StateIdle, StateLoading, StatePlaying, StatePaused, StateError} {
		got, err := ParseState(st.String())
		if err != nil || got != st {
			t.Errorf("ParseState(%q) = %v, %v", st.String(), got, err)
		}
	}
	if _, err := ParseState("buffering"); err == nil {
		t.Error("ParseState(buffering) succeeded")
	}
}
