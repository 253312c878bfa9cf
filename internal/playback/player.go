package playback

import "fmt"

// State is the lifecycle state reported by a Player.
type State int

const (
	StateIdle State = iota
	// StateLoading is transitional: the player cannot take a position yet.
	StateLoading
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Ready reports whether a seek can be applied to the player immediately.
func (s State) Ready() bool {
	switch s {
	case StateIdle, StatePlaying, StatePaused:
		return true
	}
	return false
}

// Player is the external playback clock the timeline follows.
type Player interface {
	State() State
	CurrentTime() float64
	Seek(seconds float64)
	Play()
	Pause()
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for st := StateIdle; st <= StateError; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown player state %q", s)
}
