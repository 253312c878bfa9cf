package playback

import (
	"errors"
	"log/slog"
)

var ErrPlayerUnavailable = errors.New("player is in an error state")

// Action is the transport control the UI should offer, and what a toggle did.
type Action int

const (
	ActionPlay Action = iota
	ActionPause
	// ActionRefresh means no transition is possible right now.
	ActionRefresh
)

func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionPause:
		return "pause"
	default:
		return "refresh"
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type SyncOptions struct {
	// OnSeek runs after a seek has updated the timeline time.
	OnSeek func(seconds float64)
	Logger *slog.Logger
}

// Synchronizer keeps the timeline's current time in step with a Player.
//
// Seeks while the player is loading are queued: the timeline time moves at
// once and the last queued position is applied to the player when it
// reports a ready state through PlayerStateChanged. Seeks while the player
// is in the error state are rejected with ErrPlayerUnavailable.
type Synchronizer struct {
	player      Player
	currentTime float64
	pending     *float64
	onSeek      func(float64)
	logger      *slog.Logger
}

func NewSynchronizer(player Player, opts SyncOptions) *Synchronizer {
	return &Synchronizer{
		player:      player,
		currentTime: player.CurrentTime(),
		onSeek:      opts.OnSeek,
		logger:      opts.Logger,
	}
}

func (s *Synchronizer) CurrentTime() float64 {
	return s.currentTime
}

func (s *Synchronizer) PlayerState() State {
	return s.player.State()
}

// PendingSeek returns the position queued for a player that is not ready.
func (s *Synchronizer) PendingSeek() (float64, bool) {
	if s.pending == nil {
		return 0, false
	}
	return *s.pending, true
}

// Seek moves both the player and the timeline to seconds (clamped at 0).
// Both are updated before Seek returns unless the player is loading, in
// which case the player position is queued.
func (s *Synchronizer) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	state := s.player.State()
	switch {
	case state == StateError:
		return ErrPlayerUnavailable
	case state.Ready():
		s.player.Seek(seconds)
		s.pending = nil
	default:
		queued := seconds
		s.pending = &queued
		if s.logger != nil {
			s.logger.Debug("seek queued until player is ready", "time", seconds, "state", state.String())
		}
	}
	s.currentTime = seconds
	if s.onSeek != nil {
		s.onSeek(seconds)
	}
	return nil
}

// PlayerStateChanged must be called by the host when the player changes
// state. A queued seek is applied once the player is ready.
func (s *Synchronizer) PlayerStateChanged(state State) {
	if s.pending == nil || !state.Ready() {
		return
	}
	target := *s.pending
	s.pending = nil
	s.player.Seek(target)
	s.currentTime = target
	if s.logger != nil {
		s.logger.Debug("applied queued seek", "time", target, "state", state.String())
	}
}

// TimeUpdate pulls the player position into the timeline while playing.
func (s *Synchronizer) TimeUpdate() float64 {
	if s.player.State() == StatePlaying && s.pending == nil {
		s.currentTime = s.player.CurrentTime()
	}
	return s.currentTime
}

// Affordance is the control the UI should present for the current state.
func (s *Synchronizer) Affordance() Action {
	switch s.player.State() {
	case StatePlaying:
		return ActionPause
	case StatePaused, StateIdle:
		return ActionPlay
	default:
		return ActionRefresh
	}
}

// TogglePlaying switches between playing and paused and reports what it
// did. Loading and error states are left alone and report ActionRefresh.
func (s *Synchronizer) TogglePlaying() Action {
	switch s.player.State() {
	case StatePlaying:
		s.player.Pause()
		s.currentTime = s.player.CurrentTime()
		return ActionPause
	case StatePaused, StateIdle:
		s.player.Play()
		return ActionPlay
	default:
		return ActionRefresh
	}
}
