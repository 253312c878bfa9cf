// Package session owns the live editing state of one open project: the
// editor with its history, the selection, and the playback clock. A
// Session serializes every call with its own mutex, so hosts with several
// goroutines (HTTP handlers, websocket readers, the tray) can share it.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/selection"
	"github.com/heimdex/heimdex-editor/internal/snap"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// Event types published for every open session.
const (
	EventEdit      = "edit"
	EventReorder   = "reorder"
	EventSelection = "selection"
	EventSeek      = "seek"
	EventPlayback  = "playback"
	EventSaved     = "saved"
)

// DefaultSnapThreshold is the snap distance in seconds.
const DefaultSnapThreshold = 0.1

// Publisher receives session events. Publish is called while the session
// lock is held and must not call back into the session.
type Publisher interface {
	Publish(projectID, event string, payload any)
}

type Options struct {
	Editor        editor.Options
	SnapThreshold float64
	Publisher     Publisher
	Logger        *slog.Logger
}

type EditPayload struct {
	Version  int     `json:"version"`
	Revision uint64  `json:"revision"`
	Duration float64 `json:"duration"`
}

type ReorderPayload struct {
	TrackIDs []string `json:"trackIds"`
}

type SeekPayload struct {
	Time float64 `json:"time"`
}

// PlaybackStatus is a point-in-time view of the playback clock.
type PlaybackStatus struct {
	State       playback.State  `json:"state"`
	CurrentTime float64         `json:"currentTime"`
	Affordance  playback.Action `json:"affordance"`
	PendingSeek *float64        `json:"pendingSeek,omitempty"`
}

type Session struct {
	mu sync.Mutex

	id            string
	name          string
	editor        *editor.Editor
	selection     *selection.Manager
	clock         *playback.Clock
	sync          *playback.Synchronizer
	snapThreshold float64
	savedRevision uint64
	publisher     Publisher
	logger        *slog.Logger
}

// New wires an editor, a selection manager and a playback clock around p.
func New(name string, p timeline.Project, opts Options) (*Session, error) {
	s := &Session{
		id:            p.ID,
		name:          name,
		selection:     selection.NewManager(),
		clock:         playback.NewClock(),
		snapThreshold: opts.SnapThreshold,
		publisher:     opts.Publisher,
		logger:        opts.Logger,
	}
	if s.snapThreshold <= 0 {
		s.snapThreshold = DefaultSnapThreshold
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("project_id", p.ID)

	edOpts := opts.Editor
	edOpts.Logger = s.logger
	edOpts.Callbacks = editor.Callbacks{
		OnEdit: func(p timeline.Project) {
			s.publish(EventEdit, EditPayload{Version: p.Version, Revision: s.editor.Revision(), Duration: p.Duration()})
		},
		OnReorder: func(ids []string) {
			s.publish(EventReorder, ReorderPayload{TrackIDs: ids})
		},
	}
	ed, err := editor.New(p, s.selection, edOpts)
	if err != nil {
		return nil, err
	}
	s.editor = ed

	s.selection.Subscribe(func(sel selection.Selection) {
		s.publish(EventSelection, sel)
	})
	s.sync = playback.NewSynchronizer(s.clock, playback.SyncOptions{
		OnSeek: func(t float64) { s.publish(EventSeek, SeekPayload{Time: t}) },
		Logger: s.logger,
	})
	return s, nil
}

func (s *Session) publish(event string, payload any) {
	if s.publisher != nil {
		s.publisher.Publish(s.id, event, payload)
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Edit runs fn against the editor under the session lock. Callbacks fire
// before Edit returns.
func (s *Session) Edit(fn func(ed *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// Project returns the current project value. It is immutable and stays
// valid after further edits.
func (s *Session) Project() timeline.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Project()
}

func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Revision()
}

// Dirty reports whether the project changed since the last MarkSaved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Revision() != s.savedRevision
}

// Snapshot returns the project together with its revision, for saving.
func (s *Session) Snapshot() (timeline.Project, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Project(), s.editor.Revision()
}

// MarkSaved records that revision has been persisted.
func (s *Session) MarkSaved(revision uint64, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if revision > s.savedRevision {
		s.savedRevision = revision
	}
	s.publish(EventSaved, EditPayload{Version: version, Revision: revision})
}

// History reports the undo and redo depth.
func (s *Session) History() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.HistorySize()
}

func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Undo()
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Redo()
}

func (s *Session) Selection() selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Current()
}

// Select changes the selection. Tracks and elements must exist in the
// current project.
func (s *Session) Select(sel selection.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.editor.Project()
	switch sel.Kind {
	case selection.KindTrack:
		if p.TrackIndex(sel.ID) < 0 {
			return fmt.Errorf("track %s: %w", sel.ID, timeline.ErrNotFound)
		}
	case selection.KindElement:
		if _, ok := p.Element(sel.ID); !ok {
			return fmt.Errorf("element %s: %w", sel.ID, timeline.ErrNotFound)
		}
	}
	s.selection.Select(sel)
	return nil
}

// SnapTargets returns the snap candidates for a drag of excludeID.
func (s *Session) SnapTargets(excludeID string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.editor.Project()
	return snap.Targets(p.Tracks, s.sync.CurrentTime(), p.Duration(), excludeID)
}

// SnapResult is a snap decision together with the targets it was made
// against. Time is the input when nothing was hit.
type SnapResult struct {
	Time    float64
	Snapped bool
	Targets []float64
}

// SnapAt snaps t using one view of the project, so the returned targets
// always belong to the same revision as the snapped time.
func (s *Session) SnapAt(t float64, excludeID string) SnapResult {
	targets := s.SnapTargets(excludeID)
	res := SnapResult{Time: t, Targets: targets}
	if hit, ok := snap.Nearest(targets, t, s.snapThreshold); ok {
		res.Time, res.Snapped = hit, true
	}
	return res
}

// Snap aligns t to the nearest target within the session's threshold.
func (s *Session) Snap(t float64, excludeID string) (float64, bool) {
	res := s.SnapAt(t, excludeID)
	return res.Time, res.Snapped
}

func (s *Session) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync.Seek(t)
}

func (s *Session) TogglePlaying() playback.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	action := s.sync.TogglePlaying()
	s.publish(EventPlayback, s.statusLocked())
	return action
}

// SetPlayerState is reported by the host when the media behind the clock
// starts or finishes loading, or fails.
func (s *Session) SetPlayerState(state playback.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.SetState(state)
	s.sync.PlayerStateChanged(state)
	s.publish(EventPlayback, s.statusLocked())
}

func (s *Session) Playback() PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.TimeUpdate()
	return s.statusLocked()
}

func (s *Session) statusLocked() PlaybackStatus {
	st := PlaybackStatus{
		State:       s.sync.PlayerState(),
		CurrentTime: s.sync.CurrentTime(),
		Affordance:  s.sync.Affordance(),
	}
	if pos, ok := s.sync.PendingSeek(); ok {
		st.PendingSeek = &pos
	}
	return st
}
