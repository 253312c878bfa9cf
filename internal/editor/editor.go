// Package editor applies editing commands to a timeline project and keeps
// its undo/redo history. An Editor is owned by one session and is not safe
// for concurrent use; callers serialize commands.
package editor

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heimdex/heimdex-editor/internal/selection"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// DefaultNoOverlap lists the track types whose elements may not overlap
// unless Options says otherwise.
var DefaultNoOverlap = []timeline.TrackType{timeline.TrackCaption}

// Callbacks are presentation hooks invoked after a command has been applied.
type Callbacks struct {
	OnEdit    func(p timeline.Project)
	OnReorder func(trackIDs []string)
}

type Options struct {
	HistoryLimit int
	// NoOverlap lists track types that reject overlapping elements. A nil
	// slice means DefaultNoOverlap; an empty non-nil slice allows overlap
	// everywhere.
	NoOverlap []timeline.TrackType
	Callbacks Callbacks
	Logger    *slog.Logger
}

type Editor struct {
	project   timeline.Project
	history   *history
	selection *selection.Manager
	noOverlap map[timeline.TrackType]bool
	revision  uint64
	callbacks Callbacks
	logger    *slog.Logger
}

// New returns an editor over p. A nil selection manager gets a fresh one.
func New(p timeline.Project, sel *selection.Manager, opts Options) (*Editor, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	if sel == nil {
		sel = selection.NewManager()
	}
	noOverlap := opts.NoOverlap
	if noOverlap == nil {
		noOverlap = DefaultNoOverlap
	}
	e := &Editor{
		project:   p,
		history:   newHistory(opts.HistoryLimit),
		selection: sel,
		noOverlap: make(map[timeline.TrackType]bool, len(noOverlap)),
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
	}
	for _, t := range noOverlap {
		e.noOverlap[t] = true
	}
	return e, nil
}

func (e *Editor) Project() timeline.Project {
	return e.project
}

func (e *Editor) Selection() *selection.Manager {
	return e.selection
}

// TimelineData returns the current tracks. The returned slice is the same
// one until the content changes and must not be modified.
func (e *Editor) TimelineData() []timeline.Track {
	return e.project.Tracks
}

func (e *Editor) Version() int {
	return e.project.Version
}

// Revision counts every state change, including undo and redo. Unlike
// Version it never repeats, so it is a safe memoization key.
func (e *Editor) Revision() uint64 {
	return e.revision
}

func (e *Editor) CanUndo() bool {
	n, _ := e.history.sizes()
	return n > 0
}

func (e *Editor) CanRedo() bool {
	_, n := e.history.sizes()
	return n > 0
}

func (e *Editor) HistorySize() (undo, redo int) {
	return e.history.sizes()
}

// commit makes next the current project: the previous value goes onto the
// undo stack and the version advances by one.
func (e *Editor) commit(op string, next timeline.Project) {
	e.apply(op, next)
	e.notifyEdit()
}

// apply installs next without running callbacks, so a command can finish
// its own bookkeeping (such as clearing a stale selection) first.
func (e *Editor) apply(op string, next timeline.Project) {
	e.history.push(e.project)
	next.Version = e.project.Version + 1
	e.project = next
	e.revision++
	if e.logger != nil {
		e.logger.Debug("timeline command applied", "op", op, "project_id", next.ID, "version", next.Version)
	}
}

func (e *Editor) notifyEdit() {
	if e.callbacks.OnEdit != nil {
		e.callbacks.OnEdit(e.project)
	}
}

// AddTrack appends a new track. An empty name gets a generated one.
func (e *Editor) AddTrack(name string, typ timeline.TrackType) (timeline.Track, error) {
	if name == "" {
		name = e.autoTrackName(typ)
	}
	t, err := timeline.NewTrack(name, typ)
	if err != nil {
		return timeline.Track{}, err
	}
	e.commit("add_track", e.project.AddTrack(t))
	return t, nil
}

// AddElementToTrack inserts el. With a nil track the element goes to the
// selected track, or to a newly created track when no track is selected.
// A non-nil track must still exist in the current project.
func (e *Editor) AddElementToTrack(track *timeline.Track, el timeline.Element) (timeline.Track, error) {
	if err := el.Validate(); err != nil {
		return timeline.Track{}, err
	}

	next := e.project
	var targetID string
	switch {
	case track != nil:
		if next.TrackIndex(track.ID) < 0 {
			return timeline.Track{}, fmt.Errorf("track %s: %w", track.ID, timeline.ErrStaleReference)
		}
		targetID = track.ID
	default:
		if sel := e.selection.Current(); sel.Kind == selection.KindTrack && next.TrackIndex(sel.ID) >= 0 {
			targetID = sel.ID
		}
	}

	if targetID == "" {
		typ := timeline.TrackTypeFor(el.Kind)
		created, err := timeline.NewTrack(e.autoTrackName(typ), typ)
		if err != nil {
			return timeline.Track{}, err
		}
		next = next.AddTrack(created)
		targetID = created.ID
	}

	if err := e.checkOverlap(next, targetID, el); err != nil {
		return timeline.Track{}, err
	}
	next, err := next.AddElement(targetID, el)
	if err != nil {
		return timeline.Track{}, err
	}

	e.commit("add_element", next)
	t, _ := next.Track(targetID)
	return t, nil
}

// UpdateElement replaces the stored element that has el's id.
func (e *Editor) UpdateElement(el timeline.Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	ti, _, ok := e.project.FindElement(el.ID)
	if !ok {
		return fmt.Errorf("element %s: %w", el.ID, timeline.ErrNotFound)
	}
	if err := e.checkOverlap(e.project, e.project.Tracks[ti].ID, el); err != nil {
		return err
	}
	next, err := e.project.ReplaceElement(el)
	if err != nil {
		return err
	}
	e.commit("update_element", next)
	return nil
}

// MoveElement moves an element to start on the track toTrackID, keeping its
// duration. An empty toTrackID keeps the current track.
func (e *Editor) MoveElement(id, toTrackID string, start float64) error {
	ti, ei, ok := e.project.FindElement(id)
	if !ok {
		return fmt.Errorf("element %s: %w", id, timeline.ErrNotFound)
	}
	from := e.project.Tracks[ti]
	if toTrackID == "" {
		toTrackID = from.ID
	}
	if e.project.TrackIndex(toTrackID) < 0 {
		return fmt.Errorf("track %s: %w", toTrackID, timeline.ErrNotFound)
	}

	moved := from.Elements[ei].Retimed(start)
	if err := moved.Validate(); err != nil {
		return err
	}
	next, _ := e.project.RemoveElement(from.ID, id)
	if err := e.checkOverlap(next, toTrackID, moved); err != nil {
		return err
	}
	next, err := next.AddElement(toTrackID, moved)
	if err != nil {
		return err
	}
	e.commit("move_element", next)
	return nil
}

// RemoveElement deletes an element and clears the selection if it pointed
// at it.
func (e *Editor) RemoveElement(id string) error {
	ti, _, ok := e.project.FindElement(id)
	if !ok {
		return fmt.Errorf("element %s: %w", id, timeline.ErrNotFound)
	}
	next, _ := e.project.RemoveElement(e.project.Tracks[ti].ID, id)
	e.apply("remove_element", next)
	e.selection.ClearIf(func(s selection.Selection) bool {
		return s.Kind == selection.KindElement && s.ID == id
	})
	e.notifyEdit()
	return nil
}

// RemoveTrack deletes a track with its elements and clears a selection that
// pointed at either.
func (e *Editor) RemoveTrack(id string) error {
	removed, ok := e.project.Track(id)
	if !ok {
		return fmt.Errorf("track %s: %w", id, timeline.ErrNotFound)
	}
	next, _ := e.project.RemoveTrack(id)
	e.apply("remove_track", next)
	e.selection.ClearIf(func(s selection.Selection) bool {
		switch s.Kind {
		case selection.KindTrack:
			return s.ID == id
		case selection.KindElement:
			return removed.IndexOf(s.ID) >= 0
		}
		return false
	})
	e.notifyEdit()
	return nil
}

// MoveTrack reorders a track. Moving a track onto its own position is a
// no-op and does not create a history entry.
func (e *Editor) MoveTrack(id string, index int) error {
	from := e.project.TrackIndex(id)
	if from < 0 {
		return fmt.Errorf("track %s: %w", id, timeline.ErrNotFound)
	}
	next, err := e.project.MoveTrack(id, index)
	if err != nil {
		return err
	}
	if next.TrackIndex(id) == from {
		return nil
	}
	e.commit("move_track", next)
	if e.callbacks.OnReorder != nil {
		e.callbacks.OnReorder(next.TrackIDs())
	}
	return nil
}

// SetMetadata sets a metadata key; a nil value removes it.
func (e *Editor) SetMetadata(key string, value any) error {
	if key == "" {
		return fmt.Errorf("metadata key is required")
	}
	if key == timeline.MetadataChapters {
		return fmt.Errorf("use SetChapters for %q", key)
	}
	e.commit("set_metadata", e.project.WithMetadata(key, value))
	return nil
}

func (e *Editor) SetChapters(chapters []timeline.Chapter) error {
	next, err := e.project.WithChapters(chapters)
	if err != nil {
		return err
	}
	e.commit("set_chapters", next)
	return nil
}

// Replace swaps in a whole project, e.g. a restored snapshot, as one
// undoable command. The project id is kept.
func (e *Editor) Replace(p timeline.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	p.ID = e.project.ID
	e.apply("replace", p)
	e.clearVanishedSelection(e.project)
	e.notifyEdit()
	return nil
}

// Undo restores the state before the last command. It reports false, and
// does nothing, when there is nothing to undo.
func (e *Editor) Undo() bool {
	prev, ok := e.history.stepBack(e.project)
	if !ok {
		return false
	}
	e.restore("undo", prev)
	return true
}

// Redo re-applies the last undone state.
func (e *Editor) Redo() bool {
	next, ok := e.history.stepForward(e.project)
	if !ok {
		return false
	}
	e.restore("redo", next)
	return true
}

func (e *Editor) restore(op string, p timeline.Project) {
	e.project = p
	e.revision++
	e.clearVanishedSelection(p)
	if e.logger != nil {
		e.logger.Debug("timeline history step", "op", op, "project_id", p.ID, "version", p.Version)
	}
	if e.callbacks.OnEdit != nil {
		e.callbacks.OnEdit(p)
	}
}

func (e *Editor) clearVanishedSelection(p timeline.Project) {
	e.selection.ClearIf(func(s selection.Selection) bool {
		switch s.Kind {
		case selection.KindTrack:
			return p.TrackIndex(s.ID) < 0
		case selection.KindElement:
			_, _, ok := p.FindElement(s.ID)
			return !ok
		}
		return false
	})
}

func (e *Editor) checkOverlap(p timeline.Project, trackID string, el timeline.Element) error {
	t, ok := p.Track(trackID)
	if !ok || !e.noOverlap[t.Type] {
		return nil
	}
	if other, clash := t.Overlapping(el); clash {
		return fmt.Errorf("element %s overlaps %s on %s track %s: %w", el.ID, other.ID, t.Type, t.ID, timeline.ErrOverlap)
	}
	return nil
}

func (e *Editor) autoTrackName(typ timeline.TrackType) string {
	n := 1
	for _, t := range e.project.Tracks {
		if t.Type == typ {
			n++
		}
	}
	return fmt.Sprintf("%s %d", cases.Title(language.Und).String(string(typ)), n)
}
