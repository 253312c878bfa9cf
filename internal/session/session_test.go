package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/selection"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

type recordedEvent struct {
	projectID string
	event     string
	payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(projectID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{projectID, event, payload})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event
	}
	return out
}

func newTestSession(t *testing.T) (*Session, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	s, err := New("demo", timeline.NewProject("p1"), Options{Publisher: pub})
	require.NoError(t, err)
	return s, pub
}

func addCaption(t *testing.T, s *Session, id string, start, end float64) {
	t.Helper()
	el, err := timeline.NewCaption(id, start, end, id, "")
	require.NoError(t, err)
	require.NoError(t, s.Edit(func(ed *editor.Editor) error {
		_, err := ed.AddElementToTrack(nil, el)
		return err
	}))
}

func TestSession_EditPublishesAndMarksDirty(t *testing.T) {
	s, pub := newTestSession(t)
	assert.False(t, s.Dirty())

	addCaption(t, s, "c1", 0, 1)

	assert.True(t, s.Dirty())
	assert.Equal(t, 1, s.Project().Version)
	require.Equal(t, []string{EventEdit}, pub.names())
	payload := pub.events[0].payload.(EditPayload)
	assert.Equal(t, 1, payload.Version)
	assert.Equal(t, 1.0, payload.Duration)
	assert.Equal(t, "p1", pub.events[0].projectID)

	p, rev := s.Snapshot()
	s.MarkSaved(rev, p.Version)
	assert.False(t, s.Dirty())

	assert.True(t, s.Undo())
	assert.True(t, s.Dirty(), "undo changes content after a save")
}

func TestSession_Select(t *testing.T) {
	s, pub := newTestSession(t)
	addCaption(t, s, "c1", 0, 1)

	err := s.Select(selection.Element("missing"))
	assert.ErrorIs(t, err, timeline.ErrNotFound)

	require.NoError(t, s.Select(selection.Element("c1")))
	assert.Equal(t, selection.Element("c1"), s.Selection())
	assert.Contains(t, pub.names(), EventSelection)

	require.NoError(t, s.Edit(func(ed *editor.Editor) error { return ed.RemoveElement("c1") }))
	assert.True(t, s.Selection().IsNone())
	names := pub.names()
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, []string{EventSelection, EventEdit}, names[len(names)-2:], "subscribers see the cleared selection before the edit")
}

func TestSession_Snap(t *testing.T) {
	s, _ := newTestSession(t)
	addCaption(t, s, "c1", 2, 4)
	addCaption(t, s, "c2", 5, 6)

	assert.Equal(t, []float64{0, 2, 4, 6}, s.SnapTargets("c2")[:4])

	got, ok := s.Snap(4.05, "c2")
	assert.True(t, ok)
	assert.Equal(t, 4.0, got)

	got, ok = s.Snap(3, "c2")
	assert.False(t, ok)
	assert.Equal(t, 3.0, got)
}

func TestSession_SnapAtUsesOneView(t *testing.T) {
	s, _ := newTestSession(t)
	addCaption(t, s, "c1", 2, 4)

	res := s.SnapAt(3.95, "")
	assert.True(t, res.Snapped)
	assert.Equal(t, 4.0, res.Time)
	assert.Contains(t, res.Targets, res.Time)

	res = s.SnapAt(3, "")
	assert.False(t, res.Snapped)
	assert.Equal(t, 3.0, res.Time)
	assert.NotContains(t, res.Targets, 3.0)
}

func TestSession_PlaybackSeekQueuedWhileLoading(t *testing.T) {
	s, pub := newTestSession(t)

	s.SetPlayerState(playback.StateLoading)
	require.NoError(t, s.Seek(8))

	st := s.Playback()
	assert.Equal(t, playback.StateLoading, st.State)
	assert.Equal(t, 8.0, st.CurrentTime)
	require.NotNil(t, st.PendingSeek)
	assert.Equal(t, playback.ActionRefresh, st.Affordance)

	s.SetPlayerState(playback.StatePaused)
	st = s.Playback()
	assert.Nil(t, st.PendingSeek)
	assert.Equal(t, playback.ActionPlay, st.Affordance)
	assert.Contains(t, pub.names(), EventSeek)

	s.SetPlayerState(playback.StateError)
	assert.ErrorIs(t, s.Seek(1), playback.ErrPlayerUnavailable)
}

func TestSession_TogglePlaying(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Equal(t, playback.ActionPlay, s.TogglePlaying())
	assert.Equal(t, playback.StatePlaying, s.Playback().State)
	assert.Equal(t, playback.ActionPause, s.TogglePlaying())
	assert.Equal(t, playback.StatePaused, s.Playback().State)
}

func TestSession_ReorderEvent(t *testing.T) {
	s, pub := newTestSession(t)
	var first, second timeline.Track
	require.NoError(t, s.Edit(func(ed *editor.Editor) error {
		var err error
		if first, err = ed.AddTrack("A", timeline.TrackVideo); err != nil {
			return err
		}
		second, err = ed.AddTrack("B", timeline.TrackVideo)
		return err
	}))

	require.NoError(t, s.Edit(func(ed *editor.Editor) error { return ed.MoveTrack(second.ID, 0) }))

	last := pub.events[len(pub.events)-1]
	require.Equal(t, EventReorder, last.event)
	assert.Equal(t, []string{second.ID, first.ID}, last.payload.(ReorderPayload).TrackIDs)
}
