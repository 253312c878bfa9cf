package editor

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-editor/internal/selection"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func newEditor(t *testing.T, opts Options) *Editor {
	t.Helper()
	e, err := New(timeline.NewProject("proj"), nil, opts)
	require.NoError(t, err)
	return e
}

func caption(t *testing.T, id string, start, end float64) timeline.Element {
	t.Helper()
	el, err := timeline.NewCaption(id, start, end, "text "+id, "")
	require.NoError(t, err)
	return el
}

func video(t *testing.T, id string, start, end float64) timeline.Element {
	t.Helper()
	el, err := timeline.NewVideo(id, start, end, timeline.MediaPayload{Src: id + ".mp4"})
	require.NoError(t, err)
	return el
}

func TestAddTrack_BumpsVersionAndHistory(t *testing.T) {
	e := newEditor(t, Options{})

	tr, err := e.AddTrack("Dialogue", timeline.TrackCaption)
	require.NoError(t, err)

	assert.Equal(t, 1, e.Version())
	assert.Equal(t, "Dialogue", tr.Name)
	require.Len(t, e.TimelineData(), 1)
	assert.True(t, e.CanUndo())
	assert.False(t, e.CanRedo())
}

func TestAddTrack_GeneratedName(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddTrack("", timeline.TrackVideo)
	require.NoError(t, err)
	tr, err := e.AddTrack("", timeline.TrackVideo)
	require.NoError(t, err)
	assert.Equal(t, "Video 2", tr.Name)
}

func TestAddTrack_InvalidType(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddTrack("x", timeline.TrackType("midi"))
	assert.ErrorIs(t, err, timeline.ErrInvalidTrackType)
	assert.Equal(t, 0, e.Version())
}

func TestAddElementToTrack_NoSelectionCreatesTrackEachTime(t *testing.T) {
	e := newEditor(t, Options{})

	first, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	second, err := e.AddElementToTrack(nil, caption(t, "b", 0, 1))
	require.NoError(t, err)

	require.Len(t, e.TimelineData(), 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, timeline.TrackCaption, first.Type)
	assert.Equal(t, 2, e.Version(), "one version per command, including the auto-created track")
	assert.True(t, e.Selection().Current().IsNone())
}

func TestAddElementToTrack_UsesSelectedTrack(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddTrack("V", timeline.TrackVideo)
	require.NoError(t, err)
	e.Selection().SelectTrack(tr.ID)

	got, err := e.AddElementToTrack(nil, video(t, "v1", 0, 5))
	require.NoError(t, err)

	assert.Equal(t, tr.ID, got.ID)
	require.Len(t, e.TimelineData(), 1)
	assert.Len(t, e.TimelineData()[0].Elements, 1)
}

func TestAddElementToTrack_ExplicitTrack(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddTrack("V", timeline.TrackVideo)
	require.NoError(t, err)

	got, err := e.AddElementToTrack(&tr, video(t, "v1", 0, 5))
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)
	assert.Len(t, got.Elements, 1)
}

func TestAddElementToTrack_StaleTrack(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddTrack("V", timeline.TrackVideo)
	require.NoError(t, err)
	require.NoError(t, e.RemoveTrack(tr.ID))
	version := e.Version()

	_, err = e.AddElementToTrack(&tr, video(t, "v1", 0, 5))
	assert.ErrorIs(t, err, timeline.ErrStaleReference)
	assert.Equal(t, version, e.Version())
	assert.Empty(t, e.TimelineData())
}

func TestAddElementToTrack_DuplicateIDLeavesProjectUntouched(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	before := e.Project()

	_, err = e.AddElementToTrack(nil, caption(t, "a", 5, 6))
	assert.ErrorIs(t, err, timeline.ErrDuplicateID)
	assert.True(t, reflect.DeepEqual(before, e.Project()), "failed command must not add the auto-created track")
}

func TestOverlapPolicy(t *testing.T) {
	e := newEditor(t, Options{})
	captions, err := e.AddTrack("C", timeline.TrackCaption)
	require.NoError(t, err)
	videos, err := e.AddTrack("V", timeline.TrackVideo)
	require.NoError(t, err)

	_, err = e.AddElementToTrack(&captions, caption(t, "c1", 0, 2))
	require.NoError(t, err)
	_, err = e.AddElementToTrack(&captions, caption(t, "c2", 1, 3))
	assert.ErrorIs(t, err, timeline.ErrOverlap)

	_, err = e.AddElementToTrack(&videos, video(t, "v1", 0, 2))
	require.NoError(t, err)
	_, err = e.AddElementToTrack(&videos, video(t, "v2", 1, 3))
	assert.NoError(t, err, "video tracks allow stacking")

	permissive := newEditor(t, Options{NoOverlap: []timeline.TrackType{}})
	tr, err := permissive.AddTrack("C", timeline.TrackCaption)
	require.NoError(t, err)
	_, err = permissive.AddElementToTrack(&tr, caption(t, "c1", 0, 2))
	require.NoError(t, err)
	_, err = permissive.AddElementToTrack(&tr, caption(t, "c2", 1, 3))
	assert.NoError(t, err)
}

func TestUpdateElement(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)

	updated := caption(t, "a", 2, 4)
	require.NoError(t, updated.SetCaptionText("edited"))
	require.NoError(t, e.UpdateElement(updated))

	got, ok := e.Project().Element("a")
	require.True(t, ok)
	assert.Equal(t, "edited", got.Cue.Text)
	assert.Equal(t, 4.0, got.End)
	assert.Equal(t, 2, e.Version())
}

func TestUpdateElement_NotFoundLeavesStateIdentical(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	before := e.Project()
	data := e.TimelineData()

	err = e.UpdateElement(caption(t, "ghost", 0, 1))
	assert.ErrorIs(t, err, timeline.ErrNotFound)
	assert.Equal(t, before.Version, e.Version())
	assert.True(t, reflect.DeepEqual(before, e.Project()))
	assert.Equal(t, reflect.ValueOf(data).Pointer(), reflect.ValueOf(e.TimelineData()).Pointer())
}

func TestUpdateElement_InvalidRange(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)

	bad, _ := e.Project().Element("a")
	bad.End = bad.Start
	assert.ErrorIs(t, e.UpdateElement(bad), timeline.ErrInvalidRange)
	assert.Equal(t, 1, e.Version())
}

func TestUpdateElement_InvalidRangeReportedBeforeOverlap(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	_, err = e.AddElementToTrack(&tr, caption(t, "b", 2, 3))
	require.NoError(t, err)

	bad, _ := e.Project().Element("a")
	bad.Start, bad.End = 2.5, 2.2
	err = e.UpdateElement(bad)
	assert.ErrorIs(t, err, timeline.ErrInvalidRange)
	assert.NotErrorIs(t, err, timeline.ErrOverlap)
	assert.Equal(t, 2, e.Version())
}

func TestMoveElement(t *testing.T) {
	e := newEditor(t, Options{})
	a, err := e.AddTrack("A", timeline.TrackVideo)
	require.NoError(t, err)
	b, err := e.AddTrack("B", timeline.TrackVideo)
	require.NoError(t, err)
	_, err = e.AddElementToTrack(&a, video(t, "v", 1, 3))
	require.NoError(t, err)

	require.NoError(t, e.MoveElement("v", b.ID, 10))

	p := e.Project()
	assert.Empty(t, p.Tracks[0].Elements)
	require.Len(t, p.Tracks[1].Elements, 1)
	assert.Equal(t, 10.0, p.Tracks[1].Elements[0].Start)
	assert.Equal(t, 12.0, p.Tracks[1].Elements[0].End)

	assert.ErrorIs(t, e.MoveElement("v", "nope", 0), timeline.ErrNotFound)
	assert.ErrorIs(t, e.MoveElement("v", "", -1), timeline.ErrInvalidRange)
}

func TestRemoveElement_ClearsSelection(t *testing.T) {
	var e *Editor
	var editSaw []selection.Selection
	e = newEditor(t, Options{Callbacks: Callbacks{OnEdit: func(timeline.Project) {
		editSaw = append(editSaw, e.Selection().Current())
	}}})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)

	var seen []selection.Selection
	e.Selection().Subscribe(func(s selection.Selection) { seen = append(seen, s) })
	e.Selection().SelectElement("a")

	require.NoError(t, e.RemoveElement("a"))
	assert.True(t, e.Selection().Current().IsNone())
	assert.Equal(t, []selection.Selection{selection.Element("a"), selection.None}, seen)
	require.Len(t, editSaw, 2)
	assert.True(t, editSaw[1].IsNone(), "selection is cleared before the edit callback runs")

	assert.ErrorIs(t, e.RemoveElement("a"), timeline.ErrNotFound)
}

func TestRemoveTrack_ClearsSelectionBeforeEditCallback(t *testing.T) {
	var e *Editor
	var editSaw []selection.Selection
	e = newEditor(t, Options{Callbacks: Callbacks{OnEdit: func(timeline.Project) {
		editSaw = append(editSaw, e.Selection().Current())
	}}})
	tr, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)

	e.Selection().SelectElement("a")
	require.NoError(t, e.RemoveTrack(tr.ID))
	require.Len(t, editSaw, 2)
	assert.True(t, editSaw[1].IsNone())

	other, err := e.AddTrack("Other", timeline.TrackGeneric)
	require.NoError(t, err)
	e.Selection().SelectTrack(other.ID)
	require.NoError(t, e.RemoveTrack(other.ID))
	require.Len(t, editSaw, 4)
	assert.True(t, editSaw[3].IsNone())
}

func TestReplace_ClearsVanishedSelectionBeforeEditCallback(t *testing.T) {
	var e *Editor
	var editSaw []selection.Selection
	e = newEditor(t, Options{Callbacks: Callbacks{OnEdit: func(timeline.Project) {
		editSaw = append(editSaw, e.Selection().Current())
	}}})
	_, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	e.Selection().SelectElement("a")

	empty := e.Project()
	empty.Tracks = nil
	require.NoError(t, e.Replace(empty))
	require.Len(t, editSaw, 2)
	assert.True(t, editSaw[1].IsNone())
}

func TestRemoveTrack_ClearsSelectionOfContainedElement(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddElementToTrack(nil, caption(t, "a", 0, 1))
	require.NoError(t, err)
	other, err := e.AddTrack("Other", timeline.TrackGeneric)
	require.NoError(t, err)

	e.Selection().SelectTrack(other.ID)
	require.NoError(t, e.RemoveTrack(tr.ID))
	assert.Equal(t, selection.Track(other.ID), e.Selection().Current(), "unrelated selection survives")

	tr2, err := e.AddElementToTrack(&other, caption(t, "b", 0, 1))
	require.NoError(t, err)
	e.Selection().SelectElement("b")
	require.NoError(t, e.RemoveTrack(tr2.ID))
	assert.True(t, e.Selection().Current().IsNone())

	assert.ErrorIs(t, e.RemoveTrack("missing"), timeline.ErrNotFound)
}

func TestMoveTrack_FiresReorder(t *testing.T) {
	var reordered []string
	e := newEditor(t, Options{Callbacks: Callbacks{OnReorder: func(ids []string) { reordered = ids }}})
	a, _ := e.AddTrack("A", timeline.TrackGeneric)
	b, _ := e.AddTrack("B", timeline.TrackGeneric)
	version := e.Version()

	require.NoError(t, e.MoveTrack(a.ID, 0))
	assert.Equal(t, version, e.Version(), "same position is a no-op")
	assert.Nil(t, reordered)

	require.NoError(t, e.MoveTrack(a.ID, 1))
	assert.Equal(t, []string{b.ID, a.ID}, reordered)
	assert.Equal(t, version+1, e.Version())
}

func TestTimelineData_ReferenceStability(t *testing.T) {
	e := newEditor(t, Options{})
	_, err := e.AddTrack("A", timeline.TrackGeneric)
	require.NoError(t, err)

	first := e.TimelineData()
	again := e.TimelineData()
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(again).Pointer())

	_, err = e.AddTrack("B", timeline.TrackGeneric)
	require.NoError(t, err)
	changed := e.TimelineData()
	assert.Len(t, changed, 2)
	assert.Len(t, first, 1, "earlier result is not mutated")
}

func TestUndoRedo_RestoresExactState(t *testing.T) {
	e := newEditor(t, Options{})
	original := e.Project()

	tr, err := e.AddTrack("C", timeline.TrackCaption)
	require.NoError(t, err)
	_, err = e.AddElementToTrack(&tr, caption(t, "a", 0, 1))
	require.NoError(t, err)
	require.NoError(t, e.UpdateElement(caption(t, "a", 1, 2)))
	_, err = e.AddElementToTrack(nil, video(t, "v", 0, 4))
	require.NoError(t, err)
	require.NoError(t, e.SetChapters([]timeline.Chapter{{Title: "Intro", Start: 0, End: 2}}))
	require.NoError(t, e.RemoveElement("a"))

	const n = 6
	final := e.Project()
	require.Equal(t, n, final.Version)

	for i := 0; i < n; i++ {
		require.True(t, e.Undo())
	}
	assert.False(t, e.Undo(), "undo underflow is a no-op")
	assert.True(t, reflect.DeepEqual(original, e.Project()))
	assert.Equal(t, 0, e.Version())

	for i := 0; i < n; i++ {
		require.True(t, e.Redo())
	}
	assert.False(t, e.Redo(), "redo underflow is a no-op")
	assert.True(t, reflect.DeepEqual(final, e.Project()))
	assert.Equal(t, n, e.Version())
}

func TestUndo_NewCommandClearsRedo(t *testing.T) {
	e := newEditor(t, Options{})
	_, _ = e.AddTrack("A", timeline.TrackGeneric)
	require.True(t, e.Undo())
	require.True(t, e.CanRedo())

	_, _ = e.AddTrack("B", timeline.TrackGeneric)
	assert.False(t, e.CanRedo())
}

func TestUndo_ClearsSelectionOfVanishedEntity(t *testing.T) {
	e := newEditor(t, Options{})
	tr, err := e.AddTrack("A", timeline.TrackGeneric)
	require.NoError(t, err)
	e.Selection().SelectTrack(tr.ID)

	require.True(t, e.Undo())
	assert.True(t, e.Selection().Current().IsNone())
}

func TestRevision_NeverRepeats(t *testing.T) {
	e := newEditor(t, Options{})
	_, _ = e.AddTrack("A", timeline.TrackGeneric)
	r1 := e.Revision()
	require.True(t, e.Undo())
	_, _ = e.AddTrack("B", timeline.TrackGeneric)

	assert.Equal(t, 1, e.Version(), "version follows the restored snapshot")
	assert.Greater(t, e.Revision(), r1)
}

func TestHistoryLimit(t *testing.T) {
	e := newEditor(t, Options{HistoryLimit: 2})
	for i := 0; i < 5; i++ {
		_, err := e.AddTrack("", timeline.TrackGeneric)
		require.NoError(t, err)
	}
	undo, redo := e.HistorySize()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)

	require.True(t, e.Undo())
	require.True(t, e.Undo())
	assert.False(t, e.Undo())
	assert.Equal(t, 3, e.Version())
}

func TestOnEditCallback(t *testing.T) {
	var versions []int
	e := newEditor(t, Options{Callbacks: Callbacks{OnEdit: func(p timeline.Project) { versions = append(versions, p.Version) }}})

	_, _ = e.AddTrack("A", timeline.TrackGeneric)
	_ = e.UpdateElement(caption(t, "missing", 0, 1))
	e.Undo()

	assert.Equal(t, []int{1, 0}, versions)
}

func TestSetMetadata(t *testing.T) {
	e := newEditor(t, Options{})
	require.NoError(t, e.SetMetadata("title", "Demo"))
	assert.Equal(t, "Demo", e.Project().Metadata["title"])
	assert.Error(t, e.SetMetadata("", "x"))
	assert.Error(t, e.SetMetadata(timeline.MetadataChapters, "x"))

	require.NoError(t, e.SetMetadata("title", nil))
	_, ok := e.Project().Metadata["title"]
	assert.False(t, ok)
}

func TestNew_RejectsInvalidProject(t *testing.T) {
	bad := timeline.Project{Tracks: []timeline.Track{{ID: "t", Type: "bogus"}}}
	_, err := New(bad, nil, Options{})
	assert.ErrorIs(t, err, timeline.ErrInvalidTrackType)
}
