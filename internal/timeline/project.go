package timeline

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// MetadataChapters is the metadata key chapters are stored under.
const MetadataChapters = "chapters"

// Project is the editable document. Values are treated as immutable: every
// method that changes content returns a new Project and leaves the slices
// and maps of the receiver untouched, so older values stay valid snapshots.
// Tracks that a change does not touch keep sharing their element slices.
type Project struct {
	ID       string
	Version  int
	Tracks   []Track
	Metadata map[string]any
}

type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func NewProject(id string) Project {
	if id == "" {
		id = uuid.NewString()
	}
	return Project{ID: id}
}

// Duration is the latest element end across all tracks, or 0.
func (p Project) Duration() float64 {
	var d float64
	for _, t := range p.Tracks {
		if end := t.End(); end > d {
			d = end
		}
	}
	return d
}

// Clone returns a deep copy that shares no slices or maps with p. Metadata
// values are copied shallowly.
func (p Project) Clone() Project {
	out := p
	if p.Tracks != nil {
		out.Tracks = make([]Track, len(p.Tracks))
		for i, t := range p.Tracks {
			t.Elements = slices.Clone(t.Elements)
			out.Tracks[i] = t
		}
	}
	out.Metadata = maps.Clone(p.Metadata)
	return out
}

func (p Project) TrackIndex(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (p Project) Track(id string) (Track, bool) {
	if i := p.TrackIndex(id); i >= 0 {
		return p.Tracks[i], true
	}
	return Track{}, false
}

// FindElement locates an element by id across all tracks.
func (p Project) FindElement(id string) (trackIdx, elemIdx int, ok bool) {
	for ti, t := range p.Tracks {
		if ei := t.IndexOf(id); ei >= 0 {
			return ti, ei, true
		}
	}
	return -1, -1, false
}

func (p Project) Element(id string) (Element, bool) {
	ti, ei, ok := p.FindElement(id)
	if !ok {
		return Element{}, false
	}
	return p.Tracks[ti].Elements[ei], true
}

func (p Project) ElementCount() int {
	n := 0
	for _, t := range p.Tracks {
		n += len(t.Elements)
	}
	return n
}

func (p Project) withTracks(tracks []Track) Project {
	p.Tracks = tracks
	return p
}

func (p Project) replaceTrack(idx int, t Track) Project {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	tracks[idx] = t
	return p.withTracks(tracks)
}

// AddTrack appends t.
func (p Project) AddTrack(t Track) Project {
	tracks := make([]Track, 0, len(p.Tracks)+1)
	tracks = append(tracks, p.Tracks...)
	tracks = append(tracks, t)
	return p.withTracks(tracks)
}

// AddElement inserts el into the track with trackID keeping start order.
func (p Project) AddElement(trackID string, el Element) (Project, error) {
	if err := el.Validate(); err != nil {
		return p, err
	}
	if _, _, dup := p.FindElement(el.ID); dup {
		return p, fmt.Errorf("element %s: %w", el.ID, ErrDuplicateID)
	}
	ti := p.TrackIndex(trackID)
	if ti < 0 {
		return p, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
	}
	return p.replaceTrack(ti, p.Tracks[ti].withElement(el)), nil
}

// RemoveElement removes the element with id from the track with trackID.
// found is false, and p is returned unchanged, when either is absent.
func (p Project) RemoveElement(trackID, id string) (out Project, found bool) {
	ti := p.TrackIndex(trackID)
	if ti < 0 {
		return p, false
	}
	ei := p.Tracks[ti].IndexOf(id)
	if ei < 0 {
		return p, false
	}
	return p.replaceTrack(ti, p.Tracks[ti].withoutElement(ei)), true
}

// ReplaceElement swaps the stored element with the same id for el, in
// whichever track holds it, and re-sorts that track.
func (p Project) ReplaceElement(el Element) (Project, error) {
	if err := el.Validate(); err != nil {
		return p, err
	}
	ti, ei, ok := p.FindElement(el.ID)
	if !ok {
		return p, fmt.Errorf("element %s: %w", el.ID, ErrNotFound)
	}
	if p.Tracks[ti].Elements[ei].Kind != el.Kind {
		return p, fmt.Errorf("element %s is %s, got %s: %w", el.ID, p.Tracks[ti].Elements[ei].Kind, el.Kind, ErrKindMismatch)
	}
	track := p.Tracks[ti].withoutElement(ei).withElement(el)
	return p.replaceTrack(ti, track), nil
}

func (p Project) RemoveTrack(id string) (out Project, found bool) {
	ti := p.TrackIndex(id)
	if ti < 0 {
		return p, false
	}
	tracks := make([]Track, 0, len(p.Tracks)-1)
	tracks = append(tracks, p.Tracks[:ti]...)
	tracks = append(tracks, p.Tracks[ti+1:]...)
	return p.withTracks(tracks), true
}

// MoveTrack moves the track with id to index, clamped to the valid range.
func (p Project) MoveTrack(id string, index int) (Project, error) {
	from := p.TrackIndex(id)
	if from < 0 {
		return p, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	if index < 0 {
		index = 0
	}
	if index >= len(p.Tracks) {
		index = len(p.Tracks) - 1
	}
	tracks := make([]Track, 0, len(p.Tracks))
	tracks = append(tracks, p.Tracks[:from]...)
	tracks = append(tracks, p.Tracks[from+1:]...)
	tracks = append(tracks[:index], append([]Track{p.Tracks[from]}, tracks[index:]...)...)
	return p.withTracks(tracks), nil
}

// TrackIDs returns the track ids in order.
func (p Project) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// WithMetadata returns a copy of p with key set to value; a nil value deletes
// the key.
func (p Project) WithMetadata(key string, value any) Project {
	md := make(map[string]any, len(p.Metadata)+1)
	for k, v := range p.Metadata {
		md[k] = v
	}
	if value == nil {
		delete(md, key)
	} else {
		md[key] = value
	}
	p.Metadata = md
	return p
}

// Chapters decodes the chapters stored in metadata, ordered by start.
func (p Project) Chapters() ([]Chapter, error) {
	raw, ok := p.Metadata[MetadataChapters]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode chapters: %w", err)
	}
	var chapters []Chapter
	if err := json.Unmarshal(data, &chapters); err != nil {
		return nil, fmt.Errorf("decode chapters: %w", err)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Start < chapters[j].Start
	})
	return chapters, nil
}

// WithChapters validates and stores chapters in metadata.
func (p Project) WithChapters(chapters []Chapter) (Project, error) {
	stored := make([]Chapter, len(chapters))
	for i, c := range chapters {
		if !validRange(c.Start, c.End) {
			return p, fmt.Errorf("chapter %q [%g, %g]: %w", c.Title, c.Start, c.End, ErrInvalidRange)
		}
		stored[i] = c
	}
	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Start < stored[j].Start
	})
	return p.WithMetadata(MetadataChapters, stored), nil
}

// Validate checks document-level invariants: valid track types, valid
// element ranges, unique track ids and project-wide unique element ids.
func (p Project) Validate() error {
	if p.Version < 0 {
		return fmt.Errorf("negative version %d", p.Version)
	}
	trackIDs := make(map[string]struct{}, len(p.Tracks))
	elementIDs := make(map[string]struct{})
	for _, t := range p.Tracks {
		if !t.Type.Valid() {
			return fmt.Errorf("track %s: %q: %w", t.ID, t.Type, ErrInvalidTrackType)
		}
		if _, dup := trackIDs[t.ID]; dup {
			return fmt.Errorf("track %s: %w", t.ID, ErrDuplicateID)
		}
		trackIDs[t.ID] = struct{}{}
		for _, el := range t.Elements {
			if err := el.Validate(); err != nil {
				return err
			}
			if _, dup := elementIDs[el.ID]; dup {
				return fmt.Errorf("element %s: %w", el.ID, ErrDuplicateID)
			}
			elementIDs[el.ID] = struct{}{}
		}
	}
	return nil
}
