package timeline

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type TrackType string

const (
	TrackVideo   TrackType = "video"
	TrackAudio   TrackType = "audio"
	TrackCaption TrackType = "caption"
	TrackGeneric TrackType = "generic"
)

func (t TrackType) Valid() bool {
	switch t {
	case TrackVideo, TrackAudio, TrackCaption, TrackGeneric:
		return true
	}
	return false
}

// Track is an ordered lane of elements. Elements stay sorted by Start, with
// equal starts kept in insertion order.
type Track struct {
	ID       string
	Name     string
	Type     TrackType
	Elements []Element
}

func NewTrack(name string, typ TrackType) (Track, error) {
	if !typ.Valid() {
		return Track{}, fmt.Errorf("%q: %w", typ, ErrInvalidTrackType)
	}
	return Track{ID: uuid.NewString(), Name: name, Type: typ}, nil
}

// IndexOf returns the position of the element with id, or -1.
func (t Track) IndexOf(id string) int {
	for i, el := range t.Elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// End returns the latest element end on the track.
func (t Track) End() float64 {
	var end float64
	for _, el := range t.Elements {
		if el.End > end {
			end = el.End
		}
	}
	return end
}

// Overlapping returns the first element other than el (matched by id) whose
// interval intersects el's.
func (t Track) Overlapping(el Element) (Element, bool) {
	for _, other := range t.Elements {
		if other.ID != el.ID && other.Overlaps(el) {
			return other, true
		}
	}
	return Element{}, false
}

// withElement returns a copy of t with el inserted after every element that
// starts at or before el.Start. t.Elements is not modified.
func (t Track) withElement(el Element) Track {
	pos := sort.Search(len(t.Elements), func(i int) bool {
		return t.Elements[i].Start > el.Start
	})
	elements := make([]Element, 0, len(t.Elements)+1)
	elements = append(elements, t.Elements[:pos]...)
	elements = append(elements, el)
	elements = append(elements, t.Elements[pos:]...)
	t.Elements = elements
	return t
}

func (t Track) withoutElement(idx int) Track {
	elements := make([]Element, 0, len(t.Elements)-1)
	elements = append(elements, t.Elements[:idx]...)
	elements = append(elements, t.Elements[idx+1:]...)
	t.Elements = elements
	return t
}

type trackDoc struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Type     TrackType `json:"type"`
	Elements []Element `json:"elements"`
}

func (t Track) MarshalJSON() ([]byte, error) {
	elements := t.Elements
	if elements == nil {
		elements = []Element{}
	}
	return json.Marshal(trackDoc{ID: t.ID, Name: t.Name, Type: t.Type, Elements: elements})
}

// UnmarshalJSON decodes a track and restores start order.
func (t *Track) UnmarshalJSON(data []byte) error {
	var doc trackDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if !doc.Type.Valid() {
		return fmt.Errorf("track %s: %q: %w", doc.ID, doc.Type, ErrInvalidTrackType)
	}
	sort.SliceStable(doc.Elements, func(i, j int) bool {
		return doc.Elements[i].Start < doc.Elements[j].Start
	})
	*t = Track{ID: doc.ID, Name: doc.Name, Type: doc.Type, Elements: doc.Elements}
	return nil
}
