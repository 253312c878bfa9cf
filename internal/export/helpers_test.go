package export

import (
	"testing"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func mustCaption(t *testing.T, id string, start, end float64, text, lang string) timeline.Element {
	t.Helper()
	el, err := timeline.NewCaption(id, start, end, text, lang)
	if err != nil {
		t.Fatalf("NewCaption(%s) error = %v", id, err)
	}
	return el
}

func mustVideo(t *testing.T, id string, start, end float64, src string) timeline.Element {
	t.Helper()
	el, err := timeline.NewVideo(id, start, end, timeline.MediaPayload{Src: src})
	if err != nil {
		t.Fatalf("NewVideo(%s) error = %v", id, err)
	}
	return el
}

// buildProject puts every element on one track per element kind.
func buildProject(t *testing.T, elements ...timeline.Element) timeline.Project {
	t.Helper()
	p := timeline.NewProject("p1")
	trackFor := make(map[timeline.TrackType]string)
	for _, el := range elements {
		typ := timeline.TrackTypeFor(el.Kind)
		id, ok := trackFor[typ]
		if !ok {
			tr, err := timeline.NewTrack(string(typ), typ)
			if err != nil {
				t.Fatalf("NewTrack error = %v", err)
			}
			p = p.AddTrack(tr)
			id = tr.ID
			trackFor[typ] = id
		}
		var err error
		p, err = p.AddElement(id, el)
		if err != nil {
			t.Fatalf("AddElement(%s) error = %v", el.ID, err)
		}
	}
	return p
}
