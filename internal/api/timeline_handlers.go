package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/selection"
	"github.com/heimdex/heimdex-editor/internal/snap"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// decodeElement decodes an element document. A non-empty id overrides the
// document's id; a document without one gets a fresh id.
func decodeElement(raw json.RawMessage, id string) (timeline.Element, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return timeline.Element{}, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	if id == "" {
		var existing string
		_ = json.Unmarshal(fields["id"], &existing)
		if existing == "" {
			id = uuid.NewString()
		}
	}
	if id != "" {
		encoded, _ := json.Marshal(id)
		fields["id"] = encoded
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return timeline.Element{}, err
	}
	var el timeline.Element
	if err := json.Unmarshal(data, &el); err != nil {
		return timeline.Element{}, err
	}
	return el, nil
}

func writeElementError(cfg ServerConfig, w http.ResponseWriter, err error) {
	if timeline.Code(err) != "" {
		WriteDomainError(w, cfg.Logger, err)
		return
	}
	WriteError(w, http.StatusBadRequest, "invalid element", "BAD_REQUEST")
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		p, revision := s.Snapshot()
		tracks := p.Tracks
		if tracks == nil {
			tracks = []timeline.Track{}
		}
		WriteJSON(w, http.StatusOK, TimelineResponse{
			Version:  p.Version,
			Revision: revision,
			Duration: p.Duration(),
			Tracks:   tracks,
		})
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		var track timeline.Track
		err := s.Edit(func(ed *editor.Editor) error {
			var err error
			track, err = ed.AddTrack(req.Name, req.Type)
			return err
		})
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		trackID := chi.URLParam(r, "trackID")
		if err := s.Edit(func(ed *editor.Editor) error { return ed.RemoveTrack(trackID) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveTrackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		trackID := chi.URLParam(r, "trackID")
		if err := s.Edit(func(ed *editor.Editor) error { return ed.MoveTrack(trackID, req.Index) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string][]string{"trackIds": s.Project().TrackIDs()})
	}
}

func addElementHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddElementRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.Element) == 0 {
			WriteError(w, http.StatusBadRequest, "element is required", "BAD_REQUEST")
			return
		}
		el, err := decodeElement(req.Element, "")
		if err != nil {
			writeElementError(cfg, w, err)
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}

		var placed timeline.Track
		err = s.Edit(func(ed *editor.Editor) error {
			var target *timeline.Track
			if req.TrackID != "" {
				// A track the project no longer has is reported as stale.
				t, found := ed.Project().Track(req.TrackID)
				if !found {
					t = timeline.Track{ID: req.TrackID}
				}
				target = &t
			}
			var err error
			placed, err = ed.AddElementToTrack(target, el)
			return err
		})
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, AddElementResponse{TrackID: placed.ID, Element: el})
	}
}

func updateElementHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if !decodeBody(w, r, &raw) {
			return
		}
		el, err := decodeElement(raw, chi.URLParam(r, "elementID"))
		if err != nil {
			writeElementError(cfg, w, err)
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		if err := s.Edit(func(ed *editor.Editor) error { return ed.UpdateElement(el) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, el)
	}
}

func removeElementHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "elementID")
		if err := s.Edit(func(ed *editor.Editor) error { return ed.RemoveElement(id) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveElementHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveElementRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "elementID")
		if err := s.Edit(func(ed *editor.Editor) error { return ed.MoveElement(id, req.TrackID, req.Start) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		el, _ := s.Project().Element(id)
		WriteJSON(w, http.StatusOK, el)
	}
}

func historyStep(cfg ServerConfig, redo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		var applied bool
		if redo {
			applied = s.Redo()
		} else {
			applied = s.Undo()
		}
		p, revision := s.Snapshot()
		undoN, redoN := s.History()
		WriteJSON(w, http.StatusOK, HistoryResponse{
			Applied:  applied,
			Version:  p.Version,
			Revision: revision,
			CanUndo:  undoN > 0,
			CanRedo:  redoN > 0,
		})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return historyStep(cfg, false)
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return historyStep(cfg, true)
}

func getSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.Selection())
	}
}

func putSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sel selection.Selection
		if !decodeBody(w, r, &sel) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		if err := s.Select(sel); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, s.Selection())
	}
}

// queryFloat parses a finite float query parameter.
func queryFloat(r *http.Request, key string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	return v, err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func snapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := queryFloat(r, "t")
		if !ok {
			WriteError(w, http.StatusBadRequest, "t must be a number", "BAD_REQUEST")
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		exclude := r.URL.Query().Get("exclude")
		res := s.SnapAt(t, exclude)
		if res.Targets == nil {
			res.Targets = []float64{}
		}
		WriteJSON(w, http.StatusOK, SnapResponse{Time: res.Time, Snapped: res.Snapped, Targets: res.Targets})
	}
}

func pointerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		y, okY := queryFloat(r, "y")
		top, okTop := queryFloat(r, "top")
		height, okH := queryFloat(r, "trackHeight")
		if !okY || !okTop || !okH {
			WriteError(w, http.StatusBadRequest, "y, top and trackHeight must be numbers", "BAD_REQUEST")
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		target := snap.ClassifyPointer(y, top, height)
		resp := PointerResponse{Target: target}
		if target.Kind == snap.TargetTrack {
			tracks := s.Project().Tracks
			if target.Index >= 0 && target.Index < len(tracks) {
				resp.TrackID = tracks[target.Index].ID
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func setMetadataHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var value any
		if !decodeBody(w, r, &value) {
			return
		}
		writeMetadata(cfg, w, r, value)
	}
}

func deleteMetadataHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMetadata(cfg, w, r, nil)
	}
}

func writeMetadata(cfg ServerConfig, w http.ResponseWriter, r *http.Request, value any) {
	key := chi.URLParam(r, "key")
	if key == timeline.MetadataChapters {
		WriteError(w, http.StatusBadRequest, "chapters are edited through /chapters", "BAD_REQUEST")
		return
	}
	s, ok := openSession(cfg, w, r)
	if !ok {
		return
	}
	if err := s.Edit(func(ed *editor.Editor) error { return ed.SetMetadata(key, value) }); err != nil {
		WriteDomainError(w, cfg.Logger, err)
		return
	}
	metadata := s.Project().Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	WriteJSON(w, http.StatusOK, metadata)
}

func getChaptersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		chapters, err := s.Project().Chapters()
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		if chapters == nil {
			chapters = []timeline.Chapter{}
		}
		WriteJSON(w, http.StatusOK, ChaptersResponse{Chapters: chapters})
	}
}

func putChaptersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChaptersRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		if err := s.Edit(func(ed *editor.Editor) error { return ed.SetChapters(req.Chapters) }); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		chapters, _ := s.Project().Chapters()
		if chapters == nil {
			chapters = []timeline.Chapter{}
		}
		WriteJSON(w, http.StatusOK, ChaptersResponse{Chapters: chapters})
	}
}
