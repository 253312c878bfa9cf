package api

import (
	"encoding/json"
	"time"

	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/snap"
	"github.com/heimdex/heimdex-editor/internal/store"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string `json:"state"`
	ProjectsCount  int    `json:"projects_count"`
	OpenSessions   int    `json:"open_sessions"`
	DirtySessions  int    `json:"dirty_sessions"`
	AutosavePaused bool   `json:"autosave_paused"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
	// Document optionally seeds the project with an exported timeline.
	Document json.RawMessage `json:"document,omitempty"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type ProjectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	Open      bool   `json:"open"`
	Dirty     bool   `json:"dirty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Version  int              `json:"version"`
	Revision uint64           `json:"revision"`
	Dirty    bool             `json:"dirty"`
	CanUndo  bool             `json:"can_undo"`
	CanRedo  bool             `json:"can_redo"`
	Duration float64          `json:"duration"`
	Project  timeline.Project `json:"project"`
}

type SaveResponse struct {
	Version  int    `json:"version"`
	Revision uint64 `json:"revision"`
}

type SnapshotResponse struct {
	ID        int64  `json:"id"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
}

type SnapshotsResponse struct {
	Snapshots []SnapshotResponse `json:"snapshots"`
}

type TimelineResponse struct {
	Version  int              `json:"version"`
	Revision uint64           `json:"revision"`
	Duration float64          `json:"duration"`
	Tracks   []timeline.Track `json:"tracks"`
}

type AddTrackRequest struct {
	Name string             `json:"name"`
	Type timeline.TrackType `json:"type"`
}

type MoveTrackRequest struct {
	Index int `json:"index"`
}

// AddElementRequest places Element on TrackID, or on the selected or a new
// track when TrackID is empty. Element uses the document encoding; an
// element without an id gets one.
type AddElementRequest struct {
	TrackID string          `json:"trackId,omitempty"`
	Element json.RawMessage `json:"element"`
}

type AddElementResponse struct {
	TrackID string           `json:"trackId"`
	Element timeline.Element `json:"element"`
}

type MoveElementRequest struct {
	TrackID string  `json:"trackId,omitempty"`
	Start   float64 `json:"start"`
}

type HistoryResponse struct {
	Applied  bool   `json:"applied"`
	Version  int    `json:"version"`
	Revision uint64 `json:"revision"`
	CanUndo  bool   `json:"can_undo"`
	CanRedo  bool   `json:"can_redo"`
}

type SnapResponse struct {
	Time    float64   `json:"time"`
	Snapped bool      `json:"snapped"`
	Targets []float64 `json:"targets"`
}

type PointerResponse struct {
	snap.Target
	TrackID string `json:"trackId,omitempty"`
}

type ChaptersRequest struct {
	Chapters []timeline.Chapter `json:"chapters"`
}

type ChaptersResponse struct {
	Chapters []timeline.Chapter `json:"chapters"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type PlayerStateRequest struct {
	State string `json:"state"`
}

type ToggleResponse struct {
	Action   string                 `json:"action"`
	Playback session.PlaybackStatus `json:"playback"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToSummary(rec *store.ProjectRecord, s *session.Session) ProjectSummary {
	summary := ProjectSummary{
		ID:        rec.ID,
		Name:      rec.Name,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if s != nil {
		p := s.Project()
		summary.Name = s.Name()
		summary.Version = p.Version
		summary.Open = true
		summary.Dirty = s.Dirty()
	}
	return summary
}

func SessionToResponse(s *session.Session) ProjectResponse {
	p, revision := s.Snapshot()
	undo, redo := s.History()
	return ProjectResponse{
		ID:       p.ID,
		Name:     s.Name(),
		Version:  p.Version,
		Revision: revision,
		Dirty:    s.Dirty(),
		CanUndo:  undo > 0,
		CanRedo:  redo > 0,
		Duration: p.Duration(),
		Project:  p,
	}
}

func SnapshotToResponse(snap *store.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        snap.ID,
		Version:   snap.Version,
		CreatedAt: snap.CreatedAt.Format(time.RFC3339),
	}
}
