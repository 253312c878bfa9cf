package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Media is fetched by <video> elements, which cannot send a bearer
	// token, so it is limited to local clients instead.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/media/{projectID}/{elementID}", mediaHandler(cfg))
		r.Head("/media/{projectID}/{elementID}", mediaHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		if cfg.Realtime != nil {
			r.Get("/ws", cfg.Realtime.ServeWS)
		}

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", getProjectHandler(cfg))
			r.Patch("/", renameProjectHandler(cfg))
			r.Delete("/", deleteProjectHandler(cfg))
			r.Post("/save", saveProjectHandler(cfg))
			r.Post("/close", closeProjectHandler(cfg))
			r.Get("/snapshots", listSnapshotsHandler(cfg))
			r.Post("/snapshots/{snapshotID}/restore", restoreSnapshotHandler(cfg))
			if cfg.Realtime != nil {
				r.Get("/ws", projectEventsHandler(cfg))
			}

			r.Get("/timeline", timelineHandler(cfg))
			r.Post("/tracks", addTrackHandler(cfg))
			r.Delete("/tracks/{trackID}", removeTrackHandler(cfg))
			r.Post("/tracks/{trackID}/move", moveTrackHandler(cfg))
			r.Post("/elements", addElementHandler(cfg))
			r.Put("/elements/{elementID}", updateElementHandler(cfg))
			r.Delete("/elements/{elementID}", removeElementHandler(cfg))
			r.Post("/elements/{elementID}/move", moveElementHandler(cfg))
			r.Post("/undo", undoHandler(cfg))
			r.Post("/redo", redoHandler(cfg))
			r.Get("/selection", getSelectionHandler(cfg))
			r.Put("/selection", putSelectionHandler(cfg))
			r.Get("/snap", snapHandler(cfg))
			r.Get("/pointer", pointerHandler(cfg))
			r.Put("/metadata/{key}", setMetadataHandler(cfg))
			r.Delete("/metadata/{key}", deleteMetadataHandler(cfg))
			r.Get("/chapters", getChaptersHandler(cfg))
			r.Put("/chapters", putChaptersHandler(cfg))

			r.Get("/playback", playbackStatusHandler(cfg))
			r.Post("/playback/seek", seekHandler(cfg))
			r.Post("/playback/toggle", toggleHandler(cfg))
			r.Put("/playback/state", playerStateHandler(cfg))

			r.Get("/export/languages", languagesHandler(cfg))
			r.Get("/export/captions", captionsHandler(cfg))
			r.Get("/export/chapters", chaptersExportHandler(cfg))
			r.Get("/export/edl", edlHandler(cfg))
			r.Get("/export/bundle", bundleHandler(cfg))
			r.Post("/export", exportHandler(cfg))
		})
	})

	return r
}

// openSession resolves the project of the request to its live session,
// writing the error response itself on failure.
func openSession(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := cfg.Registry.Open(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		WriteDomainError(w, cfg.Logger, err)
		return nil, false
	}
	return s, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Registry.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := StatusResponse{State: "idle", ProjectsCount: len(projects)}
		for _, s := range cfg.Registry.OpenSessions() {
			resp.OpenSessions++
			if s.Dirty() {
				resp.DirtySessions++
			}
		}
		if resp.OpenSessions > 0 {
			resp.State = "editing"
		}
		if cfg.Autosaver != nil && cfg.Autosaver.IsPaused() {
			resp.AutosavePaused = true
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.Registry.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectSummary, len(records))}
		for i, rec := range records {
			s, _ := cfg.Registry.Get(rec.ID)
			resp.Projects[i] = ProjectToSummary(rec, s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var (
			s   *session.Session
			err error
		)
		if len(req.Document) > 0 {
			p, perr := timeline.ParseDocument(req.Document)
			if perr != nil {
				if timeline.Code(perr) != "" {
					WriteDomainError(w, cfg.Logger, perr)
				} else {
					WriteError(w, http.StatusBadRequest, "invalid project document", "BAD_REQUEST")
				}
				return
			}
			s, err = cfg.Registry.Import(r.Context(), req.Name, p)
		} else {
			s, err = cfg.Registry.Create(r.Context(), req.Name)
		}
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, SessionToResponse(s))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(s))
	}
}

func renameProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenameProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			WriteDomainError(w, cfg.Logger, session.ErrNameRequired)
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		s.Rename(req.Name)
		if err := cfg.Registry.Save(r.Context(), s); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(s))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Registry.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		if err := cfg.Registry.Save(r.Context(), s); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		p, revision := s.Snapshot()
		WriteJSON(w, http.StatusOK, SaveResponse{Version: p.Version, Revision: revision})
	}
}

func closeProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Registry.Close(r.Context(), chi.URLParam(r, "projectID")); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listSnapshotsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		snaps, err := cfg.Registry.Snapshots(r.Context(), chi.URLParam(r, "projectID"), limit)
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		resp := SnapshotsResponse{Snapshots: make([]SnapshotResponse, len(snaps))}
		for i, snap := range snaps {
			resp.Snapshots[i] = SnapshotToResponse(snap)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func restoreSnapshotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID, err := strconv.ParseInt(chi.URLParam(r, "snapshotID"), 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid snapshot id", "BAD_REQUEST")
			return
		}
		projectID := chi.URLParam(r, "projectID")
		if err := cfg.Registry.Restore(r.Context(), projectID, snapshotID); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		s, ok := cfg.Registry.Get(projectID)
		if !ok {
			WriteDomainError(w, cfg.Logger, errors.New("restored project is not open"))
			return
		}
		WriteJSON(w, http.StatusOK, SessionToResponse(s))
	}
}

func projectEventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		cfg.Realtime.Subscribe(w, r, s.ID())
	}
}
