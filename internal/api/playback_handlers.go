package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func playbackStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.Playback())
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		if err := s.Seek(req.Time); err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, s.Playback())
	}
}

func toggleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		action := s.TogglePlaying()
		WriteJSON(w, http.StatusOK, ToggleResponse{Action: action.String(), Playback: s.Playback()})
	}
}

func playerStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerStateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		state, err := playback.ParseState(req.State)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		s.SetPlayerState(state)
		WriteJSON(w, http.StatusOK, s.Playback())
	}
}

// mediaHandler streams the file behind a video, image or audio element with
// byte-range support.
func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Media == nil {
			WriteError(w, http.StatusNotFound, "media serving is disabled", "MEDIA_UNAVAILABLE")
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		elementID := chi.URLParam(r, "elementID")
		el, found := s.Project().Element(elementID)
		if !found {
			WriteDomainError(w, cfg.Logger, fmt.Errorf("element %s: %w", elementID, timeline.ErrNotFound))
			return
		}
		src := el.Source()
		if src == "" {
			WriteError(w, http.StatusNotFound, "element has no media source", "MEDIA_UNAVAILABLE")
			return
		}
		path, err := cfg.Media.Resolve(src)
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		if err := cfg.Media.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("media error", "error", err, "element_id", elementID)
		}
	}
}
