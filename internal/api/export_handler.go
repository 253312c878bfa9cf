package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	exportpkg "github.com/heimdex/heimdex-editor/internal/export"
	"github.com/heimdex/heimdex-editor/internal/session"
)

const defaultFrameRate = 30.0

func frameRate(cfg ServerConfig, requested float64) float64 {
	if requested > 0 {
		return requested
	}
	if cfg.FrameRate > 0 {
		return cfg.FrameRate
	}
	return defaultFrameRate
}

// exportName picks the file base name: the requested one, else the
// project name, else "project".
func exportName(requested string, s *session.Session) string {
	return exportpkg.FileBase(requested, s.Name())
}

func languagesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		langs := exportpkg.CaptionLanguages(s.Project())
		if langs == nil {
			langs = []string{}
		}
		WriteJSON(w, http.StatusOK, LanguagesResponse{Languages: langs})
	}
}

func captionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := strings.ToLower(r.URL.Query().Get("format"))
		if format == "" {
			format = "srt"
		}
		if format != "srt" && format != "vtt" {
			WriteError(w, http.StatusBadRequest, "format must be srt or vtt", "BAD_REQUEST")
			return
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		lang := r.URL.Query().Get("lang")
		p := s.Project()
		if format == "vtt" {
			w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, exportpkg.CaptionsVTT(p, lang))
			return
		}
		w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, exportpkg.CaptionsSRT(p, lang))
	}
}

func chaptersExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		data, err := exportpkg.ChaptersJSON(s.Project())
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, data)
	}
}

func edlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requested float64
		if v := r.URL.Query().Get("frame_rate"); v != "" {
			fr, err := strconv.ParseFloat(v, 64)
			if err != nil || fr <= 0 {
				WriteError(w, http.StatusBadRequest, "frame_rate must be a positive number", "BAD_REQUEST")
				return
			}
			requested = fr
		}
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		title := exportName(r.URL.Query().Get("title"), s)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, exportpkg.GenerateEDL(s.Project(), title, frameRate(cfg, requested)))
	}
}

func bundleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		var opts exportpkg.BundleOptions
		if url := r.URL.Query().Get("video_url"); url != "" {
			opts.Video = &exportpkg.VideoRef{URL: url, FileName: r.URL.Query().Get("video_file")}
		}
		bundle, err := exportpkg.Bundle(s.Project(), opts)
		if err != nil {
			WriteDomainError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, bundle)
	}
}

// exportHandler writes an export to a directory on this machine.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportpkg.ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}

		format := strings.ToLower(req.Format)
		switch format {
		case "edl", "bundle", "srt", "vtt":
		default:
			WriteError(w, http.StatusBadRequest, "format must be edl, bundle, srt or vtt", "BAD_REQUEST")
			return
		}
		if err := exportpkg.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		s, ok := openSession(cfg, w, r)
		if !ok {
			return
		}
		p := s.Project()
		name := exportName(req.Name, s)

		if format == "bundle" {
			bundle, err := exportpkg.Bundle(p, exportpkg.BundleOptions{Video: req.Video})
			if err != nil {
				WriteDomainError(w, cfg.Logger, err)
				return
			}
			files, err := exportpkg.WriteBundle(req.OutputDir, name, bundle)
			if err != nil {
				cfg.Logger.Error("bundle export failed", "error", err, "project_id", p.ID)
				WriteError(w, http.StatusInternalServerError, "failed to write export files", "INTERNAL_ERROR")
				return
			}
			WriteJSON(w, http.StatusOK, exportpkg.ExportResponse{
				Status:     "ok",
				Format:     format,
				OutputPath: req.OutputDir,
				Files:      files,
			})
			return
		}

		var content, filename string
		switch format {
		case "edl":
			content = exportpkg.GenerateEDL(p, name, frameRate(cfg, req.FrameRate))
			filename = exportpkg.FileName(name, "edl")
		case "srt":
			content = exportpkg.CaptionsSRT(p, req.Language)
			filename = exportpkg.CaptionFileName(name, req.Language, "srt")
		case "vtt":
			content = exportpkg.CaptionsVTT(p, req.Language)
			filename = exportpkg.CaptionFileName(name, req.Language, "vtt")
		}

		outputPath := filepath.Join(req.OutputDir, filename)
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, exportpkg.ExportResponse{
			Status:     "ok",
			Format:     format,
			OutputPath: outputPath,
			Files:      []string{outputPath},
		})
	}
}
