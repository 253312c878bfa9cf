package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrRemoteSource = errors.New("media source is not a local file")
	ErrOutsideRoot  = errors.New("media source is outside the media root")
)

// MediaService streams the local media files referenced by timeline
// elements so a preview player can seek within them.
type MediaService interface {
	Resolve(src string) (string, error)
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

type MediaServer struct {
	root   string
	logger *slog.Logger
}

// NewMediaServer serves files under root. An empty root allows any
// absolute path.
func NewMediaServer(root string, logger *slog.Logger) *MediaServer {
	return &MediaServer{root: root, logger: logger}
}

// Resolve maps an element source (plain path or file:// URL) to a local
// path. Relative paths are taken relative to the media root.
func (s *MediaServer) Resolve(src string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("empty media source: %w", ErrRemoteSource)
	}
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return "", fmt.Errorf("%s: %w", u.Scheme, ErrRemoteSource)
		}
		src = u.Path
	}

	path := filepath.Clean(src)
	if !filepath.IsAbs(path) {
		if s.root == "" {
			return "", fmt.Errorf("relative source %q without media root: %w", src, ErrOutsideRoot)
		}
		path = filepath.Join(s.root, path)
	}
	if s.root != "" {
		rel, err := filepath.Rel(s.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%q: %w", src, ErrOutsideRoot)
		}
	}
	return path, nil
}

// ServeFile writes filePath honouring a single Range request header.
func (s *MediaServer) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	byteRange, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrBadByteRange):
		byteRange = nil
	case err != nil:
		return err
	}

	if byteRange == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, file); err != nil && s.logger != nil {
			s.logger.Debug("media copy interrupted", "path", filePath, "error", err)
		}
		return nil
	}

	if _, err := file.Seek(byteRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek media: %w", err)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(byteRange.ContentLength(), 10))
	w.Header().Set("Content-Range", byteRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, file, byteRange.ContentLength()); err != nil && s.logger != nil {
		s.logger.Debug("media copy interrupted", "path", filePath, "error", err)
	}
	return nil
}
