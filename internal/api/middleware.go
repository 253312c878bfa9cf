package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/session"
	"github.com/heimdex/heimdex-editor/internal/store"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// TokenStore holds the bearer token clients must present.
type TokenStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

// AuthMiddleware accepts "Authorization: Bearer <token>". Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// as well.
func AuthMiddleware(tokens TokenStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if auth := r.Header.Get("Authorization"); auth != "" {
				if !strings.HasPrefix(auth, "Bearer ") {
					WriteError(w, http.StatusUnauthorized, "invalid authorization format", "UNAUTHORIZED")
					return
				}
				token = strings.TrimPrefix(auth, "Bearer ")
			} else {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "missing authorization header", "UNAUTHORIZED")
				return
			}

			storedToken, err := tokens.GetConfig(r.Context(), store.ConfigAuthToken)
			if err != nil || storedToken == "" {
				logger.Error("failed to get auth token from config", "error", err)
				WriteError(w, http.StatusInternalServerError, "auth configuration error", "INTERNAL_ERROR")
				return
			}

			if token != storedToken {
				logger.Warn("invalid auth token", "provided", logging.SanitizeToken(token))
				WriteError(w, http.StatusUnauthorized, "invalid token", "UNAUTHORIZED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			requestID, _ := r.Context().Value(RequestIDKey).(string)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestID,
			)
		})
	}
}

func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID, _ := r.Context().Value(RequestIDKey).(string)
					logger.Error("panic recovered", "error", err, "request_id", requestID)
					WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Heimdex-Request-Id")
			if requestID == "" {
				requestID = uuid.NewString()[:8]
			}
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var heimdexOriginHost = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?\.app\.heimdex\.(co|local)$`)

// isAllowedOrigin accepts http(s) origins on localhost/127.0.0.1 and on
// single-label tenants of app.heimdex.co and app.heimdex.local.
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return false
	}
	if port := u.Port(); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return false
		}
	} else if strings.HasSuffix(u.Host, ":") {
		return false
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	return heimdexOriginHost.MatchString(host)
}

// CORSAllowlist reflects allowed origins. Requests from other origins are
// still served without CORS headers, except preflights which are refused.
func CORSAllowlist() func(http.Handler) http.Handler {
	const (
		allowMethods  = "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS"
		allowHeaders  = "Range, Content-Type, Authorization, X-Heimdex-Request-Id, X-Heimdex-Device-Id"
		exposeHeaders = "Content-Range, Accept-Ranges, Content-Length, Content-Type, X-Request-ID"
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			allowed := isAllowedOrigin(origin)
			preflight := r.Method == http.MethodOptions

			if !allowed {
				if preflight {
					WriteError(w, http.StatusForbidden, "origin not allowed", "FORBIDDEN")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", exposeHeaders)
			if preflight {
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isLoopbackRemoteAddr accepts a RemoteAddr with or without a port.
func isLoopbackRemoteAddr(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// LoopbackGuard restricts a route to clients on this machine.
func LoopbackGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemoteAddr(r.RemoteAddr) {
				WriteError(w, http.StatusForbidden, "media is only served to local clients", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the hijacker for websocket
// upgrades.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func WriteError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps editor, session and playback errors onto HTTP
// statuses. Anything unrecognised is logged and reported as a 500.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrNameRequired):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	case errors.Is(err, playback.ErrPlayerUnavailable):
		WriteError(w, http.StatusConflict, err.Error(), "PLAYER_UNAVAILABLE")
		return
	case errors.Is(err, playback.ErrRemoteSource), errors.Is(err, playback.ErrOutsideRoot):
		WriteError(w, http.StatusNotFound, err.Error(), "MEDIA_UNAVAILABLE")
		return
	}

	code := timeline.Code(err)
	switch code {
	case "":
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	case "NOT_FOUND":
		WriteError(w, http.StatusNotFound, err.Error(), code)
	case "DUPLICATE_ID", "STALE_REFERENCE", "OVERLAP":
		WriteError(w, http.StatusConflict, err.Error(), code)
	default:
		WriteError(w, http.StatusBadRequest, err.Error(), code)
	}
}
