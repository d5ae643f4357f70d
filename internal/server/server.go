package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"portfolio-live/internal/analytics"
	"portfolio-live/internal/api"
	"portfolio-live/internal/models"
	"portfolio-live/internal/relay"
	"portfolio-live/web"
)

// defaultMaxBodyBytes caps JSON and upload bodies at 10 MB.
const defaultMaxBodyBytes = 10 << 20

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type Config struct {
	Addr         string
	TLS          TLSConfig
	RateLimit    RateLimitConfig
	Security     SecurityConfig
	CORSOrigin   string
	MaxBodyBytes int64
	UploadsDir   string
	Logger       *slog.Logger
	AuditLogger  *slog.Logger
	Relay        *relay.Relay
	Queue        analytics.Queue
	Recorder     *analytics.Recorder
}

type Server struct {
	httpServer  *http.Server
	tlsCertFile string
	tlsKeyFile  string
}

func New(handler *api.Handler, cfg Config) (*Server, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/api/content", handler.ContentIndex)
	mux.HandleFunc("/api/content/", handler.ContentByKey)
	mux.HandleFunc("/api/translations", handler.TranslationsIndex)
	mux.HandleFunc("/api/translations/", handler.TranslationsByLocale)
	mux.HandleFunc("/api/media", handler.MediaIndex)
	mux.HandleFunc("/api/media/", handler.MediaByID)
	mux.HandleFunc("/api/audio", handler.AudioIndex)
	mux.HandleFunc("/api/audio/", handler.AudioByID)
	mux.HandleFunc("/api/themes", handler.ThemesIndex)
	mux.HandleFunc("/api/themes/", handler.ThemesByName)
	mux.HandleFunc("/api/feedback", handler.FeedbackIndex)
	mux.HandleFunc("/api/feedback/", handler.FeedbackByID)
	mux.HandleFunc("/api/analytics/events", handler.AnalyticsEvents)
	mux.HandleFunc("/api/analytics/summary", handler.AnalyticsSummary)
	mux.HandleFunc("/api/accessibility/", handler.AccessibilityByVisitor)
	mux.HandleFunc("/api/admin/login", handler.AdminLogin)
	mux.HandleFunc("/api/admin/logout", handler.AdminLogout)
	mux.HandleFunc("/api/admin/overview", handler.AdminOverview)

	uploadsDir := cfg.UploadsDir
	if uploadsDir == "" {
		uploadsDir = handler.UploadsDir
	}
	if uploadsDir != "" {
		uploadsServer := http.FileServer(http.Dir(uploadsDir))
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", uploadsServer))
	}

	staticFS, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("load admin panel assets: %w", err)
	}
	index, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return nil, fmt.Errorf("read admin panel index: %w", err)
	}
	adminAssets := http.StripPrefix("/admin/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/admin", adminPanelHandler(staticFS, index, adminAssets))
	mux.HandleFunc("/admin/", adminPanelHandler(staticFS, index, adminAssets))

	mux.HandleFunc("/", notFoundHandler)

	policy, err := newCORSPolicy(cfg.CORSOrigin)
	if err != nil {
		return nil, err
	}
	rl, err := newRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Rate limiting wraps the logging, audit, and capture middlewares so an
	// over-quota request is answered without being logged, audited, or
	// tallied into the analytics recorder.
	handlerChain := http.Handler(mux)
	handlerChain = bodyLimitMiddleware(maxBody, handlerChain)
	handlerChain = compressionMiddleware(handlerChain)
	handlerChain = corsMiddleware(policy, cfg.Logger, handlerChain)
	handlerChain = securityHeadersMiddleware(cfg.Security, handlerChain)
	handlerChain = captureMiddleware(cfg.Recorder, cfg.Queue, handlerChain)
	handlerChain = auditMiddleware(cfg.AuditLogger, handlerChain)
	handlerChain = loggingMiddleware(cfg.Logger, handlerChain)
	handlerChain = rateLimitMiddleware(rl, cfg.Logger, handlerChain)
	handlerChain = requestIDMiddleware(cfg.Logger, handlerChain)
	handlerChain = websocketMiddleware(cfg.Relay, handlerChain)
	handlerChain = recoveryMiddleware(cfg.Logger, handlerChain)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srv := &Server{
		httpServer:  httpServer,
		tlsCertFile: strings.TrimSpace(cfg.TLS.CertFile),
		tlsKeyFile:  strings.TrimSpace(cfg.TLS.KeyFile),
	}

	if srv.tlsCertFile != "" && srv.tlsKeyFile != "" {
		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return srv, nil
}

// HTTPServer exposes the underlying http.Server for the serverutil run driver.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// TLSFiles reports the configured certificate pair.
func (s *Server) TLSFiles() (string, string) {
	return s.tlsCertFile, s.tlsKeyFile
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusNotFound, map[string]string{
		"error": "Rota não encontrada",
		"code":  api.CodeNotFound,
		"path":  r.URL.Path,
	})
}

// writeMiddlewareError normalises middleware error responses to the API JSON shape.
func writeMiddlewareError(w http.ResponseWriter, status int, code, message string) {
	api.WriteError(w, status, code, message)
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if logger != nil {
					logger.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", fmt.Sprintf("%v", recovered))
				}
				writeMiddlewareError(w, http.StatusInternalServerError, api.CodeInternalError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// websocketMiddleware hands upgrade requests to the relay before logging or
// rate limiting wrap the response writer. Upgrades are accepted on any path.
func websocketMiddleware(rel *relay.Relay, next http.Handler) http.Handler {
	if rel == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			rel.HandleConnection(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func auditMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)
		if !shouldAudit(r) {
			return
		}
		logger.Info("audit",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_ip", extractClientIP(r))
	})
}

func shouldAudit(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// captureMiddleware feeds the in-process request counters and publishes
// page-view events for non-API GET traffic onto the analytics queue.
func captureMiddleware(recorder *analytics.Recorder, queue analytics.Queue, next http.Handler) http.Handler {
	if recorder == nil && queue == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := newStatusRecorder(w)
		next.ServeHTTP(sr, r)
		if recorder != nil {
			recorder.RecordRequest(r.URL.Path, sr.status)
		}
		if queue == nil || r.Method != http.MethodGet || sr.status >= http.StatusBadRequest {
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/health" {
			return
		}
		_ = queue.Publish(r.Context(), models.AnalyticsEvent{
			Name:      "page_view",
			Path:      r.URL.Path,
			Referrer:  r.Referer(),
			UserAgent: r.UserAgent(),
		})
	})
}

func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			if r.ContentLength > maxBytes {
				writeMiddlewareError(w, http.StatusRequestEntityTooLarge, api.CodePayloadTooLarge, "request body exceeds the allowed size")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func adminPanelHandler(staticFS fs.FS, index []byte, assets http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeMiddlewareError(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed")
			return
		}

		requested := strings.TrimPrefix(r.URL.Path, "/admin")
		requested = strings.TrimPrefix(requested, "/")
		if requested != "" && requested != "index.html" {
			file, err := staticFS.Open(requested)
			if err == nil {
				defer file.Close()
				info, statErr := file.Stat()
				if statErr == nil && !info.IsDir() {
					assets.ServeHTTP(w, r)
					return
				}
			} else if !errors.Is(err, fs.ErrNotExist) {
				writeMiddlewareError(w, http.StatusInternalServerError, api.CodeInternalError, "failed to read admin asset")
				return
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write(index)
	}
}
