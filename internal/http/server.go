// Package http serves the payroll back-office API: batch and snapshot
// ingestion, synchronous export downloads, and queued export jobs.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"paydesk/internal/cache"
	"paydesk/internal/core"
	"paydesk/internal/metrics"
	"paydesk/internal/payroll"
	"paydesk/internal/storage"
)

// BatchStore is the slice of the repository the API writes through.
type BatchStore interface {
	CreateBatch(ctx context.Context, periodStart, periodEnd time.Time) (int64, error)
	ListBatches(ctx context.Context) ([]core.PayrollBatch, error)
	ListEmployees(ctx context.Context) ([]storage.Employee, error)
	IngestSnapshot(ctx context.Context, batchID int64, p storage.SnapshotParams) (int64, error)
	SaveSummary(ctx context.Context, batchID int64, raw []byte) error
	CreateExportJob(ctx context.Context, batchID int64, format string) (int64, error)
	ExportJobByID(ctx context.Context, id int64) (storage.ExportJob, error)
}

// Exporter builds a batch's ordered export and reads its monetary summary.
type Exporter interface {
	BuildExport(ctx context.Context, batchID int64) (payroll.Export, error)
	BatchSummary(ctx context.Context, batchID int64) (core.BatchSummary, error)
}

// JobPublisher queues an export job for the worker. Nil means the async
// path is disabled and POST /export-jobs returns 503.
type JobPublisher interface {
	PublishExportJob(ctx context.Context, jobID, batchID int64, format string) error
}

type Server struct {
	http.Server
	store     BatchStore
	exporter  Exporter
	publisher JobPublisher

	rateLimiter *rateLimiter

	// Rendered exports are cached per batch+format and invalidated on any
	// write to the batch.
	exportCache *cache.LRUCache[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, store BatchStore, exporter Exporter, publisher JobPublisher, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		exporter:         exporter,
		publisher:        publisher,
		rateLimiter:      newRateLimiter(),
		exportCache:      cache.NewLRUCache[[]byte](100, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /employees", s.withMiddleware(s.handleListEmployees))
	mux.HandleFunc("GET /batches", s.withMiddleware(s.handleListBatches))
	mux.HandleFunc("POST /batches", s.withMiddleware(s.handleCreateBatch))
	mux.HandleFunc("POST /batches/{id}/snapshots", s.withMiddleware(s.handleIngestSnapshot))
	mux.HandleFunc("PUT /batches/{id}/summary", s.withMiddleware(s.handleSaveSummary))
	mux.HandleFunc("GET /batches/{id}/export.csv", s.withMiddleware(s.handleExportCSV))
	mux.HandleFunc("GET /batches/{id}/export.xlsx", s.withMiddleware(s.handleExportXLSX))
	mux.HandleFunc("GET /batches/{id}/summary.csv", s.withMiddleware(s.handleSummaryCSV))
	mux.HandleFunc("POST /batches/{id}/export-jobs", s.withMiddleware(s.handleCreateExportJob))
	mux.HandleFunc("GET /export-jobs/{id}", s.withMiddleware(s.handleExportJobStatus))

	return s
}

// startCacheCleanup runs periodic cleanup for the export cache
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.exportCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Export cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, request IDs, and
// request logging to responses.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate-limit writes; export downloads are covered by the cache.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) exportCacheKey(batchID int64, format string) string {
	return format + ":" + strconv.FormatInt(batchID, 10)
}

func (s *Server) invalidateExports(batchID int64) {
	s.exportCache.Delete(s.exportCacheKey(batchID, "csv"))
	s.exportCache.Delete(s.exportCacheKey(batchID, "xlsx"))
}
