package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	traceHeader = "X-Trace-ID"
	// unmatchedRoute labels every request no API route claimed.
	unmatchedRoute = "unmatched"
)

// Incoming trace ids outside this shape are replaced with a generated one.
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

type questionNotes struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

type notesKey struct{}

// TraceMiddleware assigns the trace id and prepares the per-request notes the
// question handlers fill in through AnnotateQuestion.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if !traceIDPattern.MatchString(traceID) {
			traceID = newTraceID()
		}
		ctx := ContextWithTraceID(r.Context(), traceID)
		ctx = context.WithValue(ctx, notesKey{}, &questionNotes{})
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AnnotateQuestion attaches question outcome attributes (statement source,
// generator calls, error code) to the request log line.
func AnnotateQuestion(ctx context.Context, attrs ...slog.Attr) {
	notes, ok := ctx.Value(notesKey{}).(*questionNotes)
	if !ok {
		return
	}
	notes.mu.Lock()
	notes.attrs = append(notes.attrs, attrs...)
	notes.mu.Unlock()
}

func questionAttrs(ctx context.Context) []slog.Attr {
	notes, ok := ctx.Value(notesKey{}).(*questionNotes)
	if !ok {
		return nil
	}
	notes.mu.Lock()
	defer notes.mu.Unlock()
	return append([]slog.Attr(nil), notes.attrs...)
}

func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			attrs := []slog.Attr{
				slog.String("trace_id", TraceIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", routeLabel(r)),
				slog.String("path", r.URL.Path),
				slog.Int("status", recorder.status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int("bytes", recorder.bytes),
			}
			attrs = append(attrs, questionAttrs(r.Context())...)
			level := slog.LevelInfo
			if recorder.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r)
		status := strconv.Itoa(recorder.status)
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// routeLabel is the mux pattern that served the request without its method
// prefix, e.g. "/v1/ask". The mux records it on the request it was handed, so
// the middleware must pass r through unchanged.
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return unmatchedRoute
	}
	if _, path, found := strings.Cut(pattern, " "); found {
		return path
	}
	return pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.bytes += n
	return n, err
}

func newTraceID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}
