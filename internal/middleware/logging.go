// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package middleware provides HTTP middleware for the Spacetraveling server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LogFieldsKey is the context key for the access log fields of a request.
const LogFieldsKey contextKey = "log_fields"

// responseWriter wraps http.ResponseWriter to capture the status code and
// the number of body bytes sent.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write ensures a default 200 status if WriteHeader was never called.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// logFields collects attributes that handlers add to the access log line.
type logFields struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// AddLogAttrs adds attributes to the access log line of the request that
// ctx belongs to. Outside Logger it does nothing.
func AddLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	f, ok := ctx.Value(LogFieldsKey).(*logFields)
	if !ok {
		return
	}
	f.mu.Lock()
	f.attrs = append(f.attrs, attrs...)
	f.mu.Unlock()
}

// Logger writes one access log line per request with the method, path,
// status, size, duration and request id, plus whatever downstream code
// added with AddLogAttrs (preview mode, post slug, page outcome).
//
// Server errors log at Error and rejected clients at Warn. Health checks
// and static assets log at Debug so the page traffic stays readable.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		fields := &logFields{}
		ctx := context.WithValue(r.Context(), LogFieldsKey, fields)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode),
			slog.Int("bytes", wrapped.bytes),
			slog.String("duration", time.Since(start).String()),
			slog.String("remote", r.RemoteAddr),
			slog.String("request_id", RequestIDFromCtx(ctx)),
		}
		fields.mu.Lock()
		attrs = append(attrs, fields.attrs...)
		fields.mu.Unlock()

		slog.LogAttrs(ctx, accessLevel(r.URL.Path, wrapped.statusCode), "http request", attrs...)
	})
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelWarn
	case path == "/health" || strings.HasPrefix(path, "/static/"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
