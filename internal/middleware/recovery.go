// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// ErrorRenderer writes the site's error page for a status code.
type ErrorRenderer interface {
	Error(w http.ResponseWriter, r *http.Request, status int)
}

// Recoverer turns a panic in a page handler or template into the site's
// 500 page. When the handler had already started the response nothing
// more is written; the visitor gets a truncated page and the panic is
// logged. http.ErrAbortHandler is re-raised so net/http aborts the
// connection quietly.
func Recoverer(errs ErrorRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				slog.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"response_started", tracked.written,
					"request_id", RequestIDFromCtx(r.Context()),
					"stack", string(debug.Stack()),
				)
				if tracked.written {
					return
				}
				errs.Error(w, r, http.StatusInternalServerError)
			}()

			next.ServeHTTP(tracked, r)
		})
	}
}
