// Package trace logs one line per completed request.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"expensetracker/internal/log"
)

type Middleware struct {
	extractIP func(*http.Request) string
	total     int64
}

func New(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP}
}

// Handler wraps next, recording status and duration. It expects the request
// logger to be in the context already (see log.Middleware).
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		atomic.AddInt64(&m.total, 1)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ip := ""
		if m.extractIP != nil {
			ip = m.extractIP(r)
		}
		log.LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds(), ip)
	})
}

// TotalRequests returns how many requests have completed.
func (m *Middleware) TotalRequests() int64 {
	return atomic.LoadInt64(&m.total)
}

// RequestID returns the chi request ID for r, if any.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
