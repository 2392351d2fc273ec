package http

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// GET /healthz
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// GET /readyz runs every check with a short deadline; any failure yields 503.
func ReadyHandler(checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := make(map[string]string, len(names))
		for _, n := range names {
			if err := checks[n](ctx); err != nil {
				out[n] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			out[n] = "ok"
		}
		writeJSON(w, status, out)
	}
}
