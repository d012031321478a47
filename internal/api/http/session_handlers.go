package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mind-engage/scholaroute/internal/eventlog"
)

// POST /auth/logout
func LogoutHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who := owner(r)
		s, err := d.Sessions.Discard(r.Context(), who)
		if err != nil {
			d.logger().Warn("discard session", slog.String("owner", who), slog.Any("err", err))
		}
		if s != nil {
			d.dropBlob(s.RosterKey())
		}
		d.record(r, eventlog.TypeSessionDiscarded, who, map[string]bool{"live": s != nil})
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

// GET /health
func HealthHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok, err := d.Sessions.Lookup(r.Context(), owner(r))
		if err != nil {
			d.logger().Warn("health session lookup", slog.Any("err", err))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "ok",
			"session":            ok,
			"allocations_loaded": ok && s.HasAllocations(),
		})
	}
}

// GET /events?limit=N
func EventsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Audit == nil {
			http.Error(w, "audit log disabled", http.StatusNotFound)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := d.Audit.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []eventlog.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
