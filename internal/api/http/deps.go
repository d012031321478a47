// Package http exposes allocation sessions over a chi router.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mind-engage/scholaroute/internal/allocation"
	auth "github.com/mind-engage/scholaroute/internal/auth/middleware"
	"github.com/mind-engage/scholaroute/internal/eventlog"
	"github.com/mind-engage/scholaroute/internal/report"
	"github.com/mind-engage/scholaroute/internal/session"
	"github.com/mind-engage/scholaroute/internal/storage"
)

const defaultMaxUpload = 32 << 20

// CatalogSource returns the current university catalog. It is called once per
// allocation so edits to the catalog file apply to the next run.
type CatalogSource func() (allocation.Catalog, error)

// CatalogFile reads the catalog from path on every call.
func CatalogFile(path string) CatalogSource {
	return func() (allocation.Catalog, error) { return allocation.LoadCatalogFile(path) }
}

// StaticCatalog always returns c.
func StaticCatalog(c allocation.Catalog) CatalogSource {
	return func() (allocation.Catalog, error) { return c, nil }
}

// EventReader lists recent audit events.
type EventReader interface {
	Recent(ctx context.Context, limit int) ([]eventlog.Event, error)
}

type Deps struct {
	Sessions *session.Manager
	Blobs    storage.BlobStore // optional; uploads are not kept when nil
	Catalog  CatalogSource
	Events   eventlog.Recorder // optional
	Audit    EventReader       // optional
	Log      *slog.Logger

	MaxUploadBytes int64
}

func (d *Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Log
}

func (d *Deps) maxUpload() int64 {
	if d.MaxUploadBytes <= 0 {
		return defaultMaxUpload
	}
	return d.MaxUploadBytes
}

// owner is the session key for the request: the token subject, or the shared
// default owner when no subject is attached.
func owner(r *http.Request) string {
	if sub := auth.SubjectFromContext(r.Context()); sub != "" {
		return sub
	}
	return auth.DefaultOwner
}

// currentSession returns the caller's session, creating it on first use.
func (d *Deps) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := d.Sessions.Get(r.Context(), owner(r))
	if err != nil {
		d.logger().Error("load session", slog.String("owner", owner(r)), slog.Any("err", err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

// lastResult writes 404 and returns false when the caller has nothing allocated.
func (d *Deps) lastResult(w http.ResponseWriter, r *http.Request) (*allocation.Result, bool) {
	s, ok, err := d.Sessions.Lookup(r.Context(), owner(r))
	if err != nil {
		d.logger().Error("load session", slog.String("owner", owner(r)), slog.Any("err", err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	if !ok || !s.HasAllocations() {
		http.Error(w, report.NoAllocations, http.StatusNotFound)
		return nil, false
	}
	return s.LastResult(), true
}

func (d *Deps) save(r *http.Request, s *session.Session) {
	if err := d.Sessions.Save(r.Context(), s); err != nil {
		d.logger().Warn("persist session", slog.String("owner", s.Owner()), slog.Any("err", err))
	}
}

func (d *Deps) record(r *http.Request, typ, key string, data any) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Record(r.Context(), typ, key, data); err != nil {
		d.logger().Warn("record event", slog.String("type", typ), slog.Any("err", err))
	}
}

func (d *Deps) catalog() (allocation.Catalog, error) {
	if d.Catalog == nil {
		return nil, errors.New("no catalog configured")
	}
	return d.Catalog()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
