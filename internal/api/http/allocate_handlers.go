package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mind-engage/scholaroute/internal/allocation"
	"github.com/mind-engage/scholaroute/internal/eventlog"
	"github.com/mind-engage/scholaroute/internal/report"
	"github.com/mind-engage/scholaroute/internal/roster"
	"github.com/mind-engage/scholaroute/internal/session"
	"github.com/mind-engage/scholaroute/internal/storage"
)

type allocationsOut struct {
	Rows     []allocation.Row     `json:"rows"`
	Warnings []allocation.Warning `json:"warnings"`
	Summary  allocation.Summary   `json:"summary"`
}

func allocationsJSON(res *allocation.Result) allocationsOut {
	out := allocationsOut{Rows: res.Rows, Warnings: res.Warnings, Summary: allocation.Summarize(res.Rows)}
	if out.Rows == nil {
		out.Rows = []allocation.Row{}
	}
	if out.Warnings == nil {
		out.Warnings = []allocation.Warning{}
	}
	return out
}

// POST /allocate  multipart file=<roster.xlsx|csv|json>  [?format=json]
func AllocateHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.maxUpload())
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}

		s, ok := d.currentSession(w, r)
		if !ok {
			return
		}
		log := d.logger().With(slog.String("owner", s.Owner()), slog.String("file", hdr.Filename))

		var key string
		if d.Blobs != nil {
			key, err = d.Blobs.Put(storage.RosterKey(s.Owner(), hdr.Filename), bytes.NewReader(data))
			if err != nil {
				http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		prevKey := s.RosterKey()

		res, err := d.allocateUpload(s, data, hdr.Filename, key)
		if err != nil {
			log.Warn("allocation failed", slog.Any("err", err))
			d.dropBlob(key)
			http.Error(w, "Allocation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if prevKey != "" && prevKey != key {
			d.dropBlob(prevKey)
		}
		d.save(r, s)
		summary := allocation.Summarize(res.Rows)
		d.record(r, eventlog.TypeAllocationRun, s.Owner(), map[string]any{
			"file":          hdr.Filename,
			"roster_key":    key,
			"students":      summary.Students,
			"allocated":     summary.Allocated,
			"not_allocated": summary.NotAllocated,
			"warnings":      len(res.Warnings),
		})
		log.Info("allocated roster",
			slog.Int("students", summary.Students),
			slog.Int("allocated", summary.Allocated),
			slog.Int("warnings", len(res.Warnings)))

		if r.URL.Query().Get("format") == "json" {
			writeJSON(w, http.StatusOK, allocationsJSON(res))
			return
		}
		var buf bytes.Buffer
		if err := report.WriteHTMLTable(&buf, res.Rows); err != nil {
			http.Error(w, "render: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

func (d *Deps) allocateUpload(s *session.Session, data []byte, filename, key string) (*allocation.Result, error) {
	ros, err := roster.Decode(bytes.NewReader(data), filename)
	if err != nil {
		return nil, err
	}
	cat, err := d.catalog()
	if err != nil {
		return nil, err
	}
	return s.Allocate(ros, key, cat)
}

func (d *Deps) dropBlob(key string) {
	if d.Blobs == nil || key == "" {
		return
	}
	if err := d.Blobs.Delete(key); err != nil {
		d.logger().Warn("delete roster blob", slog.String("key", key), slog.Any("err", err))
	}
}

type overrideIn struct {
	StudentID  string  `json:"student_id"`
	University *string `json:"university"`
	Course     *string `json:"course"`
}

// readOverride accepts JSON or form fields. A university or course that is
// not sent at all becomes allocation.ManualOverride; a sent value is kept.
func readOverride(r *http.Request) (string, allocation.Override, error) {
	var in overrideIn
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return "", allocation.Override{}, errors.New("bad json")
		}
	} else {
		in.StudentID = r.FormValue("student_id")
		if v, ok := r.Form["university"]; ok && len(v) > 0 {
			in.University = &v[0]
		}
		if v, ok := r.Form["course"]; ok && len(v) > 0 {
			in.Course = &v[0]
		}
	}
	id := strings.TrimSpace(in.StudentID)
	if id == "" {
		return "", allocation.Override{}, errors.New("student_id required")
	}
	ov := allocation.Override{University: allocation.ManualOverride, Course: allocation.ManualOverride}
	if in.University != nil {
		ov.University = strings.TrimSpace(*in.University)
	}
	if in.Course != nil {
		ov.Course = strings.TrimSpace(*in.Course)
	}
	return id, ov, nil
}

// POST /override  form or JSON {student_id, university, course}
func OverrideHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, ov, err := readOverride(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s, ok := d.currentSession(w, r)
		if !ok {
			return
		}
		if !s.HasRoster() {
			http.Error(w, "No uploaded data to override yet.", http.StatusBadRequest)
			return
		}
		cat, err := d.catalog()
		if err != nil {
			http.Error(w, "Re-allocation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := s.ApplyOverride(cat, studentID, ov); err != nil {
			if errors.Is(err, session.ErrNoRoster) {
				http.Error(w, "No uploaded data to override yet.", http.StatusBadRequest)
				return
			}
			http.Error(w, "Re-allocation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		d.save(r, s)
		d.record(r, eventlog.TypeOverrideApplied, s.Owner(), map[string]string{
			"student_id": studentID,
			"university": ov.University,
			"course":     ov.Course,
		})
		d.logger().Info("override applied", slog.String("owner", s.Owner()), slog.String("student_id", studentID))
		writeJSON(w, http.StatusOK, map[string]string{"status": "override applied", "student_id": studentID})
	}
}

// GET /overrides
func GetOverridesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok, err := d.Sessions.Lookup(r.Context(), owner(r))
		if err != nil {
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		ovs := allocation.Overrides{}
		if ok {
			ovs = s.Overrides()
		}
		writeJSON(w, http.StatusOK, ovs)
	}
}

// PUT /overrides  {"<student id>": {"University": "...", "Course": "..."}}
func ReplaceOverridesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxUpload()))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		ovs, err := allocation.ParseOverridesJSON(body)
		if err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		s, ok := d.currentSession(w, r)
		if !ok {
			return
		}
		var cat allocation.Catalog
		if s.HasRoster() {
			if cat, err = d.catalog(); err != nil {
				http.Error(w, "Re-allocation failed: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		res, err := s.ReplaceOverrides(cat, ovs)
		if err != nil {
			http.Error(w, "Re-allocation failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		d.save(r, s)
		current := s.Overrides()
		d.record(r, eventlog.TypeOverridesReplaced, s.Owner(), map[string]int{"count": len(current)})
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "overrides replaced",
			"count":       len(current),
			"reallocated": res != nil,
		})
	}
}

// GET /allocations
func AllocationsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.lastResult(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, allocationsJSON(res))
	}
}

// GET /allocations/summary
func SummaryHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.lastResult(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, allocation.Summarize(res.Rows))
	}
}

// GET /catalog
func CatalogHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := d.catalog()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if cat == nil {
			cat = allocation.Catalog{}
		}
		writeJSON(w, http.StatusOK, cat)
	}
}
