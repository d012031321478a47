package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/scholaroute/internal/report"
	"github.com/mind-engage/scholaroute/internal/storage"
)

func attachment(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = body.WriteTo(w)
}

// GET /download_allocations/pdf
func FullPDFHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.lastResult(w, r)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := report.WriteFullPDF(&buf, res.Rows); err != nil {
			d.logger().Error("render pdf", "err", err)
			http.Error(w, "Failed to generate PDF.", http.StatusInternalServerError)
			return
		}
		attachment(w, "application/pdf", "allocations_full.pdf", &buf)
	}
}

// GET /download_allocations/csv
func CSVHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.lastResult(w, r)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, res.Rows); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		attachment(w, "text/csv", "allocations.csv", &buf)
	}
}

// GET /download_report/{studentID}  [?format=html]
func StudentReportHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.lastResult(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "studentID")
		row, found := res.Find(id)
		if !found {
			http.Error(w, "Student not found.", http.StatusNotFound)
			return
		}
		var buf bytes.Buffer
		if r.URL.Query().Get("format") == "html" {
			if err := report.WriteStudentHTML(&buf, row); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = buf.WriteTo(w)
			return
		}
		if err := report.WriteStudentPDF(&buf, row); err != nil {
			d.logger().Error("render student pdf", "student_id", id, "err", err)
			http.Error(w, "Failed to generate PDF.", http.StatusInternalServerError)
			return
		}
		attachment(w, "application/pdf", "student_"+storage.SafeName(row.StudentID)+".pdf", &buf)
	}
}
