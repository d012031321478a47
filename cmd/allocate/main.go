// Command allocate runs one allocation pass over a roster file and prints or
// exports the result without starting the server.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/mind-engage/scholaroute/internal/allocation"
	"github.com/mind-engage/scholaroute/internal/config"
	"github.com/mind-engage/scholaroute/internal/report"
	"github.com/mind-engage/scholaroute/internal/roster"
)

type options struct {
	Roster    string
	Catalog   string
	Overrides string
	CSV       string
	PDF       string
	HTML      string
	Summary   bool
	Quiet     bool
	LogLevel  string
}

func main() {
	var o options
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	fs.StringVarP(&o.Roster, "roster", "r", "", "student roster (.xlsx, .csv or .json)")
	fs.StringVarP(&o.Catalog, "catalog", "c", "universities.json", "university catalog (.json or .yaml)")
	fs.StringVarP(&o.Overrides, "overrides", "o", "", "JSON file of manual overrides keyed by student id")
	fs.StringVar(&o.CSV, "csv", "", "write the full CSV export to this path")
	fs.StringVar(&o.PDF, "pdf", "", "write the allocations PDF to this path")
	fs.StringVar(&o.HTML, "html", "", "write the allocations HTML table to this path")
	fs.BoolVarP(&o.Summary, "summary", "s", false, "print outcome counts and per-course placements")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "do not print the allocations table")
	fs.StringVar(&o.LogLevel, "log-level", "warn", "debug|info|warn|error")
	_ = fs.Parse(os.Args[1:])

	if err := config.LoadDotEnv(); err != nil {
		color.Red("load .env: %v", err)
		os.Exit(1)
	}
	log := config.Config{LogLevel: o.LogLevel}.NewLogger(os.Stderr)
	if err := run(o, os.Stdout, log); err != nil {
		color.Red("allocate: %v", err)
		os.Exit(1)
	}
}

func run(o options, out io.Writer, log *slog.Logger) error {
	if o.Roster == "" {
		return errors.New("--roster is required")
	}
	f, err := os.Open(o.Roster)
	if err != nil {
		return err
	}
	ros, err := roster.Decode(f, o.Roster)
	f.Close()
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}

	cat, err := allocation.LoadCatalogFile(o.Catalog)
	if err != nil {
		return err
	}

	ovs := allocation.Overrides{}
	if o.Overrides != "" {
		data, err := os.ReadFile(o.Overrides)
		if err != nil {
			return err
		}
		if ovs, err = allocation.ParseOverridesJSON(data); err != nil {
			return fmt.Errorf("parse overrides: %w", err)
		}
	}

	res, err := allocation.Allocate(ros, cat, ovs, allocation.WithLogger(log))
	if err != nil {
		return err
	}

	if !o.Quiet {
		report.WriteTable(out, res.Rows)
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(out, color.YellowString("warning: %s", w))
	}
	if o.Summary {
		fmt.Fprintln(out, color.CyanString("\nSummary"))
		report.WriteSummary(out, allocation.Summarize(res.Rows))
	}

	exports := []struct {
		path  string
		write func(io.Writer) error
	}{
		{o.CSV, func(w io.Writer) error { return report.WriteCSV(w, res.Rows) }},
		{o.PDF, func(w io.Writer) error { return report.WriteFullPDF(w, res.Rows) }},
		{o.HTML, func(w io.Writer) error { return report.WriteHTMLTable(w, res.Rows) }},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := writeFile(e.path, e.write); err != nil {
			return fmt.Errorf("write %s: %w", e.path, err)
		}
		fmt.Fprintln(out, color.GreenString("wrote %s", e.path))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
