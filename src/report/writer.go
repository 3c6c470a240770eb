package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"path/filepath"

	"jobcorr/src/correlate"
	"jobcorr/src/internal/common"
	"jobcorr/src/internal/errors"
)

// Artifact file names inside the report directory
const (
	HTMLReportFile  = "comparison_report.html"
	FullCSVFile     = "comparison_table_full.csv"
	FilteredCSVFile = "comparison_table.csv"
)

// DefaultHTMLRowCap bounds the HTML table size
const DefaultHTMLRowCap = 500

// WriterOptions controls rendering of the configurable artifacts
type WriterOptions struct {
	Columns    []string
	HTMLRowCap int
}

func (o WriterOptions) columns() []string {
	if len(o.Columns) == 0 {
		return correlate.DefaultColumns
	}
	return o.Columns
}

func (o WriterOptions) rowCap() int {
	if o.HTMLRowCap <= 0 {
		return DefaultHTMLRowCap
	}
	return o.HTMLRowCap
}

// Artifacts holds the paths of the files a report run produced
type Artifacts struct {
	HTML        string
	FullCSV     string
	FilteredCSV string
}

// Writer renders one report directory
type Writer struct {
	dir  string
	opts WriterOptions
	tmpl *template.Template
}

// NewWriter creates a writer targeting dir, which must already exist
func NewWriter(dir string, opts WriterOptions) (*Writer, error) {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	tmpl, err := template.New("report").Funcs(funcs).Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &Writer{dir: dir, opts: opts, tmpl: tmpl}, nil
}

// Write emits the HTML page and both CSV exports. The full export covers the
// valid-preferred rows of res; the HTML table and filtered CSV cover filtered.
func (w *Writer) Write(res correlate.Result, filtered []correlate.Row, summary Summary) (Artifacts, error) {
	columns := w.opts.columns()
	warnUnknownColumns(columns)

	art := Artifacts{
		HTML:        filepath.Join(w.dir, HTMLReportFile),
		FullCSV:     filepath.Join(w.dir, FullCSVFile),
		FilteredCSV: filepath.Join(w.dir, FilteredCSVFile),
	}

	page, err := w.renderHTML(columns, filtered, summary)
	if err != nil {
		return art, errors.NewOutputWriteError(HTMLReportFile, art.HTML, err)
	}
	if err := writeArtifact(HTMLReportFile, art.HTML, page); err != nil {
		return art, err
	}
	common.ReportLogger.Info("HTML report: %s", art.HTML)

	full, err := renderCSV(correlate.FullColumns, res.Preferred())
	if err != nil {
		return art, errors.NewOutputWriteError(FullCSVFile, art.FullCSV, err)
	}
	if err := writeArtifact(FullCSVFile, art.FullCSV, full); err != nil {
		return art, err
	}

	table, err := renderCSV(columns, filtered)
	if err != nil {
		return art, errors.NewOutputWriteError(FilteredCSVFile, art.FilteredCSV, err)
	}
	if err := writeArtifact(FilteredCSVFile, art.FilteredCSV, table); err != nil {
		return art, err
	}
	common.ReportLogger.Info("CSV exports: %s, %s", art.FullCSV, art.FilteredCSV)

	return art, nil
}

func writeArtifact(name, path string, data []byte) error {
	if err := common.WriteFileAtomic(path, data); err != nil {
		return errors.NewOutputWriteError(name, path, err)
	}
	return nil
}

func warnUnknownColumns(columns []string) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if correlate.KnownColumn(c) || seen[c] {
			continue
		}
		seen[c] = true
		common.ReportLogger.Warn("unknown report column %q renders empty", c)
	}
}

func renderCSV(columns []string, rows []correlate.Row) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := cw.Write(row.Record(columns)); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type htmlPage struct {
	Summary Summary
	Columns []string
	Rows    [][]string
	Hidden  int
}

func (w *Writer) renderHTML(columns []string, rows []correlate.Row, summary Summary) ([]byte, error) {
	page := htmlPage{Summary: summary, Columns: columns}
	shown := rows
	if limit := w.opts.rowCap(); len(shown) > limit {
		page.Hidden = len(shown) - limit
		shown = shown[:limit]
	}
	page.Rows = make([][]string, len(shown))
	for i, row := range shown {
		page.Rows[i] = row.Record(columns)
	}

	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Jobs vs Events Comparison</title>
  <style>
    body { font-family: -apple-system, Segoe UI, Roboto, Arial, sans-serif; margin: 16px; }
    h2 { margin-top: 16px; }
    .card { border: 1px solid #e5e7eb; border-radius: 8px; padding: 16px; margin-top: 12px; }
    .warning { color: #dc2626; }
    table { width: 100%; border-collapse: collapse; margin-top: 12px; font-size: 12px; }
    th, td { border: 1px solid #eee; padding: 6px 8px; text-align: left; }
    th { background: #fafafa; position: sticky; top: 0; }
  </style>
</head>
<body>
  <h1>Request metrics vs job records</h1>
  <p>Total matched: <b>{{.Summary.Matched}}</b>. Valid rows: <b>{{.Summary.Valid}}</b>.</p>
  {{- if .Summary.NoValidRows}}
  <p class="warning">No valid rows; showing all rows with gaps.</p>
  {{- end}}

  <div class="card">
    <h2>|delta| distribution (ms)</h2>
    <table>
      <thead>
        <tr><th>column</th><th>n</th><th>p50</th><th>p90</th><th>p99</th><th>max</th><th>out of range</th></tr>
      </thead>
      <tbody>
        {{- range .Summary.Distributions}}
        <tr><td>{{.Column}}</td><td>{{.Count}}</td><td>{{.P50}}</td><td>{{.P90}}</td><td>{{.P99}}</td><td>{{.Max}}</td><td>{{.OutOfRange}}</td></tr>
        {{- end}}
      </tbody>
    </table>
  </div>

  <div class="card">
    <h2>Rows</h2>
    {{- if .Hidden}}
    <p>{{.Hidden}} more rows are in the CSV export.</p>
    {{- end}}
    <table>
      <thead>
        <tr>
          <th>#</th>
          {{- range .Columns}}
          <th>{{.}}</th>
          {{- end}}
        </tr>
      </thead>
      <tbody>
        {{- range $i, $row := .Rows}}
        <tr><td>{{inc $i}}</td>{{range $row}}<td>{{.}}</td>{{end}}</tr>
        {{- end}}
      </tbody>
    </table>
  </div>
</body>
</html>
`
