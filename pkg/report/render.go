package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// Columns of the rendered report, in output order.
var header = []string{
	"name",
	"version",
	"pypi:version_age_days",
	"pypi:time_since_last_release_days",
	"pypi:outdated",
	"stats:downloads_90d",
	"gh:stars",
	"gh:watchers",
	"gh:github_url",
}

// WriteCSV renders the report as CSV. Cells for missing source data are
// left empty.
func WriteCSV(r *Report, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(cells(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the report to a CSV file at path.
func ExportCSV(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(r, f)
}

// RenderTable renders the report as an aligned terminal table.
func RenderTable(r *Report, w io.Writer) error {
	table := tablewriter.NewTable(w)
	table.Header(header)
	for _, row := range r.Rows {
		if err := table.Append(cells(row)); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(row Row) []string {
	return []string{
		row.Name,
		row.Version,
		intCell(row.VersionAgeDays),
		intCell(row.TimeSinceLastReleaseDays),
		boolCell(row.Outdated),
		int64Cell(row.Downloads90d),
		intCell(row.Stars),
		intCell(row.Watchers),
		row.GitHubURL,
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func int64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func boolCell(v *bool) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%t", *v)
}
