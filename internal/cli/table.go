package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"batchscribe/internal/registry"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderJobTable renders the registry snapshot as a table, optionally
// coloring the status column by phase.
func renderJobTable(jobs []registry.Job, color bool) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.FileName,
			statusCell(job.Status, color),
			elapsedCell(job.Elapsed),
			job.DownloadLink,
		})
	}
	return renderTable(
		[]string{"File", "Status", "Time (s)", "Download"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func statusCell(status registry.Status, color bool) string {
	rendered := status.String()
	if !color {
		return rendered
	}
	switch status.Phase {
	case registry.PhaseFinished:
		return text.FgGreen.Sprint(rendered)
	case registry.PhaseError:
		return text.FgRed.Sprint(rendered)
	case registry.PhasePending:
		return text.FgYellow.Sprint(rendered)
	default:
		return text.FgBlue.Sprint(rendered)
	}
}

func elapsedCell(elapsed registry.Elapsed) string {
	if !elapsed.Valid {
		return "-"
	}
	return strconv.FormatFloat(elapsed.Seconds, 'f', 2, 64)
}
