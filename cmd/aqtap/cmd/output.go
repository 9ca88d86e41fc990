/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

const timeLayout = "2006-01-02 15:04:05"

// newTableWriter returns a borderless table writer keeping headers as given.
func newTableWriter(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	return tw
}

// renderTable prints tbl as a text table followed by its row count.
func renderTable(w io.Writer, tbl *table.Table) {
	header := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		header[i] = c.Name
		if c.Unit != "" {
			header[i] = fmt.Sprintf("%s [%s]", c.Name, c.Unit)
		}
	}

	tw := newTableWriter(w, header)
	for _, row := range tbl.Rows {
		tw.Append(formatRow(row))
	}
	tw.Render()

	fmt.Fprintf(w, "%d rows\n", tbl.Len())
}

// writeCSV writes tbl with a header line to w.
func writeCSV(w io.Writer, tbl *table.Table) error {
	writer := gocsv.DefaultCSVWriter(w)
	if err := writer.Write(tbl.ColumnNames()); err != nil {
		return err
	}

	for _, row := range tbl.Rows {
		if err := writer.Write(formatRow(row)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeTable renders tbl on w, or writes it as CSV into output when given.
func writeTable(w io.Writer, tbl *table.Table, output string) error {
	if output == "" {
		renderTable(w, tbl)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeCSV(f, tbl); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Fprintf(w, "%d rows written to %s\n", tbl.Len(), output)
	return f.Close()
}

// describeColumns prints the statistics of the named columns.
func describeColumns(w io.Writer, tbl *table.Table, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	tw := newTableWriter(w, []string{"COLUMN", "UNIT", "COUNT", "NULLS", "MIN", "MAX", "MEAN", "MEDIAN", "STDDEV"})
	for _, column := range columns {
		summary, err := tbl.Describe(column)
		if err != nil {
			return err
		}

		tw.Append([]string{
			summary.Column,
			summary.Unit,
			strconv.Itoa(summary.Count),
			strconv.Itoa(summary.Nulls),
			table.FormatValue(summary.Min),
			table.FormatValue(summary.Max),
			table.FormatValue(summary.Mean),
			table.FormatValue(summary.Median),
			table.FormatValue(summary.StdDev),
		})
	}
	tw.Render()

	return nil
}

func formatRow(row []any) []string {
	values := make([]string, len(row))
	for i, v := range row {
		values[i] = table.FormatValue(v)
	}

	return values
}

// formatPhase colors a job phase by its outcome.
func formatPhase(phase uws.Phase) string {
	switch {
	case phase == uws.PhaseCompleted:
		return color.GreenString("%s", phase)
	case phase == uws.PhaseError || phase == uws.PhaseAborted:
		return color.RedString("%s", phase)
	case phase.IsActive():
		return color.YellowString("%s", phase)
	default:
		return phase.String()
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Local().Format(timeLayout)
}

func formatSize(size int64) string {
	if size <= 0 {
		return ""
	}

	return units.HumanSize(float64(size))
}
