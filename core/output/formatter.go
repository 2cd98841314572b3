// Package output renders allocation results for humans and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"shipalloc/core/flow"
	"shipalloc/core/handler"
	"shipalloc/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes the report for the given result
	Render(w io.Writer, result *flow.Result) error
}

// New returns the formatter for a format name
func New(format string) (Formatter, error) {
	switch Format(format) {
	case FormatCLI:
		return &cliFormatter{}, nil
	case FormatJSON:
		return &jsonFormatter{}, nil
	}
	return nil, errors.Newf(errors.TypeConfig, "unknown output format: %s", format)
}

// Report is the machine-readable view of a run
type Report struct {
	RunID       string                  `json:"run_id"`
	Phase       string                  `json:"phase"`
	Strategy    string                  `json:"strategy"`
	Warehouses  int                     `json:"warehouses"`
	Fingerprint string                  `json:"fingerprint,omitempty"`
	Items       []ReportItem            `json:"items"`
	Failures    []handler.FailureRecord `json:"failures,omitempty"`
	DurationMS  int64                   `json:"duration_ms"`
}

// ReportItem is one stored inventory row
type ReportItem struct {
	WarehouseID int    `json:"warehouse_id"`
	Commodity   string `json:"commodity"`
	Amount      string `json:"amount"`
	Unit        string `json:"unit"`
}

// BuildReport converts a flow result into its report view
func BuildReport(result *flow.Result) *Report {
	report := &Report{
		RunID:      result.RunID.String(),
		Phase:      result.Phase.String(),
		Strategy:   result.Strategy,
		Warehouses: result.WarehouseCount,
		Failures:   result.Context.Failures(),
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Phase != flow.PhaseDone {
		return report
	}
	report.Fingerprint = result.Fingerprint()
	for _, item := range result.Inventory.Items() {
		report.Items = append(report.Items, ReportItem{
			WarehouseID: item.Key.WarehouseID,
			Commodity:   item.Key.Commodity.String(),
			Amount:      item.Quantity.Amount().String(),
			Unit:        item.Quantity.Unit().String(),
		})
	}
	return report
}

type cliFormatter struct{}

func (f *cliFormatter) Format() Format {
	return FormatCLI
}

func (f *cliFormatter) Render(w io.Writer, result *flow.Result) error {
	report := BuildReport(result)

	fmt.Fprintf(w, "Run %s (%s, %s)\n\n", report.RunID, report.Strategy, report.Phase)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WAREHOUSE\tCOMMODITY\tSTORED\tUNIT")
	for _, item := range report.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.WarehouseID, item.Commodity, item.Amount, item.Unit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\n%d row(s) skipped:\n", len(report.Failures))
		for _, rec := range report.Failures {
			fmt.Fprintf(w, "  [%s] %s: %s\n", rec.Stage, rec.Raw, rec.Reason)
		}
	}
	return nil
}

type jsonFormatter struct{}

func (f *jsonFormatter) Format() Format {
	return FormatJSON
}

func (f *jsonFormatter) Render(w io.Writer, result *flow.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(result))
}
