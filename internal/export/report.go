package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"secureflag-tools/internal/domain"
)

// Report column order. Keep EXACT.
var reportHeader = []string{
	"First Name",
	"Last Name",
	"Email",
	"Joined Date",
	"Activity Title",
	"Due Date",
	"Assigned Date",
	"Completed Date",
	"Status",
	"Type",
}

const reportSheet = "Sheet1"

// Format selects the report file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("export: unknown report format %q (want csv or xlsx)", s)
}

func toReportRow(r domain.ReportRow) []string {
	return []string{
		r.FirstName,     // First Name
		r.LastName,      // Last Name
		r.Email,         // Email
		r.JoinedDate,    // Joined Date
		r.ActivityTitle, // Activity Title
		r.DueDate,       // Due Date
		r.AssignedDate,  // Assigned Date
		r.CompletedDate, // Completed Date
		r.Status,        // Status
		r.Type,          // Type
	}
}

// WriteReportCSV writes the header and one line per row.
func WriteReportCSV(w io.Writer, rows []domain.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(toReportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeReportXLSX(outPath string, rows []domain.ReportRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(reportHeader))
	for i, h := range reportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("export: xlsx header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := toReportRow(r)
		line := make([]any, len(values))
		for j, v := range values {
			line[j] = v
		}
		if err := f.SetSheetRow(reportSheet, cell, &line); err != nil {
			return fmt.Errorf("export: xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("export: save xlsx: %w", err)
	}
	return nil
}

// WriteReportFile writes rows to outPath in the given format. With zero rows
// nothing is written and the returned bool is false.
func WriteReportFile(outPath string, format Format, rows []domain.ReportRow) (bool, error) {
	if len(rows) == 0 {
		return false, nil
	}

	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("export: create output dir: %w", err)
		}
	}

	if format == FormatXLSX {
		if err := writeReportXLSX(outPath, rows); err != nil {
			return false, err
		}
		return true, nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return false, fmt.Errorf("export: create %s: %w", outPath, err)
	}
	if err := WriteReportCSV(f, rows); err != nil {
		f.Close()
		return false, fmt.Errorf("export: write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return true, nil
}
