package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fraudscore/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// DataWriter writes datasets as CSV or XLSX
type DataWriter struct {
	Sheet string
}

// NewDataWriter creates a writer; xlsx output goes to the named sheet
func NewDataWriter() *DataWriter {
	return &DataWriter{Sheet: "Sheet1"}
}

// Write stores ds at path, choosing the format by extension
func (w *DataWriter) Write(path string, ds *dataset.Dataset) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return w.writeCSV(path, ds)
	case ".xlsx":
		return w.writeExcel(path, ds)
	default:
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func (w *DataWriter) writeCSV(path string, ds *dataset.Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(ds.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, ds.NumColumns())
	for i := 0; i < ds.NumRows(); i++ {
		for c, v := range ds.Row(i) {
			record[c] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (w *DataWriter) writeExcel(path string, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.Sheet
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	header := make([]interface{}, 0, ds.NumColumns())
	for _, col := range ds.Columns() {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < ds.NumRows(); i++ {
		cells := make([]interface{}, ds.NumColumns())
		for c, v := range ds.Row(i) {
			cells[c] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
