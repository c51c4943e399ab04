package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fraudscore/adapters/datareadiness/coercer"
	"fraudscore/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// ReaderConfig controls how tabular files are loaded
type ReaderConfig struct {
	Sheet       string                 // xlsx sheet; empty means the first sheet
	MaxRows     int                    // 0 reads every row
	DropColumns []string               // never loaded, matched case-insensitively
	Coercion    coercer.CoercionConfig // cell typing rules
}

// DefaultReaderConfig reads every row of the first sheet with dataframe-like typing and
// drops the row identifier column "id"
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		DropColumns: []string{"id"},
		Coercion:    coercer.DefaultCoercionConfig(),
	}
}

// DataReader handles reading Excel and CSV files into datasets
type DataReader struct {
	config  ReaderConfig
	coercer *coercer.TypeCoercer
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig) *DataReader {
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.Coercion),
	}
}

// Read loads a file, choosing the format by extension
func (r *DataReader) Read(path string) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", path)
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = r.readCSVRows(path)
	case ".xlsx", ".xlsm":
		rows, err = r.readExcelRows(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	return r.processRows(rows)
}

// ReadCSV loads CSV content from any reader
func (r *DataReader) ReadCSV(src io.Reader) (*dataset.Dataset, error) {
	rows, err := r.csvRows(src)
	if err != nil {
		return nil, err
	}
	return r.processRows(rows)
}

func (r *DataReader) readExcelRows(path string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return r.csvRows(file)
}

func (r *DataReader) csvRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	readStart := time.Now()
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
		// header plus MaxRows data rows
		if r.config.MaxRows > 0 && len(rows) > r.config.MaxRows {
			break
		}
	}
	log.Printf("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows types each column and builds the dataset. Short rows are padded with missing cells.
func (r *DataReader) processRows(rows [][]string) (*dataset.Dataset, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have at least a header row and one data row")
	}

	var headers []string
	var keep []int
	for i, header := range rows[0] {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if r.dropped(header) {
			log.Printf("[DataReader] column %s dropped", header)
			continue
		}
		headers = append(headers, header)
		keep = append(keep, i)
	}

	body := rows[1:]
	if r.config.MaxRows > 0 && len(body) > r.config.MaxRows {
		body = body[:r.config.MaxRows]
	}

	columns := make([][]dataset.Value, len(headers))
	for c := range headers {
		src := keep[c]
		raw := make([]string, len(body))
		for i, row := range body {
			if src < len(row) {
				raw[i] = row[src]
			}
		}
		values, kind := r.coercer.CoerceColumn(raw)
		columns[c] = values
		log.Printf("[DataReader] column %s typed as %s", headers[c], kind)
	}

	ds, err := dataset.New(headers)
	if err != nil {
		return nil, err
	}
	for i := range body {
		row := make([]dataset.Value, len(headers))
		for c := range headers {
			row[c] = columns[c][i]
		}
		if err := ds.Append(row); err != nil {
			return nil, err
		}
	}

	log.Printf("[DataReader] file processed (%d columns, %d rows)", len(headers), ds.NumRows())
	return ds, nil
}

func (r *DataReader) dropped(header string) bool {
	for _, name := range r.config.DropColumns {
		if strings.EqualFold(header, name) {
			return true
		}
	}
	return false
}
