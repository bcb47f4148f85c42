package excel

import (
	"io"
	"strconv"
	"strings"
	"time"

	"planrec/domain/core"
	"planrec/domain/dataset"
	"planrec/internal"

	"github.com/xuri/excelize/v2"
)

// SheetReader turns one named sheet of a workbook into ordered records
type SheetReader struct {
	logger *internal.Logger
}

// NewSheetReader creates a sheet reader logging through logger
func NewSheetReader(logger *internal.Logger) *SheetReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SheetReader{logger: logger.With("SheetReader")}
}

// LoadSheet reads sheetName from the workbook at path
func (r *SheetReader) LoadSheet(path, sheetName string) (*dataset.Sheet, error) {
	return r.Load(FileSource(path), sheetName)
}

// LoadSheetFrom reads sheetName from a workbook stream
func (r *SheetReader) LoadSheetFrom(rd io.Reader, sheetName string) (*dataset.Sheet, error) {
	return r.Load(StreamSource{Reader: rd}, sheetName)
}

// Load opens src, reads sheetName and closes the workbook on every path.
// The first row is the header row; each later row becomes one record.
func (r *SheetReader) Load(src Source, sheetName string) (*dataset.Sheet, error) {
	startTime := time.Now()
	f, err := src.Open()
	if err != nil {
		return nil, core.NewSourceUnavailableError(src.Name(), err)
	}
	defer f.Close()
	r.logger.Debug("%s opened in %.2fms", src.Name(), float64(time.Since(startTime).Nanoseconds())/1e6)

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx == -1 {
		return nil, core.NewSheetNotFoundError(src.Name(), sheetName)
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, core.NewSourceUnavailableError(src.Name(), err)
	}

	sheet := &dataset.Sheet{Name: sheetName}
	if len(rows) == 0 {
		r.logger.Debug("%s is empty", sheetName)
		return sheet, nil
	}

	headerRow := rows[0]
	sheet.Headers = make([]string, len(headerRow))
	for col, raw := range headerRow {
		sheet.Headers[col] = strings.TrimSpace(r.cellText(f, sheetName, col, 1, raw))
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		// GetRows reports rows that hold no cells as empty slices.
		if len(row) == 0 {
			continue
		}
		record := make(dataset.Record, len(sheet.Headers))
		for col, header := range sheet.Headers {
			value := ""
			if col < len(row) {
				value = r.cellText(f, sheetName, col, i+1, row[col])
			}
			record[header] = value
		}
		sheet.Rows = append(sheet.Rows, record)
	}

	r.logger.Debug("%s read in %.2fms (%d columns, %d rows)",
		sheetName, float64(time.Since(readStart).Nanoseconds())/1e6, len(sheet.Headers), len(sheet.Rows))

	return sheet, nil
}

// cellText normalizes a raw cell value: numbers become canonical decimal
// text and booleans become TRUE/FALSE. Anything else is returned unchanged.
func (r *SheetReader) cellText(f *excelize.File, sheetName string, col, rowNum int, raw string) string {
	if raw == "" {
		return ""
	}
	ref, err := excelize.CoordinatesToCellName(col+1, rowNum)
	if err != nil {
		return raw
	}
	cellType, err := f.GetCellType(sheetName, ref)
	if err != nil {
		return raw
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return "TRUE"
		}
		return "FALSE"
	}
	return raw
}
