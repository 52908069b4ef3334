package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// ColumnSpec is one export column: a header and how to read its value.
type ColumnSpec struct {
	Header   string
	Accessor func(rec model.Record) interface{}
}

// FieldColumn reads a (possibly dotted) field.
func FieldColumn(header, field string) ColumnSpec {
	return ColumnSpec{
		Header: header,
		Accessor: func(rec model.Record) interface{} {
			v, _ := rec.Lookup(field)
			return v
		},
	}
}

// FieldColumns binds config columns to accessors.
func FieldColumns(columns []model.Column) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(columns))
	for _, col := range columns {
		header := col.Header
		if header == "" {
			header = col.Field
		}
		specs = append(specs, FieldColumn(header, col.Field))
	}
	return specs
}

// InferColumns lists every top-level key seen in records, sorted, for
// entities without configured columns.
func InferColumns(records []model.Record) []model.Column {
	seen := make(map[string]bool)
	for _, rec := range records {
		for key := range rec {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	columns := make([]model.Column, len(keys))
	for i, key := range keys {
		columns[i] = model.Column{Header: key, Field: key}
	}
	return columns
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name      Format
	MIMEType  string
	Extension string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatCSV:  {Name: FormatCSV, MIMEType: "text/csv; charset=utf-8", Extension: "csv"},
	FormatXLSX: {Name: FormatXLSX, MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extension: "xlsx"},
	FormatJSON: {Name: FormatJSON, MIMEType: "application/json", Extension: "json"},
}

// GetFormatInfo returns metadata for a format name, case-insensitively.
func GetFormatInfo(name string) (FormatInfo, bool) {
	info, ok := FormatRegistry[Format(strings.ToLower(strings.TrimSpace(name)))]
	return info, ok
}

// ExportFilename builds {entity}_export_{YYYY-MM-DD}.{ext}.
func ExportFilename(entity, ext string, now time.Time) string {
	return fmt.Sprintf("%s_export_%s.%s", entity, now.Format("2006-01-02"), ext)
}

// ToCSV renders a header row then one row per record, joined by "\n"
// without a trailing newline. Fields containing commas, quotes or
// newlines are quoted.
func ToCSV(records []model.Record, columns []ColumnSpec) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	// strings.Builder never fails, so write errors cannot occur.
	_ = writer.Write(header)

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = utils.FormatValue(col.Accessor(rec))
		}
		_ = writer.Write(row)
	}
	writer.Flush()

	return strings.TrimSuffix(sb.String(), "\n")
}

// WorkbookSheet is the sheet name used for spreadsheet exports.
const WorkbookSheet = "Export"

// ToWorkbookBytes renders records into a single-sheet XLSX workbook.
// Numeric values stay numeric cells.
func ToWorkbookBytes(records []model.Record, columns []ColumnSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), WorkbookSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(WorkbookSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for r, rec := range records {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = cellValue(col.Accessor(rec))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	if utils.IsNumber(v) {
		return utils.Numeric(v)
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return utils.FormatValue(v)
}

// ToJSON wraps the exported rows in an export_info envelope.
func ToJSON(entity string, records []model.Record, columns []ColumnSpec, now time.Time) ([]byte, error) {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		row := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			row[col.Header] = col.Accessor(rec)
		}
		rows = append(rows, row)
	}

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"entity":       entity,
			"exported_at":  now.UTC(),
			"record_count": len(records),
		},
		"data": rows,
	}

	data, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Encode serializes records in the given format.
func Encode(format Format, entity string, records []model.Record, columns []ColumnSpec, now time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return []byte(ToCSV(records, columns)), nil
	case FormatXLSX:
		return ToWorkbookBytes(records, columns)
	case FormatJSON:
		return ToJSON(entity, records, columns, now)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
