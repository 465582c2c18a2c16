package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/medevidence/rctx/rob"
	"github.com/medevidence/rctx/schema"
)

// metaColumns lead every tabular export, ahead of the schema fields.
var metaColumns = []string{"filename", "status", "error", "extraction_mode", "model", "extracted_at"}

// Columns returns the full export header: run metadata, every schema
// field in registry order, then one risk-of-bias column per domain.
func Columns() []string {
	cols := make([]string, 0, len(metaColumns)+len(schema.Names())+len(rob.DomainOrder))
	cols = append(cols, metaColumns...)
	cols = append(cols, schema.Names()...)
	for _, domain := range rob.DomainOrder {
		cols = append(cols, "rob_"+domain)
	}
	return cols
}

// WriteJSON writes the batch results as one indented JSON array.
func WriteJSON(path string, results []FileResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: encoding results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteCSV writes the batch results as a flat CSV, one row per file.
// Failed files still get a row so the batch manifest is complete.
func WriteCSV(path string, results []FileResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns()); err != nil {
		return err
	}
	for _, res := range results {
		if err := w.Write(row(res)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes the batch results as a single-sheet workbook with the
// header row frozen.
func WriteXLSX(path string, results []FileResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Extractions"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range Columns() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for i, res := range results {
		for col, value := range row(res) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func row(res FileResult) []string {
	cols := Columns()
	out := make([]string, len(cols))
	out[0] = res.File
	out[1] = string(res.Status)
	out[2] = res.Error
	if res.Result == nil {
		return out
	}
	out[3] = cellString(res.Result["extraction_mode"])
	out[4] = cellString(res.Result["model"])
	out[5] = cellString(res.Result["extracted_at"])
	for i := len(metaColumns); i < len(cols); i++ {
		if value, ok := res.Result[cols[i]]; ok {
			out[i] = cellString(value)
		}
	}
	return out
}

// cellString flattens a result value for tabular output. Nested values
// (demographics groups, layout table summaries) become compact JSON.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
