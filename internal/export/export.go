// Package export renders item-master and stock-summary data for download:
// CSV in the same column order the import templates use, and XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"backend/internal/domain"
	"backend/internal/importer"
)

// TemplateCSV returns the header line for an import template of the given
// kind.
func TemplateCSV(kind importer.Kind) string {
	return strings.Join(importer.TemplateColumns(kind), ",") + "\n"
}

// ItemsCSV renders items using the item-master template columns, so an
// exported file can be fed straight back into the importer.
func ItemsCSV(items []domain.Item) string {
	var b strings.Builder
	b.WriteString(TemplateCSV(importer.KindItemMaster))
	for _, item := range items {
		fields := []string{
			item.ItemCode,
			item.ItemName,
			item.CategoryName,
			item.UOM,
			stringOrEmpty(item.Qualifier),
			numberOrEmpty(item.SizeMM),
			numberOrEmpty(item.GSM),
			item.Status,
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvField(f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ItemsXLSX renders the item master as a single-sheet workbook.
func ItemsXLSX(items []domain.Item) ([]byte, error) {
	headers := importer.TemplateColumns(importer.KindItemMaster)
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			item.ItemCode,
			item.ItemName,
			item.CategoryName,
			item.UOM,
			stringOrEmpty(item.Qualifier),
			floatCell(item.SizeMM),
			floatCell(item.GSM),
			item.Status,
		})
	}
	return writeWorkbook("Items", headers, rows)
}

// StockSummaryXLSX renders derived summary rows as a single-sheet workbook.
func StockSummaryXLSX(summary []domain.StockSummaryRow) ([]byte, error) {
	headers := []string{
		"item_code", "item_name", "category_name", "uom", "status",
		"opening_qty", "current_qty", "total_received", "total_issued",
		"calculated_qty", "validation_status",
		"consumption_rate_30d", "days_of_cover",
	}
	rows := make([][]any, 0, len(summary))
	for _, row := range summary {
		rows = append(rows, []any{
			row.ItemCode, row.ItemName, row.CategoryName, row.UOM, row.Status,
			row.OpeningQty, row.CurrentQty, row.TotalReceived, row.TotalIssued,
			row.CalculatedQty, row.ValidationStatus,
			row.ConsumptionRate30, row.DaysOfCover,
		})
	}
	return writeWorkbook("Stock Summary", headers, rows)
}

func writeWorkbook(sheet string, headers []string, rows [][]any) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for col, name := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header %q: %w", name, err)
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// csvField quotes fields containing commas so the importer's tokenizer reads
// them back as one field. Embedded quotes are dropped; the tokenizer has no
// escape for them.
func csvField(value string) string {
	value = strings.ReplaceAll(value, `"`, "")
	if strings.Contains(value, ",") {
		return `"` + value + `"`
	}
	return value
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func numberOrEmpty(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func floatCell(value *float64) any {
	if value == nil {
		return ""
	}
	return *value
}
