package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects the import pipeline: the item-master and opening-stock flows
// share parsing and batching but differ in required columns and in how an
// unknown category is handled (item master rejects the row, opening stock
// creates the category).
type Kind string

const (
	KindItemMaster   Kind = "item_master"
	KindOpeningStock Kind = "opening_stock"
)

func (k Kind) Valid() bool {
	return k == KindItemMaster || k == KindOpeningStock
}

var requiredColumns = map[Kind][]string{
	KindItemMaster:   {"item_name", "category_name", "uom"},
	KindOpeningStock: {"item_code", "opening_qty"},
}

var knownColumns = map[Kind][]string{
	KindItemMaster:   {"item_code", "item_name", "category_name", "uom", "qualifier", "size_mm", "gsm", "status"},
	KindOpeningStock: {"item_code", "opening_qty", "item_name", "category_name", "uom"},
}

// RequiredColumns reports the header set a template for the kind must carry.
func RequiredColumns(kind Kind) []string {
	return requiredColumns[kind]
}

// TemplateColumns is the full column order used by templates and exports.
func TemplateColumns(kind Kind) []string {
	return knownColumns[kind]
}

// mapHeader resolves each known column to its index in the header row.
// Matching is case-insensitive and tolerant of space/underscore variants, but
// two header cells resolving to the same column is an error rather than a
// silent overwrite.
func mapHeader(kind Kind, header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for idx, cell := range header {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
		known := false
		for _, col := range knownColumns[kind] {
			if name == col {
				known = true
				break
			}
		}
		if !known {
			continue
		}
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		columns[name] = idx
	}

	var missing []string
	for _, col := range requiredColumns[kind] {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return columns, nil
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\uFEFF")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, " ", "_")
	return value
}

// ItemRow is one typed item-master record. Numeric fields stay raw here; the
// validation stage parses them so every problem in a row can be collected at
// once.
type ItemRow struct {
	Line         int
	ItemCode     string
	ItemName     string
	CategoryName string
	UOM          string
	Qualifier    string
	SizeMM       string
	GSM          string
	Status       string
}

// OpeningRow is one typed opening-stock record. The item columns are optional
// and only consulted when the item does not exist yet.
type OpeningRow struct {
	Line         int
	ItemCode     string
	OpeningQty   string
	ItemName     string
	CategoryName string
	UOM          string
}

func buildItemRows(file *File, columns map[string]int) []ItemRow {
	rows := make([]ItemRow, 0, len(file.Rows))
	for _, line := range file.Rows {
		rows = append(rows, ItemRow{
			Line:         line.Number,
			ItemCode:     cellAt(line.Fields, columns, "item_code"),
			ItemName:     cellAt(line.Fields, columns, "item_name"),
			CategoryName: cellAt(line.Fields, columns, "category_name"),
			UOM:          cellAt(line.Fields, columns, "uom"),
			Qualifier:    cellAt(line.Fields, columns, "qualifier"),
			SizeMM:       cellAt(line.Fields, columns, "size_mm"),
			GSM:          cellAt(line.Fields, columns, "gsm"),
			Status:       cellAt(line.Fields, columns, "status"),
		})
	}
	return rows
}

func buildOpeningRows(file *File, columns map[string]int) []OpeningRow {
	rows := make([]OpeningRow, 0, len(file.Rows))
	for _, line := range file.Rows {
		rows = append(rows, OpeningRow{
			Line:         line.Number,
			ItemCode:     cellAt(line.Fields, columns, "item_code"),
			OpeningQty:   cellAt(line.Fields, columns, "opening_qty"),
			ItemName:     cellAt(line.Fields, columns, "item_name"),
			CategoryName: cellAt(line.Fields, columns, "category_name"),
			UOM:          cellAt(line.Fields, columns, "uom"),
		})
	}
	return rows
}

func cellAt(fields []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func parseNumber(raw string) (float64, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return parsed, nil
}

func optionalNumber(raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseNumber(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
