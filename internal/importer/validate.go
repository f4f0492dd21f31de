package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend/internal/domain"
)

// validateItemRows collects every violation across the whole file. Rows are
// checked independently and a row with several bad fields reports all of
// them.
func (r *Reconciler) validateItemRows(ctx context.Context, rows []ItemRow) ([]domain.RowError, error) {
	var out []domain.RowError
	for _, row := range rows {
		for _, msg := range r.checkItemRow(ctx, row) {
			out = append(out, domain.RowError{Row: row.Line, Message: msg})
		}
	}
	return out, ctx.Err()
}

func (r *Reconciler) checkItemRow(ctx context.Context, row ItemRow) []string {
	var problems []string
	if row.ItemName == "" {
		problems = append(problems, "item_name is required")
	}
	if row.CategoryName == "" {
		problems = append(problems, "category_name is required")
	} else if _, err := r.store.CategoryByName(ctx, row.CategoryName); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problems = append(problems, fmt.Sprintf("category %q does not exist", row.CategoryName))
		} else {
			problems = append(problems, fmt.Sprintf("category lookup failed: %v", err))
		}
	}
	if row.UOM == "" {
		problems = append(problems, "uom is required")
	}
	if row.SizeMM != "" {
		if _, err := parseNumber(row.SizeMM); err != nil {
			problems = append(problems, "size_mm must be a number")
		}
	}
	if row.GSM != "" {
		if _, err := parseNumber(row.GSM); err != nil {
			problems = append(problems, "gsm must be a number")
		}
	}
	if row.Status != "" {
		switch strings.ToLower(row.Status) {
		case domain.StatusActive, domain.StatusInactive:
		default:
			problems = append(problems, "status must be active or inactive")
		}
	}
	return problems
}

func (r *Reconciler) validateOpeningRows(rows []OpeningRow) []domain.RowError {
	var out []domain.RowError
	for _, row := range rows {
		if row.ItemCode == "" {
			out = append(out, domain.RowError{Row: row.Line, Message: "item_code is required"})
		}
		qty, err := parseNumber(row.OpeningQty)
		switch {
		case err != nil:
			out = append(out, domain.RowError{Row: row.Line, Message: "opening_qty must be a number"})
		case qty < 0:
			out = append(out, domain.RowError{Row: row.Line, Message: "opening_qty cannot be negative"})
		}
	}
	return out
}
