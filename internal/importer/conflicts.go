package importer

import (
	"context"
	"errors"

	"backend/internal/domain"
	"backend/internal/itemcode"
)

// Action is the caller's per-row resolution for a conflicting record. Skip is
// the default because it is the only choice that mutates nothing.
type Action string

const (
	ActionSkip   Action = "skip"
	ActionUpdate Action = "update"
	ActionError  Action = "error"
)

// Decisions maps file line numbers to the action chosen for that row. Rows
// absent from the map keep the conflict default (skip) if they conflict, or
// proceed as plain inserts if they do not.
type Decisions map[int]Action

// Conflict is a row whose derived item code matches an existing record.
type Conflict struct {
	Row      int    `json:"row"`
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
	Action   Action `json:"action"`
}

func (r *Reconciler) detectItemConflicts(ctx context.Context, rows []ItemRow) ([]Conflict, error) {
	var conflicts []Conflict
	for _, row := range rows {
		code, err := itemRowCode(row)
		if err != nil {
			// Surfaces as a per-row apply error instead.
			continue
		}
		existing, err := r.store.ItemByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, Conflict{
			Row:      row.Line,
			ItemCode: existing.ItemCode,
			ItemName: row.ItemName,
			Action:   ActionSkip,
		})
	}
	return conflicts, nil
}

func (r *Reconciler) detectOpeningConflicts(ctx context.Context, rows []OpeningRow) ([]Conflict, error) {
	var conflicts []Conflict
	for _, row := range rows {
		existing, err := r.store.ItemByCode(ctx, row.ItemCode)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, Conflict{
			Row:      row.Line,
			ItemCode: existing.ItemCode,
			ItemName: existing.ItemName,
			Action:   ActionSkip,
		})
	}
	return conflicts, nil
}

// itemRowCode resolves the identifying code for an item-master row: the
// user-supplied code wins, otherwise one is derived from the descriptive
// attributes.
func itemRowCode(row ItemRow) (string, error) {
	if row.ItemCode != "" {
		return row.ItemCode, nil
	}
	size, err := optionalNumber(row.SizeMM)
	if err != nil {
		return "", err
	}
	gsm, err := optionalNumber(row.GSM)
	if err != nil {
		return "", err
	}
	return itemcode.Generate(row.CategoryName, row.Qualifier, size, gsm)
}
