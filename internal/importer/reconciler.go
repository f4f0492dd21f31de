// Package importer implements the CSV bulk-import reconciler: parse, header
// check, exhaustive row validation, conflict detection against existing item
// codes, caller-resolved conflicts, and a batched apply with per-row failure
// isolation.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backend/internal/domain"
)

const applyBatchSize = 10

type Reconciler struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, log: log.Named("importer")}
}

// Preview is everything the caller needs to decide whether and how to apply
// an upload: either validation errors (blocking), or the conflict list with
// default actions.
type Preview struct {
	Kind             Kind              `json:"kind"`
	TotalRows        int               `json:"total_rows"`
	ValidationErrors []domain.RowError `json:"validation_errors,omitempty"`
	Conflicts        []Conflict        `json:"conflicts,omitempty"`

	itemRows    []ItemRow
	openingRows []OpeningRow
}

// Ready reports whether the upload may proceed to apply.
func (p *Preview) Ready() bool {
	return len(p.ValidationErrors) == 0
}

// UploadMeta describes the file for the completion audit record.
type UploadMeta struct {
	FileName string
	UserID   *string
}

// ProgressFunc receives (rows processed so far, rows to process) after each
// batch.
type ProgressFunc func(done, total int)

// Preview runs parse, header mapping, validation and, when validation is
// clean, conflict detection. It never writes.
func (r *Reconciler) Preview(ctx context.Context, kind Kind, raw string) (*Preview, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown import kind %q", kind)
	}

	file, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	columns, err := mapHeader(kind, file.Header)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Kind: kind, TotalRows: len(file.Rows)}
	switch kind {
	case KindItemMaster:
		preview.itemRows = buildItemRows(file, columns)
		preview.ValidationErrors, err = r.validateItemRows(ctx, preview.itemRows)
		if err != nil {
			return nil, err
		}
		if preview.Ready() {
			preview.Conflicts, err = r.detectItemConflicts(ctx, preview.itemRows)
			if err != nil {
				return nil, err
			}
		}
	case KindOpeningStock:
		preview.openingRows = buildOpeningRows(file, columns)
		preview.ValidationErrors = r.validateOpeningRows(preview.openingRows)
		if preview.Ready() {
			preview.Conflicts, err = r.detectOpeningConflicts(ctx, preview.openingRows)
			if err != nil {
				return nil, err
			}
		}
	}
	return preview, nil
}

// Apply re-derives the preview for the raw text and, when validation is
// clean, applies the rows in fixed-size batches. Rows resolved as skip are
// omitted entirely; any other row failure is recorded and the remaining rows
// keep processing. The completion audit write is best effort and never
// changes the reported result.
func (r *Reconciler) Apply(ctx context.Context, kind Kind, raw string, decisions Decisions, meta UploadMeta, progress ProgressFunc) (*domain.ImportResult, error) {
	preview, err := r.Preview(ctx, kind, raw)
	if err != nil {
		return nil, err
	}
	if !preview.Ready() {
		return nil, &ValidationBlockedError{Rows: preview.ValidationErrors}
	}

	actions := make(map[int]Action, len(preview.Conflicts))
	for _, c := range preview.Conflicts {
		actions[c.Row] = c.Action
	}
	for row, action := range decisions {
		if _, conflicting := actions[row]; conflicting {
			actions[row] = action
		}
	}

	var tasks []applyTask
	switch kind {
	case KindItemMaster:
		for _, row := range preview.itemRows {
			row := row
			tasks = appendTask(tasks, row.Line, actions, func(ctx context.Context, action Action) error {
				return r.applyItemRow(ctx, row, action)
			})
		}
	case KindOpeningStock:
		for _, row := range preview.openingRows {
			row := row
			tasks = appendTask(tasks, row.Line, actions, func(ctx context.Context, action Action) error {
				return r.applyOpeningRow(ctx, row, action)
			})
		}
	}

	result := &domain.ImportResult{Total: len(tasks), Errors: []domain.RowError{}}
	for start := 0; start < len(tasks); start += applyBatchSize {
		end := start + applyBatchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		for _, task := range tasks[start:end] {
			if err := task.run(ctx, task.action); err != nil {
				result.Errors = append(result.Errors, domain.RowError{Row: task.row, Message: err.Error()})
				continue
			}
			result.Success++
		}
		done := end
		if progress != nil {
			progress(done, len(tasks))
		}
		r.log.Info("import progress",
			zap.String("kind", string(kind)),
			zap.Int("processed", done),
			zap.Int("total", len(tasks)),
			zap.Int("percent", percent(done, len(tasks))),
		)
	}

	r.recordUpload(ctx, kind, meta, preview.TotalRows, result)
	return result, nil
}

type applyTask struct {
	row    int
	action Action
	run    func(ctx context.Context, action Action) error
}

func appendTask(tasks []applyTask, row int, actions map[int]Action, run func(context.Context, Action) error) []applyTask {
	action, conflicting := actions[row]
	if conflicting && action == ActionSkip {
		return tasks
	}
	if !conflicting {
		action = ""
	}
	return append(tasks, applyTask{row: row, action: action, run: run})
}

func (r *Reconciler) recordUpload(ctx context.Context, kind Kind, meta UploadMeta, totalRows int, result *domain.ImportResult) {
	upload := domain.UploadLog{
		ID:          uuid.NewString(),
		UserID:      meta.UserID,
		FileName:    meta.FileName,
		FileType:    string(kind),
		TotalRows:   totalRows,
		SuccessRows: result.Success,
		ErrorRows:   len(result.Errors),
		Errors:      result.Errors,
	}
	if err := r.store.RecordUpload(ctx, upload); err != nil {
		r.log.Warn("upload audit write failed",
			zap.String("file_name", meta.FileName),
			zap.Error(err),
		)
	}
}

func (r *Reconciler) applyItemRow(ctx context.Context, row ItemRow, action Action) error {
	code, err := itemRowCode(row)
	if err != nil {
		return fmt.Errorf("derive item code: %w", err)
	}
	if action == ActionError {
		return fmt.Errorf("item code %q already exists", code)
	}

	category, err := r.store.CategoryByName(ctx, row.CategoryName)
	if err != nil {
		return fmt.Errorf("category %q: %w", row.CategoryName, err)
	}
	size, _ := optionalNumber(row.SizeMM)
	gsm, _ := optionalNumber(row.GSM)
	status := strings.ToLower(row.Status)
	if status == "" {
		status = domain.StatusActive
	}
	item := domain.Item{
		ItemCode:     code,
		ItemName:     row.ItemName,
		CategoryID:   category.ID,
		CategoryName: category.CategoryName,
		UOM:          row.UOM,
		Qualifier:    optionalString(row.Qualifier),
		SizeMM:       size,
		GSM:          gsm,
		Status:       status,
	}

	if action == ActionUpdate {
		existing, err := r.store.ItemByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("item %q: %w", code, err)
		}
		item.ID = existing.ID
		return r.store.UpdateItem(ctx, item)
	}

	if _, err := r.store.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("insert item %q: %w", code, err)
	}
	return r.store.InitStock(ctx, code)
}

func (r *Reconciler) applyOpeningRow(ctx context.Context, row OpeningRow, action Action) error {
	if action == ActionError {
		return fmt.Errorf("item code %q already exists", row.ItemCode)
	}
	qty, err := parseNumber(row.OpeningQty)
	if err != nil {
		return fmt.Errorf("opening_qty: %w", err)
	}

	if action != ActionUpdate {
		if err := r.ensureOpeningItem(ctx, row); err != nil {
			return err
		}
	}
	return r.store.SetOpeningStock(ctx, row.ItemCode, qty)
}

// ensureOpeningItem creates the item behind a brand-new opening-stock row.
// Unlike the item-master flow, an unknown category here is created on the
// fly.
func (r *Reconciler) ensureOpeningItem(ctx context.Context, row OpeningRow) error {
	_, err := r.store.ItemByCode(ctx, row.ItemCode)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("item %q: %w", row.ItemCode, err)
	}

	if row.ItemName == "" || row.CategoryName == "" || row.UOM == "" {
		return fmt.Errorf("item %q does not exist and the row lacks item_name, category_name or uom", row.ItemCode)
	}
	category, err := r.store.CategoryByName(ctx, row.CategoryName)
	if errors.Is(err, domain.ErrNotFound) {
		category, err = r.store.CreateCategory(ctx, row.CategoryName)
	}
	if err != nil {
		return fmt.Errorf("category %q: %w", row.CategoryName, err)
	}

	item := domain.Item{
		ItemCode:     row.ItemCode,
		ItemName:     row.ItemName,
		CategoryID:   category.ID,
		CategoryName: category.CategoryName,
		UOM:          row.UOM,
		Status:       domain.StatusActive,
	}
	if _, err := r.store.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("insert item %q: %w", row.ItemCode, err)
	}
	return r.store.InitStock(ctx, row.ItemCode)
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return done * 100 / total
}
