package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"backend/internal/domain"
	"backend/internal/stock"
)

type ReceiptCreateInput struct {
	GRNNumber   string
	ItemCode    string
	QtyReceived float64
	Vendor      *string
	InvoiceNo   *string
	Amount      *float64
	Remarks     *string
}

type IssueCreateInput struct {
	ItemCode  string
	QtyIssued float64
	Purpose   string
	Remarks   *string
}

type LogListFilter struct {
	ItemCode string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// InitStock creates the zero-quantity stock record for a new item. Calling it
// twice is harmless.
func (r *Repository) InitStock(ctx context.Context, itemCode string) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO stock (item_code, opening_qty, current_qty)
		VALUES ($1, 0, 0)
		ON CONFLICT (item_code) DO NOTHING
	`, strings.TrimSpace(itemCode)); err != nil {
		return fmt.Errorf("init stock for %q: %w", itemCode, err)
	}
	return nil
}

// SetOpeningStock overwrites the opening balance and resets the running
// balance to it. Used by the opening-stock import.
func (r *Repository) SetOpeningStock(ctx context.Context, itemCode string, openingQty float64) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO stock (item_code, opening_qty, current_qty)
		VALUES ($1, $2, $2)
		ON CONFLICT (item_code) DO UPDATE SET
			opening_qty = EXCLUDED.opening_qty,
			current_qty = EXCLUDED.current_qty,
			updated_at = NOW()
	`, strings.TrimSpace(itemCode), openingQty); err != nil {
		return fmt.Errorf("set opening stock for %q: %w", itemCode, err)
	}
	return nil
}

func (r *Repository) GetStock(ctx context.Context, itemCode string) (*domain.StockRecord, error) {
	var s domain.StockRecord
	err := r.pool.QueryRow(ctx, `
		SELECT item_code, opening_qty::double precision, current_qty::double precision, updated_at
		FROM stock
		WHERE item_code = $1
	`, strings.TrimSpace(itemCode)).Scan(&s.ItemCode, &s.OpeningQty, &s.CurrentQty, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock %q: %w", itemCode, err)
	}
	return &s, nil
}

// CreateReceipt appends a GRN entry and bumps the running balance in one
// transaction.
func (r *Repository) CreateReceipt(ctx context.Context, input ReceiptCreateInput) (*domain.ReceiptRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin receipt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentQty float64
	err = tx.QueryRow(ctx,
		"SELECT current_qty::double precision FROM stock WHERE item_code = $1 FOR UPDATE",
		input.ItemCode,
	).Scan(&currentQty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock %q: %w", input.ItemCode, err)
	}

	var rec domain.ReceiptRecord
	if err := tx.QueryRow(ctx, `
		INSERT INTO grn_log (grn_number, item_code, qty_received, vendor, invoice_no, amount, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, grn_number, item_code, qty_received::double precision, created_at
	`, input.GRNNumber, input.ItemCode, input.QtyReceived, input.Vendor, input.InvoiceNo, input.Amount, input.Remarks,
	).Scan(&rec.ID, &rec.GRNNumber, &rec.ItemCode, &rec.QtyReceived, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert grn entry: %w", err)
	}
	rec.Vendor = input.Vendor
	rec.InvoiceNo = input.InvoiceNo
	rec.Amount = input.Amount
	rec.Remarks = input.Remarks

	if _, err := tx.Exec(ctx, `
		UPDATE stock
		SET current_qty = current_qty + $2, updated_at = NOW()
		WHERE item_code = $1
	`, input.ItemCode, input.QtyReceived); err != nil {
		return nil, fmt.Errorf("apply receipt to stock %q: %w", input.ItemCode, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit receipt tx: %w", err)
	}
	return &rec, nil
}

// CreateIssue appends an issue entry and decrements the running balance. The
// balance may go negative; the summary's validation flag is the surface for
// that kind of drift.
func (r *Repository) CreateIssue(ctx context.Context, input IssueCreateInput) (*domain.IssueRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin issue tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentQty float64
	err = tx.QueryRow(ctx,
		"SELECT current_qty::double precision FROM stock WHERE item_code = $1 FOR UPDATE",
		input.ItemCode,
	).Scan(&currentQty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock %q: %w", input.ItemCode, err)
	}

	var rec domain.IssueRecord
	if err := tx.QueryRow(ctx, `
		INSERT INTO issue_log (item_code, qty_issued, purpose, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id, item_code, qty_issued::double precision, purpose, created_at
	`, input.ItemCode, input.QtyIssued, input.Purpose, input.Remarks,
	).Scan(&rec.ID, &rec.ItemCode, &rec.QtyIssued, &rec.Purpose, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert issue entry: %w", err)
	}
	rec.Remarks = input.Remarks

	if _, err := tx.Exec(ctx, `
		UPDATE stock
		SET current_qty = current_qty - $2, updated_at = NOW()
		WHERE item_code = $1
	`, input.ItemCode, input.QtyIssued); err != nil {
		return nil, fmt.Errorf("apply issue to stock %q: %w", input.ItemCode, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit issue tx: %w", err)
	}
	return &rec, nil
}

func (r *Repository) ListReceipts(ctx context.Context, filter LogListFilter) ([]domain.ReceiptRecord, error) {
	query := `
		SELECT id, grn_number, item_code, qty_received::double precision,
			vendor, invoice_no, amount::double precision, remarks, created_at
		FROM grn_log
		WHERE ($1 = '' OR item_code = $1)
	`
	args, query := appendLogFilter([]any{strings.TrimSpace(filter.ItemCode)}, query, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	list := make([]domain.ReceiptRecord, 0)
	for rows.Next() {
		var rec domain.ReceiptRecord
		if err := rows.Scan(
			&rec.ID, &rec.GRNNumber, &rec.ItemCode, &rec.QtyReceived,
			&rec.Vendor, &rec.InvoiceNo, &rec.Amount, &rec.Remarks, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return list, nil
}

func (r *Repository) ListIssues(ctx context.Context, filter LogListFilter) ([]domain.IssueRecord, error) {
	query := `
		SELECT id, item_code, qty_issued::double precision, purpose, remarks, created_at
		FROM issue_log
		WHERE ($1 = '' OR item_code = $1)
	`
	args, query := appendLogFilter([]any{strings.TrimSpace(filter.ItemCode)}, query, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	list := make([]domain.IssueRecord, 0)
	for rows.Next() {
		var rec domain.IssueRecord
		if err := rows.Scan(&rec.ID, &rec.ItemCode, &rec.QtyIssued, &rec.Purpose, &rec.Remarks, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return list, nil
}

func appendLogFilter(args []any, query string, filter LogListFilter) ([]any, string) {
	idx := len(args) + 1
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, normalizeLimit(filter.Limit), normalizeOffset(filter.Offset))
	return args, query
}

// StockAggregates runs the one aggregate query behind the derived stock
// summary: all-time receipt/issue totals plus trailing-window issue sums per
// item. The policy fields are computed in Go from these.
func (r *Repository) StockAggregates(ctx context.Context) ([]stock.ItemAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			i.item_code,
			i.item_name,
			c.category_name,
			i.uom,
			i.status,
			COALESCE(s.opening_qty, 0)::double precision,
			COALESCE(s.current_qty, 0)::double precision,
			COALESCE(g.total_received, 0)::double precision,
			COALESCE(l.total_issued, 0)::double precision,
			COALESCE(l.issue_7d, 0)::double precision,
			COALESCE(l.issue_30d, 0)::double precision,
			COALESCE(l.issue_90d, 0)::double precision
		FROM item_master i
		JOIN categories c ON c.id = i.category_id
		LEFT JOIN stock s ON s.item_code = i.item_code
		LEFT JOIN (
			SELECT item_code, SUM(qty_received) AS total_received
			FROM grn_log
			GROUP BY item_code
		) g ON g.item_code = i.item_code
		LEFT JOIN (
			SELECT
				item_code,
				SUM(qty_issued) AS total_issued,
				SUM(qty_issued) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days') AS issue_7d,
				SUM(qty_issued) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days') AS issue_30d,
				SUM(qty_issued) FILTER (WHERE created_at >= NOW() - INTERVAL '90 days') AS issue_90d
			FROM issue_log
			GROUP BY item_code
		) l ON l.item_code = i.item_code
		ORDER BY i.item_code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("stock aggregates query: %w", err)
	}
	defer rows.Close()

	aggregates := make([]stock.ItemAggregate, 0)
	for rows.Next() {
		var a stock.ItemAggregate
		if err := rows.Scan(
			&a.ItemCode, &a.ItemName, &a.CategoryName, &a.UOM, &a.Status,
			&a.OpeningQty, &a.CurrentQty,
			&a.TotalReceived, &a.TotalIssued,
			&a.Issue7d, &a.Issue30d, &a.Issue90d,
		); err != nil {
			return nil, fmt.Errorf("scan stock aggregate: %w", err)
		}
		aggregates = append(aggregates, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock aggregates: %w", err)
	}
	return aggregates, nil
}

func (r *Repository) GetDashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	var d domain.DashboardSummary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM item_master)::int,
			(SELECT COUNT(*) FROM item_master WHERE status = 'active')::int,
			(SELECT COUNT(*) FROM categories)::int,
			COALESCE((SELECT SUM(current_qty) FROM stock), 0)::double precision,
			(SELECT COUNT(*) FROM grn_log WHERE created_at >= DATE_TRUNC('day', NOW()))::int,
			(SELECT COUNT(*) FROM issue_log WHERE created_at >= DATE_TRUNC('day', NOW()))::int
	`).Scan(
		&d.TotalItems, &d.ActiveItems, &d.TotalCategories,
		&d.TotalStockQty, &d.ReceiptsToday, &d.IssuesToday,
	)
	if err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return d, nil
}
