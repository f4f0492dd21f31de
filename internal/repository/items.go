package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"backend/internal/domain"
)

type ItemListFilter struct {
	Search   string
	Status   string
	Category string
	Limit    int
	Offset   int
}

type ItemPatchInput struct {
	ItemName  *string
	UOM       *string
	Qualifier *string
	SizeMM    *float64
	GSM       *float64
	Status    *string
}

const itemColumns = `
	i.id,
	i.item_code,
	i.item_name,
	i.category_id,
	c.category_name,
	i.uom,
	i.qualifier,
	i.size_mm::double precision,
	i.gsm::double precision,
	i.status,
	i.created_at,
	i.updated_at
`

func (r *Repository) ListItems(ctx context.Context, filter ItemListFilter) ([]domain.Item, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	query := `
		SELECT ` + itemColumns + `
		FROM item_master i
		JOIN categories c ON c.id = i.category_id
		WHERE ($1 = '' OR i.item_name ILIKE '%' || $1 || '%' OR i.item_code ILIKE '%' || $1 || '%')
	`
	args := []any{search}
	idx := 2
	if status := strings.TrimSpace(filter.Status); status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", idx)
		args = append(args, strings.ToLower(status))
		idx++
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query += fmt.Sprintf(" AND LOWER(c.category_name) = LOWER($%d)", idx)
		args = append(args, category)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY i.item_code ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, limit)
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (r *Repository) ItemByCode(ctx context.Context, code string) (*domain.Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM item_master i
		JOIN categories c ON c.id = i.category_id
		WHERE i.item_code = $1
	`, strings.TrimSpace(code))
	item, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("item by code %q: %w", code, err)
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, input domain.Item) (*domain.Item, error) {
	code := strings.TrimSpace(input.ItemCode)
	name := strings.TrimSpace(input.ItemName)
	if code == "" || name == "" {
		return nil, fmt.Errorf("item_code and item_name are required")
	}
	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}

	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO item_master (item_code, item_name, category_id, uom, qualifier, size_mm, gsm, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT `+itemColumns+`
		FROM inserted i
		JOIN categories c ON c.id = i.category_id
	`, code, name, input.CategoryID, input.UOM, input.Qualifier, input.SizeMM, input.GSM, status)
	item, err := scanItemRow(row)
	if err != nil {
		return nil, fmt.Errorf("create item %q: %w", code, err)
	}
	return &item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, input domain.Item) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE item_master
		SET
			item_name = $2,
			category_id = $3,
			uom = $4,
			qualifier = $5,
			size_mm = $6,
			gsm = $7,
			status = $8,
			updated_at = NOW()
		WHERE item_code = $1
	`, input.ItemCode, input.ItemName, input.CategoryID, input.UOM, input.Qualifier, input.SizeMM, input.GSM, input.Status)
	if err != nil {
		return fmt.Errorf("update item %q: %w", input.ItemCode, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) PatchItem(ctx context.Context, code string, input ItemPatchInput) (*domain.Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch item tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM item_master i
		JOIN categories c ON c.id = i.category_id
		WHERE i.item_code = $1
		FOR UPDATE OF i
	`, strings.TrimSpace(code))
	item, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load item for patch: %w", err)
	}

	if input.ItemName != nil {
		name := strings.TrimSpace(*input.ItemName)
		if name == "" {
			return nil, fmt.Errorf("item_name cannot be empty")
		}
		item.ItemName = name
	}
	if input.UOM != nil {
		if strings.TrimSpace(*input.UOM) == "" {
			return nil, fmt.Errorf("uom cannot be empty")
		}
		item.UOM = *input.UOM
	}
	if input.Qualifier != nil {
		item.Qualifier = input.Qualifier
	}
	if input.SizeMM != nil {
		item.SizeMM = input.SizeMM
	}
	if input.GSM != nil {
		item.GSM = input.GSM
	}
	if input.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*input.Status))
		if status != domain.StatusActive && status != domain.StatusInactive {
			return nil, fmt.Errorf("status must be active or inactive")
		}
		item.Status = status
	}

	if _, err := tx.Exec(ctx, `
		UPDATE item_master
		SET
			item_name = $2,
			uom = $3,
			qualifier = $4,
			size_mm = $5,
			gsm = $6,
			status = $7,
			updated_at = NOW()
		WHERE item_code = $1
	`, item.ItemCode, item.ItemName, item.UOM, item.Qualifier, item.SizeMM, item.GSM, item.Status); err != nil {
		return nil, fmt.Errorf("update item %q: %w", item.ItemCode, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch item tx: %w", err)
	}
	return &item, nil
}

func scanItemRow(row pgx.Row) (domain.Item, error) {
	var (
		item      domain.Item
		qualifier sql.NullString
		sizeMM    sql.NullFloat64
		gsm       sql.NullFloat64
	)
	if err := row.Scan(
		&item.ID,
		&item.ItemCode,
		&item.ItemName,
		&item.CategoryID,
		&item.CategoryName,
		&item.UOM,
		&qualifier,
		&sizeMM,
		&gsm,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return domain.Item{}, err
	}
	if qualifier.Valid {
		value := qualifier.String
		item.Qualifier = &value
	}
	if sizeMM.Valid {
		value := sizeMM.Float64
		item.SizeMM = &value
	}
	if gsm.Valid {
		value := gsm.Float64
		item.GSM = &value
	}
	return item, nil
}
