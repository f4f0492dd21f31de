// Package repository is the raw-SQL Postgres layer. Lookups return
// domain.ErrNotFound on a miss; every other failure is wrapped with the
// operation that produced it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"backend/internal/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_name, created_at
		FROM categories
		ORDER BY LOWER(category_name) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.CategoryName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) CategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, category_name, created_at
		FROM categories
		WHERE LOWER(category_name) = LOWER($1)
	`, strings.TrimSpace(name)).Scan(&c.ID, &c.CategoryName, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category by name %q: %w", name, err)
	}
	return &c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category_name is required")
	}
	var c domain.Category
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (category_name)
		VALUES ($1)
		ON CONFLICT (LOWER(category_name)) DO UPDATE SET category_name = categories.category_name
		RETURNING id, category_name, created_at
	`, name).Scan(&c.ID, &c.CategoryName, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return &c, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
