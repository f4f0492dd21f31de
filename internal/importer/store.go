package importer

import (
	"context"

	"backend/internal/domain"
)

// Store is the narrow datastore surface the reconciler needs. Lookups return
// domain.ErrNotFound on a miss. The Postgres repository implements it; tests
// use an in-memory fake.
type Store interface {
	CategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)

	ItemByCode(ctx context.Context, code string) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) error

	// InitStock creates the zero-quantity stock record backing a freshly
	// inserted item.
	InitStock(ctx context.Context, itemCode string) error
	// SetOpeningStock overwrites opening_qty and resets current_qty to it.
	SetOpeningStock(ctx context.Context, itemCode string, openingQty float64) error

	RecordUpload(ctx context.Context, upload domain.UploadLog) error
}
