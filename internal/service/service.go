package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"backend/internal/domain"
	"backend/internal/export"
	"backend/internal/importer"
	"backend/internal/itemcode"
	"backend/internal/repository"
	"backend/internal/stock"
)

type Service struct {
	repo *repository.Repository
	rec  *importer.Reconciler
	log  *zap.Logger
}

func New(repo *repository.Repository, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		rec:  importer.New(repo, log),
		log:  log.Named("service"),
	}
}

type ItemCreateInput struct {
	ItemCode     string
	ItemName     string
	CategoryName string
	UOM          string
	Qualifier    *string
	SizeMM       *float64
	GSM          *float64
	Status       string
}

func (s *Service) ListItems(ctx context.Context, filter repository.ItemListFilter) ([]domain.Item, error) {
	return s.repo.ListItems(ctx, filter)
}

func (s *Service) GetItem(ctx context.Context, code string) (*domain.Item, error) {
	return s.repo.ItemByCode(ctx, code)
}

// CreateItem is the single-entry form path. The item code is taken as given
// when supplied and derived from the descriptive attributes otherwise.
func (s *Service) CreateItem(ctx context.Context, input ItemCreateInput) (*domain.Item, error) {
	input.ItemName = strings.TrimSpace(input.ItemName)
	if input.ItemName == "" {
		return nil, fmt.Errorf("item_name is required")
	}
	if strings.TrimSpace(input.UOM) == "" {
		return nil, fmt.Errorf("uom is required")
	}

	category, err := s.repo.CategoryByName(ctx, input.CategoryName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("category %q does not exist", input.CategoryName)
		}
		return nil, err
	}

	code := strings.TrimSpace(input.ItemCode)
	if code == "" {
		qualifier := ""
		if input.Qualifier != nil {
			qualifier = *input.Qualifier
		}
		code, err = itemcode.Generate(category.CategoryName, qualifier, input.SizeMM, input.GSM)
		if err != nil {
			return nil, fmt.Errorf("derive item code: %w", err)
		}
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = domain.StatusActive
	}
	if status != domain.StatusActive && status != domain.StatusInactive {
		return nil, fmt.Errorf("status must be active or inactive")
	}

	item, err := s.repo.CreateItem(ctx, domain.Item{
		ItemCode:   code,
		ItemName:   input.ItemName,
		CategoryID: category.ID,
		UOM:        input.UOM,
		Qualifier:  input.Qualifier,
		SizeMM:     input.SizeMM,
		GSM:        input.GSM,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.InitStock(ctx, item.ItemCode); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) PatchItem(ctx context.Context, code string, input repository.ItemPatchInput) (*domain.Item, error) {
	return s.repo.PatchItem(ctx, code, input)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("category_name is required")
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *Service) CreateReceipt(ctx context.Context, input repository.ReceiptCreateInput) (*domain.ReceiptRecord, error) {
	if input.QtyReceived <= 0 {
		return nil, fmt.Errorf("qty_received must be positive")
	}
	return s.repo.CreateReceipt(ctx, input)
}

func (s *Service) CreateIssue(ctx context.Context, input repository.IssueCreateInput) (*domain.IssueRecord, error) {
	if input.QtyIssued <= 0 {
		return nil, fmt.Errorf("qty_issued must be positive")
	}
	return s.repo.CreateIssue(ctx, input)
}

func (s *Service) ListReceipts(ctx context.Context, filter repository.LogListFilter) ([]domain.ReceiptRecord, error) {
	return s.repo.ListReceipts(ctx, filter)
}

func (s *Service) ListIssues(ctx context.Context, filter repository.LogListFilter) ([]domain.IssueRecord, error) {
	return s.repo.ListIssues(ctx, filter)
}

// StockSummary recomputes the derived summary on every call.
func (s *Service) StockSummary(ctx context.Context) ([]domain.StockSummaryRow, error) {
	aggregates, err := s.repo.StockAggregates(ctx)
	if err != nil {
		return nil, err
	}
	return stock.SummarizeAll(aggregates), nil
}

func (s *Service) DashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	return s.repo.GetDashboardSummary(ctx)
}

func (s *Service) PreviewImport(ctx context.Context, kind importer.Kind, raw string) (*importer.Preview, error) {
	return s.rec.Preview(ctx, kind, raw)
}

func (s *Service) ApplyImport(ctx context.Context, kind importer.Kind, raw string, decisions importer.Decisions, meta importer.UploadMeta) (*domain.ImportResult, error) {
	return s.rec.Apply(ctx, kind, raw, decisions, meta, nil)
}

func (s *Service) ListUploads(ctx context.Context, limit, offset int) ([]domain.UploadLog, error) {
	return s.repo.ListUploads(ctx, limit, offset)
}

func (s *Service) ExportItemsCSV(ctx context.Context) (string, error) {
	items, err := s.repo.ListItems(ctx, repository.ItemListFilter{Limit: 1000})
	if err != nil {
		return "", err
	}
	return export.ItemsCSV(items), nil
}

func (s *Service) ExportItemsXLSX(ctx context.Context) ([]byte, error) {
	items, err := s.repo.ListItems(ctx, repository.ItemListFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}
	return export.ItemsXLSX(items)
}

func (s *Service) ExportStockSummaryXLSX(ctx context.Context) ([]byte, error) {
	summary, err := s.StockSummary(ctx)
	if err != nil {
		return nil, err
	}
	return export.StockSummaryXLSX(summary)
}
