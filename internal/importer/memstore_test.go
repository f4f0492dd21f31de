package importer

import (
	"context"
	"strings"
	"sync"

	"backend/internal/domain"
)

// memStore is an in-memory Store for reconciler tests. failCodes lets a test
// make specific item writes fail to exercise per-row isolation.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[string]*domain.Category
	items      map[string]*domain.Item
	stock      map[string]*domain.StockRecord
	uploads    []domain.UploadLog

	failCodes    map[string]string
	uploadsFail  bool
	createdItems []string
	updatedItems []string
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[string]*domain.Category{},
		items:      map[string]*domain.Item{},
		stock:      map[string]*domain.StockRecord{},
		failCodes:  map[string]string{},
	}
}

func (s *memStore) seedCategory(name string) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(name)
}

func (s *memStore) addCategoryLocked(name string) *domain.Category {
	key := strings.ToLower(name)
	if existing, ok := s.categories[key]; ok {
		return existing
	}
	s.nextID++
	category := &domain.Category{ID: s.nextID, CategoryName: name}
	s.categories[key] = category
	return category
}

func (s *memStore) seedItem(code, name, categoryName string) *domain.Item {
	category := s.seedCategory(categoryName)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item := &domain.Item{
		ID:           s.nextID,
		ItemCode:     code,
		ItemName:     name,
		CategoryID:   category.ID,
		CategoryName: category.CategoryName,
		UOM:          "kg",
		Status:       domain.StatusActive,
	}
	s.items[code] = item
	s.stock[code] = &domain.StockRecord{ItemCode: code}
	return item
}

func (s *memStore) CategoryByName(_ context.Context, name string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return category, nil
}

func (s *memStore) CreateCategory(_ context.Context, name string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(name), nil
}

func (s *memStore) ItemByCode(_ context.Context, code string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *memStore) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason, ok := s.failCodes[item.ItemCode]; ok {
		return nil, errString(reason)
	}
	s.nextID++
	item.ID = s.nextID
	s.items[item.ItemCode] = &item
	s.createdItems = append(s.createdItems, item.ItemCode)
	return &item, nil
}

func (s *memStore) UpdateItem(_ context.Context, item domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason, ok := s.failCodes[item.ItemCode]; ok {
		return errString(reason)
	}
	existing, ok := s.items[item.ItemCode]
	if !ok {
		return domain.ErrNotFound
	}
	item.ID = existing.ID
	s.items[item.ItemCode] = &item
	s.updatedItems = append(s.updatedItems, item.ItemCode)
	return nil
}

func (s *memStore) InitStock(_ context.Context, itemCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stock[itemCode]; !ok {
		s.stock[itemCode] = &domain.StockRecord{ItemCode: itemCode}
	}
	return nil
}

func (s *memStore) SetOpeningStock(_ context.Context, itemCode string, openingQty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reason, ok := s.failCodes[itemCode]; ok {
		return errString(reason)
	}
	s.stock[itemCode] = &domain.StockRecord{
		ItemCode:   itemCode,
		OpeningQty: openingQty,
		CurrentQty: openingQty,
	}
	return nil
}

func (s *memStore) RecordUpload(_ context.Context, upload domain.UploadLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadsFail {
		return errString("upload log unavailable")
	}
	s.uploads = append(s.uploads, upload)
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }
