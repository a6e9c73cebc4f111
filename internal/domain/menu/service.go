package menu

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Service implements menu management on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a menu Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ItemInput is the editable part of a menu item.
type ItemInput struct {
	Name        string
	CategoryID  *int64
	Price       decimal.Decimal
	Available   bool
	Description string
}

func (s *Service) Items(ctx context.Context, f ItemFilter) ([]Item, error) {
	f.Search = strings.TrimSpace(f.Search)
	items, err := s.repo.ListItems(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	return items, nil
}

func (s *Service) Item(ctx context.Context, id int64) (*Item, error) {
	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get menu item %d", id)
	}
	return it, nil
}

func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	it, err := NewItem(in.Name, in.CategoryID, in.Price, in.Available, in.Description)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateItem(ctx, &it); err != nil {
		return nil, errors.Wrap(err, "create menu item")
	}
	return &it, nil
}

// UpdateItem replaces the fields of item id. Existing order items keep the
// name and price captured when they were committed.
func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (*Item, error) {
	it, err := NewItem(in.Name, in.CategoryID, in.Price, in.Available, in.Description)
	if err != nil {
		return nil, err
	}
	it.ID = id
	if err := s.repo.UpdateItem(ctx, &it); err != nil {
		return nil, errors.Wrapf(err, "update menu item %d", id)
	}
	return &it, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return errors.Wrapf(err, "delete menu item %d", id)
	}
	return nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	cs, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return cs, nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	c, err := NewCategory(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return &c, nil
}

func (s *Service) RenameCategory(ctx context.Context, id int64, name string) (*Category, error) {
	c, err := NewCategory(name)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.repo.UpdateCategory(ctx, &c); err != nil {
		return nil, errors.Wrapf(err, "rename category %d", id)
	}
	return &c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return errors.Wrapf(err, "delete category %d", id)
	}
	return nil
}

func (s *Service) Tables(ctx context.Context) ([]Table, error) {
	ts, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	return ts, nil
}

func (s *Service) Table(ctx context.Context, id int64) (*Table, error) {
	t, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get table %d", id)
	}
	return t, nil
}

func (s *Service) CreateTable(ctx context.Context, label string, seats int) (*Table, error) {
	t, err := NewTable(label, seats)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTable(ctx, &t); err != nil {
		return nil, errors.Wrap(err, "create table")
	}
	return &t, nil
}

func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTable(ctx, id); err != nil {
		return errors.Wrapf(err, "delete table %d", id)
	}
	return nil
}
