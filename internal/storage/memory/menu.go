package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/menu"
)

func (s *Store) ListItems(_ context.Context, f menu.ItemFilter) ([]menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	out := make([]menu.Item, 0, len(s.items))
	for _, it := range s.items {
		if f.CategoryID != nil && (it.CategoryID == nil || *it.CategoryID != *f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) {
			continue
		}
		out = append(out, cloneItem(it))
	}
	slices.SortFunc(out, func(a, b menu.Item) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	it = cloneItem(it)
	return &it, nil
}

func (s *Store) CreateItem(_ context.Context, it *menu.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCategory(it.CategoryID); err != nil {
		return err
	}
	s.seq.item++
	it.ID = s.seq.item
	s.items[it.ID] = cloneItem(*it)
	return nil
}

func (s *Store) UpdateItem(_ context.Context, it *menu.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		return apperr.ErrNotFound
	}
	if err := s.checkCategory(it.CategoryID); err != nil {
		return err
	}
	s.items[it.ID] = cloneItem(*it)
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperr.ErrNotFound
	}
	for _, o := range s.orders {
		for _, oi := range o.Items {
			if oi.MenuItemID == id {
				return menu.ErrItemInUse
			}
		}
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]menu.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]menu.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b menu.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c *menu.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return menu.ErrDuplicateName
		}
	}
	s.seq.category++
	c.ID = s.seq.category
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c *menu.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return apperr.ErrNotFound
	}
	for id, existing := range s.categories {
		if id != c.ID && existing.Name == c.Name {
			return menu.ErrDuplicateName
		}
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return apperr.ErrNotFound
	}
	for itemID, it := range s.items {
		if it.CategoryID != nil && *it.CategoryID == id {
			it.CategoryID = nil
			s.items[itemID] = it
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListTables(_ context.Context) ([]menu.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]menu.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b menu.Table) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetTable(_ context.Context, id int64) (*menu.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

func (s *Store) CreateTable(_ context.Context, t *menu.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables {
		if existing.Label == t.Label {
			return menu.ErrDuplicateName
		}
	}
	s.seq.table++
	t.ID = s.seq.table
	s.tables[t.ID] = *t
	return nil
}

func (s *Store) DeleteTable(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[id]; !ok {
		return apperr.ErrNotFound
	}
	for _, o := range s.orders {
		if o.TableID != nil && *o.TableID == id {
			o.TableID = nil
		}
	}
	delete(s.tables, id)
	return nil
}

func (s *Store) checkCategory(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := s.categories[*id]; !ok {
		return apperr.Validation("category_id", "unknown category")
	}
	return nil
}

func cloneItem(it menu.Item) menu.Item {
	if it.CategoryID != nil {
		id := *it.CategoryID
		it.CategoryID = &id
	}
	return it
}
