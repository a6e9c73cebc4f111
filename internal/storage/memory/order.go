package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/order"
)

func (s *Store) Create(_ context.Context, o *order.Order, audit *order.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOrderRefs(o); err != nil {
		return apperr.Storage("insert order", err)
	}
	s.seq.order++
	o.ID = s.seq.order
	s.assignItemIDs(o)
	s.orders[o.ID] = cloneOrder(o)
	if audit != nil {
		audit.OrderID = o.ID
		s.appendAudit(audit)
	}
	return nil
}

func (s *Store) Replace(_ context.Context, o *order.Order, audit *order.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[o.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if current.Status != order.StatusOpen {
		return order.ErrStatusChanged
	}
	if err := s.checkOrderRefs(o); err != nil {
		return apperr.Storage("replace order items", err)
	}
	o.CreatedAt = current.CreatedAt
	s.assignItemIDs(o)
	s.orders[o.ID] = cloneOrder(o)
	if audit != nil {
		audit.OrderID = o.ID
		s.appendAudit(audit)
	}
	return nil
}

func (s *Store) SetStatus(_ context.Context, id int64, from, to order.Status, audit order.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if o.Status != from {
		return order.ErrStatusChanged
	}
	o.Status = to
	audit.OrderID = id
	s.appendAudit(&audit)
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) Audits(_ context.Context, id int64) ([]order.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []order.Audit
	for _, a := range s.audits {
		if a.OrderID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SearchOrders(_ context.Context, q invoice.Query) ([]order.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	out := make([]order.Summary, 0)
	for _, o := range s.orders {
		if !inRange(o.CreatedAt, q.From, q.To) {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		sum := s.summary(o)
		if search != "" &&
			!strings.Contains(strings.ToLower(sum.TableLabel), search) &&
			!strings.Contains(strings.ToLower(sum.Note), search) &&
			!strings.Contains(strconv.FormatInt(sum.ID, 10), search) {
			continue
		}
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b order.Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) GetSummary(_ context.Context, id int64) (*order.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sum := s.summary(o)
	return &sum, nil
}

func (s *Store) PaidOrders(_ context.Context, from, to time.Time) ([]order.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Summary, 0)
	for _, o := range s.orders {
		if o.Status == order.StatusPaid && inRange(o.CreatedAt, from, to) {
			out = append(out, s.summary(o))
		}
	}
	slices.SortFunc(out, func(a, b order.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// checkOrderRefs mirrors the foreign keys of the relational schema.
func (s *Store) checkOrderRefs(o *order.Order) error {
	if o.TableID != nil {
		if _, ok := s.tables[*o.TableID]; !ok {
			return errors.Errorf("table %d does not exist", *o.TableID)
		}
	}
	for _, it := range o.Items {
		if _, ok := s.items[it.MenuItemID]; !ok {
			return errors.Errorf("menu item %d does not exist", it.MenuItemID)
		}
	}
	return nil
}

func (s *Store) assignItemIDs(o *order.Order) {
	for i := range o.Items {
		s.seq.orderItem++
		o.Items[i].ID = s.seq.orderItem
		o.Items[i].OrderID = o.ID
	}
}

func (s *Store) appendAudit(a *order.Audit) {
	s.seq.audit++
	a.ID = s.seq.audit
	s.audits = append(s.audits, *a)
}

func (s *Store) summary(o *order.Order) order.Summary {
	sum := order.Summary{
		ID:        o.ID,
		CreatedAt: o.CreatedAt,
		Totals:    o.Totals,
		Status:    o.Status,
		Note:      o.Note,
	}
	if o.TableID != nil {
		id := *o.TableID
		sum.TableID = &id
		if t, ok := s.tables[id]; ok {
			sum.TableLabel = t.Label
		}
	}
	return sum
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	if o.TableID != nil {
		id := *o.TableID
		c.TableID = &id
	}
	c.Items = slices.Clone(o.Items)
	return &c
}
