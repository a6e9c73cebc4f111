package order

import (
	"github.com/xenking/bistro-pos/internal/domain/cart"
)

// Session is the state of one editing terminal: the selected table, the
// cart being composed and the order being edited, if any.
type Session struct {
	TableID        *int64
	Cart           *cart.Cart
	EditingOrderID *int64
}

// NewSession returns a session with an empty cart.
func NewSession() *Session {
	return &Session{Cart: cart.New()}
}

// SelectTable sets the table the next commit is for.
func (s *Session) SelectTable(id int64) {
	s.TableID = &id
}

// Editing reports whether a commit will update an existing order.
func (s *Session) Editing() bool {
	return s.EditingOrderID != nil
}

// Reset clears the cart and the editing pointer. The table stays selected.
func (s *Session) Reset() {
	s.Cart.Clear()
	s.EditingOrderID = nil
}
