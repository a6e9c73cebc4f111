// Package handler exposes the POS services as a JSON API over net/http.
package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/xenking/bistro-pos/internal/domain/cart"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/money"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/settings"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Currency is appended to display amounts.
	Currency string
	// Location is the time zone of calendar dates in query parameters.
	Location *time.Location
}

// Services are the domain dependencies of the Handler.
type Services struct {
	Menu     *menu.Service
	Items    cart.MenuLookup
	Orders   *order.Manager
	Invoices *invoice.Service
	Revenue  *revenue.Aggregator
	Settings *settings.Store
	Receipts *invoice.ReceiptWriter
}

// Handler serves the REST API. It owns a single editing session, the
// equivalent of one terminal.
type Handler struct {
	menu     *menu.Service
	items    cart.MenuLookup
	orders   *order.Manager
	invoices *invoice.Service
	revenue  *revenue.Aggregator
	settings *settings.Store
	receipts *invoice.ReceiptWriter

	money money.Formatter
	loc   *time.Location

	mu      sync.Mutex
	session *order.Session
}

// New constructs a Handler.
func New(cfg Config, svc Services) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	receipts := svc.Receipts
	if receipts == nil {
		receipts = invoice.DefaultReceiptWriter(loc)
	}
	return &Handler{
		menu:     svc.Menu,
		items:    svc.Items,
		orders:   svc.Orders,
		invoices: svc.Invoices,
		revenue:  svc.Revenue,
		settings: svc.Settings,
		receipts: receipts,
		money:    money.Formatter{Currency: cfg.Currency},
		loc:      loc,
		session:  order.NewSession(),
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.listMenuItems)
	mux.HandleFunc("POST /api/menu", h.createMenuItem)
	mux.HandleFunc("PUT /api/menu/{id}", h.updateMenuItem)
	mux.HandleFunc("DELETE /api/menu/{id}", h.deleteMenuItem)

	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/categories", h.createCategory)
	mux.HandleFunc("PUT /api/categories/{id}", h.renameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.deleteCategory)

	mux.HandleFunc("GET /api/tables", h.listTables)
	mux.HandleFunc("POST /api/tables", h.createTable)
	mux.HandleFunc("DELETE /api/tables/{id}", h.deleteTable)

	mux.HandleFunc("GET /api/session", h.getSession)
	mux.HandleFunc("PUT /api/session/table", h.selectTable)
	mux.HandleFunc("POST /api/session/items", h.addSessionItem)
	mux.HandleFunc("PUT /api/session/items/{id}", h.setSessionItem)
	mux.HandleFunc("DELETE /api/session/items/{id}", h.removeSessionItem)
	mux.HandleFunc("DELETE /api/session", h.resetSession)
	mux.HandleFunc("POST /api/session/commit", h.commitSession)
	mux.HandleFunc("POST /api/session/reopen/{id}", h.reopenIntoSession)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("POST /api/orders/{id}/pay", h.payOrder)
	mux.HandleFunc("GET /api/orders/{id}/receipt", h.exportReceipt)

	mux.HandleFunc("GET /api/revenue/daily", h.dailyRevenue)
	mux.HandleFunc("GET /api/revenue/monthly", h.monthlyRevenue)

	mux.HandleFunc("GET /api/settings/rates", h.getRates)
	mux.HandleFunc("PUT /api/settings/rates", h.updateRates)
}
