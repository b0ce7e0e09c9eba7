package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/clock"
	"MiniPOS/pkg/kit"
)

var hundred = decimal.NewFromInt(100)

// Session owns one cart and settles it against a catalog. Sales settled during the
// session's lifetime are kept in memory for DailySales. It is not safe for
// concurrent use.
type Session struct {
	catalog *catalog.Catalog
	history History

	Clock   clock.Clock
	NewID   IDGenerator
	Log     *zap.Logger
	Metrics *Metrics

	cart  []Line
	sales []SaleRecord
}

func NewSession(cat *catalog.Catalog, history History) *Session {
	return &Session{
		catalog: cat,
		history: history,
		Clock:   clock.NewSystem(),
		NewID:   TimestampID,
		Log:     zap.NewNop(),
	}
}

// AddToCart appends a line for qty units of productID, pricing it at the product's
// current price. It fails when the product is unknown or has fewer than qty units.
func (s *Session) AddToCart(productID string, qty int) bool {
	p, ok := s.catalog.Get(productID)
	if !ok || qty > p.Quantity {
		return false
	}

	s.cart = append(s.cart, Line{
		Product:   p,
		Quantity:  qty,
		UnitPrice: p.Price,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(qty))),
	})
	return true
}

// RemoveFromCart drops the first line for productID.
func (s *Session) RemoveFromCart(productID string) bool {
	i := slices.IndexFunc(s.cart, func(l Line) bool { return l.Product.ID == productID })
	if i < 0 {
		return false
	}
	s.cart = slices.Delete(s.cart, i, i+1)
	return true
}

func (s *Session) Cart() []Line {
	return slices.Clone(s.cart)
}

func (s *Session) CartEmpty() bool {
	return len(s.cart) == 0
}

// CartTotal sums the line subtotals and applies a percentage discount.
func (s *Session) CartTotal(discount decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.cart {
		sum = sum.Add(l.Subtotal)
	}
	return sum.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
}

// Settle turns the cart into a sale. ok is false, with nothing changed, when the
// cart is empty. Otherwise stock is taken out of the catalog without re-checking
// availability, the catalog is persisted, the sale is recorded and appended to the
// history log, and the cart is cleared. The steps are not atomic: an error leaves
// every earlier step applied and the cart in place.
func (s *Session) Settle(ctx context.Context, discount decimal.Decimal) (Invoice, bool, error) {
	if len(s.cart) == 0 {
		return Invoice{}, false, nil
	}

	total := s.CartTotal(discount)
	at := s.Clock.Now().Truncate(time.Second)
	orderID := s.NewID(at)

	for _, l := range s.cart {
		l.Product.Quantity -= l.Quantity
	}
	if err := s.catalog.Persist(ctx); err != nil {
		return Invoice{}, false, fmt.Errorf("settle %s: %w", orderID, err)
	}

	rec := SaleRecord{
		OrderID: orderID,
		At:      at,
		Items:   len(s.cart),
		Total:   total,
		Details: make([]SaleDetail, 0, len(s.cart)),
	}
	for _, l := range s.cart {
		rec.Details = append(rec.Details, SaleDetail{Name: l.Product.Name, Quantity: l.Quantity, Subtotal: l.Subtotal})
	}

	s.sales = append(s.sales, rec)
	if err := s.history.Append(ctx, rec); err != nil {
		return Invoice{}, false, fmt.Errorf("settle %s: append history: %w", orderID, err)
	}

	inv := newInvoice(orderID, at, total, s.cart)
	s.cart = nil

	s.Metrics.observe(rec)
	kit.OrNop(s.Log).Info("order settled",
		zap.String("order_id", orderID),
		zap.Int("items", rec.Items),
		zap.String("total", total.StringFixed(2)),
	)

	return inv, true, nil
}

// Sales returns the records settled by this session, oldest first.
func (s *Session) Sales() []SaleRecord {
	return slices.Clone(s.sales)
}

// DailySales aggregates this session's records whose timestamp falls on day's
// calendar date in day's location. Records from earlier runs are not included.
func (s *Session) DailySales(day time.Time) DailySummary {
	y, m, d := day.Date()
	sum := DailySummary{
		Date:       day.Format(DateLayout),
		TotalSales: decimal.Zero,
	}

	for _, rec := range s.sales {
		ry, rm, rd := rec.At.In(day.Location()).Date()
		if ry != y || rm != m || rd != d {
			continue
		}
		sum.TotalSales = sum.TotalSales.Add(rec.Total)
		sum.TotalItems += rec.Items
		sum.NumOrders++
	}
	return sum
}

// ValidDiscount reports whether discount is a percentage in [0, 100].
func ValidDiscount(discount decimal.Decimal) bool {
	return !discount.IsNegative() && discount.LessThanOrEqual(hundred)
}
