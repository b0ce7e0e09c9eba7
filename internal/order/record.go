package order

import (
	"time"

	"github.com/shopspring/decimal"

	"MiniPOS/internal/catalog"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "2006-01-02 15:04:05"
)

// Line is one pending purchase in the cart. Product points at the live catalog
// entry; UnitPrice and Subtotal are frozen when the line is added.
type Line struct {
	Product   *catalog.Product
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type SaleDetail struct {
	Name     string          `json:"name"`
	Quantity int             `json:"qty"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// SaleRecord is the immutable result of a settlement. Items counts cart lines,
// not units.
type SaleRecord struct {
	OrderID string          `json:"order_id"`
	At      time.Time       `json:"datetime"`
	Items   int             `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Details []SaleDetail    `json:"details"`
}

type DailySummary struct {
	Date       string          `json:"date"`
	TotalSales decimal.Decimal `json:"total_sales"`
	TotalItems int             `json:"total_items"`
	NumOrders  int             `json:"num_orders"`
}
