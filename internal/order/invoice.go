package order

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MiniPOS/pkg/kit"
)

const (
	invoiceRule   = "----------------------------------------"
	invoiceFooter = "========================================"

	InvoiceExtTXT = "txt"
	InvoiceExtCSV = "csv"
)

type InvoiceLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Invoice struct {
	OrderID string          `json:"order_id"`
	At      time.Time       `json:"datetime"`
	Lines   []InvoiceLine   `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

func newInvoice(orderID string, at time.Time, total decimal.Decimal, cart []Line) Invoice {
	lines := make([]InvoiceLine, 0, len(cart))
	for _, l := range cart {
		lines = append(lines, InvoiceLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return Invoice{OrderID: orderID, At: at, Lines: lines, Total: total}
}

// String renders the printable bill.
func (inv Invoice) String() string {
	var b strings.Builder

	b.WriteString("=== INVOICE ===\n")
	fmt.Fprintf(&b, "Order ID: %s\n", inv.OrderID)
	fmt.Fprintf(&b, "Date: %s\n", inv.At.Format(TimeLayout))
	b.WriteString("\nItems Purchased:\n")
	b.WriteString(invoiceRule + "\n")
	for _, l := range inv.Lines {
		fmt.Fprintf(&b, "%s (%s) - %d x %s = %s\n",
			l.Name, l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal.StringFixed(2))
	}
	b.WriteString(invoiceRule + "\n")
	fmt.Fprintf(&b, "TOTAL: %s\n", inv.Total.StringFixed(2))
	b.WriteString("\nThank you for your purchase!\n")
	b.WriteString(invoiceFooter)

	return b.String()
}

// InvoiceFilename is the name a bill gets when the caller does not choose one.
func InvoiceFilename(now time.Time, ext string) string {
	return fmt.Sprintf("bill_%s.%s", now.Format("20060102_150405"), normalizeExt(ext))
}

// SaveInvoice writes the rendered bill into dir and returns its path. An empty
// filename is replaced by InvoiceFilename(now, ext). Both txt and csv files carry
// the same text.
func SaveInvoice(dir string, inv Invoice, filename, ext string, now time.Time) (string, error) {
	if filename == "" {
		filename = InvoiceFilename(now, ext)
	}
	path := filepath.Join(dir, filepath.Base(filename))

	err := kit.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, inv.String())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("save invoice %s: %w", inv.OrderID, err)
	}
	return path, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext != InvoiceExtCSV {
		return InvoiceExtTXT
	}
	return ext
}
