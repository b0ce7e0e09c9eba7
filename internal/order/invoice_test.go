package order_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniPOS/internal/order"
)

func sampleInvoice() order.Invoice {
	return order.Invoice{
		OrderID: "20250314150926",
		At:      settledAt,
		Lines: []order.InvoiceLine{
			{ProductID: "a", Name: "Apple", Quantity: 2, UnitPrice: dec("10"), Subtotal: dec("20")},
			{ProductID: "b", Name: "Pear", Quantity: 1, UnitPrice: dec("4.5"), Subtotal: dec("4.5")},
		},
		Total: dec("22.05"),
	}
}

func TestInvoice_String(t *testing.T) {
	want := "=== INVOICE ===\n" +
		"Order ID: 20250314150926\n" +
		"Date: 2025-03-14 15:09:26\n" +
		"\n" +
		"Items Purchased:\n" +
		"----------------------------------------\n" +
		"Apple (a) - 2 x 10.00 = 20.00\n" +
		"Pear (b) - 1 x 4.50 = 4.50\n" +
		"----------------------------------------\n" +
		"TOTAL: 22.05\n" +
		"\n" +
		"Thank you for your purchase!\n" +
		"========================================"

	assert.Equal(t, want, sampleInvoice().String())
}

func TestSaveInvoice(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 14, 15, 9, 30, 0, time.UTC)
	inv := sampleInvoice()

	tests := []struct {
		name     string
		filename string
		ext      string
		want     string
	}{
		{"generated txt", "", "txt", "bill_20250314_150930.txt"},
		{"generated csv", "", "CSV", "bill_20250314_150930.csv"},
		{"unknown type falls back to txt", "", "pdf", "bill_20250314_150930.txt"},
		{"caller chosen", "receipt-42.txt", "csv", "receipt-42.txt"},
		{"caller path is confined to dir", "../escape.txt", "", "escape.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := order.SaveInvoice(dir, inv, tt.filename, tt.ext, now)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), path)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, inv.String(), string(raw))
		})
	}
}
