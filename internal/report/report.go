// Package report exports the daily-sales summary and the low-stock list as CSV
// files, one file per report named after its date.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

const filePerm = 0o644

// WriteDailySales writes daily_sales_report_<date>.csv into dir and returns its path.
func WriteDailySales(dir string, sum order.DailySummary) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("daily_sales_report_%s.csv", sum.Date))

	err := writeCSV(path, [][]string{
		{"Date", "Total Orders", "Total Items Sold", "Total Sales Amount"},
		{sum.Date, strconv.Itoa(sum.NumOrders), strconv.Itoa(sum.TotalItems), sum.TotalSales.StringFixed(2)},
	})
	if err != nil {
		return "", fmt.Errorf("write daily sales report: %w", err)
	}
	return path, nil
}

// WriteLowStock writes low_stock_report_<day>.csv into dir and returns its path.
func WriteLowStock(dir string, products []*catalog.Product, day time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("low_stock_report_%s.csv", day.Format(order.DateLayout)))

	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, []string{"Product ID", "Name", "Stock"})
	for _, p := range products {
		rows = append(rows, []string{p.ID, p.Name, strconv.Itoa(p.Quantity)})
	}

	if err := writeCSV(path, rows); err != nil {
		return "", fmt.Errorf("write low stock report: %w", err)
	}
	return path, nil
}

func writeCSV(path string, rows [][]string) error {
	return kit.WriteFileAtomic(path, filePerm, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}
