package order

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var historyHeader = []string{"order_id", "datetime", "items", "total", "details"}

var ErrBadHistoryRecord = errors.New("sales file: bad record")

// CSVHistory appends sale records to a CSV file. The header is written only when
// the append creates the file.
type CSVHistory struct {
	path string
}

func NewCSVHistory(path string) *CSVHistory {
	return &CSVHistory{path: path}
}

func (h *CSVHistory) Path() string { return h.path }

func (h *CSVHistory) Append(ctx context.Context, rec SaleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, statErr := os.Stat(h.path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	row, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if fresh {
		_ = cw.Write(historyHeader)
	}
	_ = cw.Write(row)
	cw.Flush()

	if err := cw.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (h *CSVHistory) Records(ctx context.Context) ([]SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var out []SaleRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		rec, err := decodeRecord(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadHistoryRecord, line, err)
		}
		out = append(out, rec)
	}
}

func encodeRecord(rec SaleRecord) ([]string, error) {
	tuples := make([][]any, 0, len(rec.Details))
	for _, d := range rec.Details {
		tuples = append(tuples, []any{d.Name, d.Quantity, d.Subtotal.String()})
	}
	details, err := json.Marshal(tuples)
	if err != nil {
		return nil, err
	}

	return []string{
		rec.OrderID,
		rec.At.Format(TimeLayout),
		strconv.Itoa(rec.Items),
		rec.Total.String(),
		string(details),
	}, nil
}

func decodeRecord(row []string) (SaleRecord, error) {
	if len(row) != len(historyHeader) {
		return SaleRecord{}, fmt.Errorf("want %d fields, got %d", len(historyHeader), len(row))
	}

	at, err := time.ParseInLocation(TimeLayout, row[1], time.Local)
	if err != nil {
		return SaleRecord{}, fmt.Errorf("datetime: %w", err)
	}
	items, err := strconv.Atoi(row[2])
	if err != nil {
		return SaleRecord{}, fmt.Errorf("items: %w", err)
	}
	total, err := decimal.NewFromString(row[3])
	if err != nil {
		return SaleRecord{}, fmt.Errorf("total: %w", err)
	}
	details, err := decodeDetails(row[4])
	if err != nil {
		return SaleRecord{}, fmt.Errorf("details: %w", err)
	}

	return SaleRecord{
		OrderID: row[0],
		At:      at,
		Items:   items,
		Total:   total,
		Details: details,
	}, nil
}

func decodeDetails(raw string) ([]SaleDetail, error) {
	var tuples [][]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &tuples); err != nil {
		return nil, err
	}

	out := make([]SaleDetail, 0, len(tuples))
	for _, t := range tuples {
		if len(t) != 3 {
			return nil, fmt.Errorf("want (name, qty, subtotal), got %d values", len(t))
		}

		var d SaleDetail
		if err := json.Unmarshal(t[0], &d.Name); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(t[1], &d.Quantity); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(t[2], &d.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
