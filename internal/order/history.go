package order

import (
	"context"
	"slices"
)

// History is the append-only order log. Records are never rewritten or removed.
type History interface {
	Append(ctx context.Context, rec SaleRecord) error
	Records(ctx context.Context) ([]SaleRecord, error)
}

type MemHistory struct {
	records []SaleRecord
}

func NewMemHistory() *MemHistory {
	return &MemHistory{}
}

func (h *MemHistory) Append(ctx context.Context, rec SaleRecord) error {
	h.records = append(h.records, rec)
	return nil
}

func (h *MemHistory) Records(ctx context.Context) ([]SaleRecord, error) {
	return slices.Clone(h.records), nil
}
