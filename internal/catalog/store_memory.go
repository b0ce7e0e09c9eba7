package catalog

import (
	"context"
	"slices"
)

type MemStore struct {
	products []Product
	saves    int
}

func NewMemStore(seed ...Product) *MemStore {
	return &MemStore{products: slices.Clone(seed)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) ([]Product, error) {
	return slices.Clone(s.products), nil
}

func (s *MemStore) Save(ctx context.Context, products []Product) error {
	s.products = slices.Clone(products)
	s.saves++
	return nil
}

// Saves reports how many full rewrites the store has received.
func (s *MemStore) Saves() int { return s.saves }
