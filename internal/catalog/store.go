package catalog

import "context"

// Store is the backing record store of a Catalog. Save always receives the whole
// catalog and replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
	Ping(ctx context.Context) error
}
