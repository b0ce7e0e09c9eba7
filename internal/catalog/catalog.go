package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"MiniPOS/pkg/kit"
)

const DefaultLowStockThreshold = 5

// Catalog is the authoritative product list. Products are held by pointer so a cart
// line keeps referring to the live product; it is not safe for concurrent use.
type Catalog struct {
	store    Store
	log      *zap.Logger
	products []*Product
}

func New(store Store, log *zap.Logger) *Catalog {
	return &Catalog{store: store, log: kit.OrNop(log)}
}

// Load replaces the in-memory list with the contents of the backing store.
// A store with nothing in it yields an empty catalog.
func (c *Catalog) Load(ctx context.Context) error {
	stored, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	c.products = make([]*Product, 0, len(stored))
	for i := range stored {
		p := stored[i]
		c.products = append(c.products, &p)
	}

	c.log.Info("catalog loaded", zap.Int("products", len(c.products)))
	return nil
}

// Persist rewrites the whole backing store from the in-memory list.
func (c *Catalog) Persist(ctx context.Context) error {
	snapshot := make([]Product, len(c.products))
	for i, p := range c.products {
		snapshot[i] = *p
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	return nil
}

func (c *Catalog) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Add appends p unless its id is taken. ok is false on a duplicate id, in which
// case nothing changes.
func (c *Catalog) Add(ctx context.Context, p Product) (bool, error) {
	if _, found := c.Get(p.ID); found {
		return false, nil
	}

	c.products = append(c.products, &p)
	if err := c.Persist(ctx); err != nil {
		return true, err
	}

	c.log.Info("product added", zap.String("product_id", p.ID))
	return true, nil
}

func (c *Catalog) Update(ctx context.Context, id string, fields UpdateFields) (bool, error) {
	p, found := c.Get(id)
	if !found {
		return false, nil
	}

	fields.apply(p)
	if err := c.Persist(ctx); err != nil {
		return true, err
	}

	c.log.Info("product updated", zap.String("product_id", id))
	return true, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) (bool, error) {
	i := c.index(id)
	if i < 0 {
		return false, nil
	}

	c.products = slices.Delete(c.products, i, i+1)
	if err := c.Persist(ctx); err != nil {
		return true, err
	}

	c.log.Info("product deleted", zap.String("product_id", id))
	return true, nil
}

func (c *Catalog) Get(id string) (*Product, bool) {
	i := c.index(id)
	if i < 0 {
		return nil, false
	}
	return c.products[i], true
}

// Products returns every product in stored order.
func (c *Catalog) Products() []*Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Len() int { return len(c.products) }

// Search returns products matching q.ID exactly or containing q.Name, ignoring
// case. A query with neither set matches nothing.
func (c *Catalog) Search(q Query) []*Product {
	name := strings.ToLower(q.Name)

	var out []*Product
	for _, p := range c.products {
		if (q.ID != "" && p.ID == q.ID) ||
			(name != "" && strings.Contains(strings.ToLower(p.Name), name)) {
			out = append(out, p)
		}
	}
	return out
}

// LowStock returns products whose quantity is at or below threshold.
func (c *Catalog) LowStock(threshold int) []*Product {
	var out []*Product
	for _, p := range c.products {
		if p.Quantity <= threshold {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.products, func(p *Product) bool { return p.ID == id })
}
