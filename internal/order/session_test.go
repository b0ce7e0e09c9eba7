package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/clock"
	"MiniPOS/internal/order"
)

var settledAt = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	cat     *catalog.Catalog
	store   *catalog.MemStore
	history *order.MemHistory
	clock   *clock.Fixed
	session *order.Session
}

func newFixture(t *testing.T, seed ...catalog.Product) *fixture {
	t.Helper()

	f := &fixture{
		store:   catalog.NewMemStore(seed...),
		history: order.NewMemHistory(),
		clock:   clock.NewFixed(settledAt),
	}
	f.cat = catalog.New(f.store, zap.NewNop())
	require.NoError(t, f.cat.Load(context.Background()))

	f.session = order.NewSession(f.cat, f.history)
	f.session.Clock = f.clock
	return f
}

func (f *fixture) product(t *testing.T, id string) *catalog.Product {
	t.Helper()
	p, ok := f.cat.Get(id)
	require.True(t, ok, "product %s", id)
	return p
}

func TestSession_AddToCart(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)

	assert.False(t, f.session.AddToCart("a", 6), "more than in stock")
	assert.True(t, f.session.CartEmpty())

	assert.False(t, f.session.AddToCart("missing", 1))
	assert.True(t, f.session.CartEmpty())

	require.True(t, f.session.AddToCart("a", 5))
	cart := f.session.Cart()
	require.Len(t, cart, 1)
	assert.Same(t, f.product(t, "a"), cart[0].Product)
	assert.Equal(t, 5, cart[0].Quantity)
	assert.True(t, cart[0].Subtotal.Equal(dec("50")))
}

func TestSession_AddToCartFreezesPrice(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)
	require.True(t, f.session.AddToCart("a", 2))

	price := dec("12")
	_, err := f.cat.Update(context.Background(), "a", catalog.UpdateFields{Price: &price})
	require.NoError(t, err)

	assert.True(t, f.session.CartTotal(decimal.Zero).Equal(dec("20")))
}

func TestSession_RemoveFromCartDropsFirstMatch(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
		catalog.Product{ID: "b", Name: "Pear", Price: dec("5"), Quantity: 5},
	)
	require.True(t, f.session.AddToCart("a", 1))
	require.True(t, f.session.AddToCart("b", 1))
	require.True(t, f.session.AddToCart("a", 3))

	require.True(t, f.session.RemoveFromCart("a"))
	cart := f.session.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "b", cart[0].Product.ID)
	assert.Equal(t, "a", cart[1].Product.ID)
	assert.Equal(t, 3, cart[1].Quantity)

	assert.False(t, f.session.RemoveFromCart("zz"))

	require.True(t, f.session.RemoveFromCart("a"))
	require.True(t, f.session.RemoveFromCart("b"))
	assert.True(t, f.session.CartEmpty())
	assert.False(t, f.session.RemoveFromCart("b"))
}

func TestSession_CartTotal(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
		catalog.Product{ID: "b", Name: "Pear", Price: dec("5"), Quantity: 5},
	)

	assert.True(t, f.session.CartTotal(decimal.Zero).IsZero(), "empty cart")

	require.True(t, f.session.AddToCart("a", 2))
	require.True(t, f.session.AddToCart("b", 1))

	tests := []struct {
		discount string
		want     string
	}{
		{"0", "25"},
		{"10", "22.5"},
		{"100", "0"},
		{"12.5", "21.875"},
	}
	for _, tt := range tests {
		t.Run(tt.discount, func(t *testing.T) {
			got := f.session.CartTotal(dec(tt.discount))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}

	assert.Len(t, f.session.Cart(), 2, "CartTotal must not change the cart")
}

func TestSession_SettleEmptyCart(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)

	inv, ok, err := f.session.Settle(context.Background(), decimal.Zero)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, inv.OrderID)

	assert.Empty(t, f.session.Sales())
	recs, _ := f.history.Records(context.Background())
	assert.Empty(t, recs)
	assert.Equal(t, 0, f.store.Saves())
	assert.Equal(t, 5, f.product(t, "a").Quantity)
}

func TestSession_Settle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)
	require.True(t, f.session.AddToCart("a", 2))

	inv, ok, err := f.session.Settle(ctx, decimal.Zero)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 3, f.product(t, "a").Quantity)
	assert.True(t, f.session.CartEmpty())
	assert.Equal(t, 1, f.store.Saves())

	stored, _ := f.store.Load(ctx)
	assert.Equal(t, 3, stored[0].Quantity, "catalog persisted after decrement")

	recs, err := f.history.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "20250314150926", rec.OrderID)
	assert.True(t, rec.Total.Equal(dec("20")))
	assert.Equal(t, 1, rec.Items)
	require.Len(t, rec.Details, 1)
	assert.Equal(t, "Apple", rec.Details[0].Name)
	assert.Equal(t, 2, rec.Details[0].Quantity)
	assert.True(t, rec.Details[0].Subtotal.Equal(dec("20")))
	assert.Equal(t, f.session.Sales(), recs)

	assert.Equal(t, rec.OrderID, inv.OrderID)
	assert.True(t, inv.Total.Equal(dec("20")))
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "a", inv.Lines[0].ProductID)
}

func TestSession_SettleAppliesDiscount(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
		catalog.Product{ID: "b", Name: "Pear", Price: dec("5"), Quantity: 5},
	)
	require.True(t, f.session.AddToCart("a", 2))
	require.True(t, f.session.AddToCart("b", 1))

	inv, ok, err := f.session.Settle(context.Background(), dec("10"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, inv.Total.Equal(dec("22.5")))
	assert.Equal(t, 2, f.session.Sales()[0].Items)
}

func TestSession_SettleDoesNotRecheckStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)
	require.True(t, f.session.AddToCart("a", 4))

	qty := 1
	_, err := f.cat.Update(ctx, "a", catalog.UpdateFields{Quantity: &qty})
	require.NoError(t, err)

	_, ok, err := f.session.Settle(ctx, decimal.Zero)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -3, f.product(t, "a").Quantity)
}

func TestSession_TimestampIDsCollideWithinASecond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)

	require.True(t, f.session.AddToCart("a", 1))
	first, _, err := f.session.Settle(ctx, decimal.Zero)
	require.NoError(t, err)

	f.clock.Advance(400 * time.Millisecond)
	require.True(t, f.session.AddToCart("a", 1))
	second, _, err := f.session.Settle(ctx, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)

	f.session.NewID = order.UUIDID
	require.True(t, f.session.AddToCart("a", 1))
	third, _, err := f.session.Settle(ctx, decimal.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, third.OrderID)
	assert.Regexp(t, `^o_[0-9a-f-]{36}$`, third.OrderID)
}

type failingStore struct{ *catalog.MemStore }

func (failingStore) Save(context.Context, []catalog.Product) error { return errors.New("disk full") }

func TestSession_SettlePersistFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemStore(catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5})
	cat := catalog.New(failingStore{mem}, zap.NewNop())
	require.NoError(t, cat.Load(ctx))

	history := order.NewMemHistory()
	s := order.NewSession(cat, history)
	require.True(t, s.AddToCart("a", 2))

	_, ok, err := s.Settle(ctx, decimal.Zero)
	require.Error(t, err)
	assert.False(t, ok)
	assert.False(t, s.CartEmpty())

	recs, _ := history.Records(ctx)
	assert.Empty(t, recs)
}

func TestSession_DailySales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 50},
		catalog.Product{ID: "b", Name: "Pear", Price: dec("5"), Quantity: 50},
	)

	settle := func(lines map[string]int) {
		for id, qty := range lines {
			require.True(t, f.session.AddToCart(id, qty))
		}
		_, ok, err := f.session.Settle(ctx, decimal.Zero)
		require.NoError(t, err)
		require.True(t, ok)
		f.clock.Advance(time.Minute)
	}

	settle(map[string]int{"a": 1, "b": 2})
	settle(map[string]int{"a": 3})
	f.clock.Advance(24 * time.Hour)
	settle(map[string]int{"b": 1})

	today := f.session.DailySales(settledAt)
	assert.Equal(t, "2025-03-14", today.Date)
	assert.Equal(t, 2, today.NumOrders)
	assert.Equal(t, 3, today.TotalItems)
	assert.True(t, today.TotalSales.Equal(dec("50")), "got %s", today.TotalSales)

	next := f.session.DailySales(settledAt.Add(24 * time.Hour))
	assert.Equal(t, 1, next.NumOrders)
	assert.True(t, next.TotalSales.Equal(dec("5")))

	empty := f.session.DailySales(settledAt.Add(-48 * time.Hour))
	assert.Equal(t, 0, empty.NumOrders)
	assert.True(t, empty.TotalSales.IsZero())
}

func TestSession_DailySalesIgnoresEarlierRuns(t *testing.T) {
	ctx := context.Background()
	history := order.NewMemHistory()
	require.NoError(t, history.Append(ctx, order.SaleRecord{OrderID: "old", At: settledAt, Items: 1, Total: dec("99")}))

	f := newFixture(t)
	s := order.NewSession(f.cat, history)

	assert.Equal(t, 0, s.DailySales(settledAt).NumOrders)
}

func TestSession_Metrics(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "a", Name: "Apple", Price: dec("10"), Quantity: 5},
	)
	f.session.Metrics = order.NewMetrics(prometheus.NewRegistry())

	require.True(t, f.session.AddToCart("a", 2))
	_, _, err := f.session.Settle(context.Background(), dec("50"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.session.Metrics.OrdersSettled))
	assert.Equal(t, 10.0, testutil.ToFloat64(f.session.Metrics.SalesAmount))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.session.Metrics.ItemsSold))
}

func TestValidDiscount(t *testing.T) {
	assert.True(t, order.ValidDiscount(decimal.Zero))
	assert.True(t, order.ValidDiscount(dec("100")))
	assert.True(t, order.ValidDiscount(dec("33.3")))
	assert.False(t, order.ValidDiscount(dec("-0.01")))
	assert.False(t, order.ValidDiscount(dec("100.5")))
}

func TestIDGeneratorFor(t *testing.T) {
	gen, err := order.IDGeneratorFor("")
	require.NoError(t, err)
	assert.Equal(t, "20250314150926", gen(settledAt))

	_, err = order.IDGeneratorFor(order.IDModeUUID)
	require.NoError(t, err)

	_, err = order.IDGeneratorFor("counter")
	assert.Error(t, err)
}
