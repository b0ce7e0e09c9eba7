package order

import (
	"github.com/prometheus/client_golang/prometheus"

	"MiniPOS/pkg/kit"
)

type Metrics struct {
	OrdersSettled prometheus.Counter
	SalesAmount   prometheus.Counter
	ItemsSold     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: kit.Namespace,
			Name:      "orders_settled_total",
			Help:      "Settled orders",
		}),
		SalesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: kit.Namespace,
			Name:      "sales_amount_total",
			Help:      "Sum of settled order totals after discount",
		}),
		ItemsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: kit.Namespace,
			Name:      "items_sold_total",
			Help:      "Units taken out of stock by settlements",
		}),
	}

	reg.MustRegister(m.OrdersSettled, m.SalesAmount, m.ItemsSold)
	return m
}

func (m *Metrics) observe(rec SaleRecord) {
	if m == nil {
		return
	}

	units := 0
	for _, d := range rec.Details {
		units += d.Quantity
	}

	m.OrdersSettled.Inc()
	// Counters reject negative deltas; discounts above 100% are the caller's bug.
	if total := rec.Total.InexactFloat64(); total > 0 {
		m.SalesAmount.Add(total)
	}
	if units > 0 {
		m.ItemsSold.Add(float64(units))
	}
}
