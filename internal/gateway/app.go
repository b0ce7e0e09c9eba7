package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/clock"
	"MiniPOS/internal/order"
	"MiniPOS/internal/report"
	"MiniPOS/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog *catalog.Catalog
	Session *order.Session
	Clock   clock.Clock

	BillsDir   string
	ReportsDir string
}

const readyTimeout = 1 * time.Second

// NewHandler exposes the catalog, the cart, settlement and reports on one router.
// Requests are serialized: the core expects one operation at a time.
func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	log := kit.OrNop(httpDeps.Log)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, deps, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Catalog, log))

	catalogSrv := &catalog.Server{Catalog: deps.Catalog, Log: log}
	orderSrv := &order.Server{Session: deps.Session, BillsDir: deps.BillsDir, Log: log}
	reportSrv := &report.Server{
		Catalog: deps.Catalog,
		Session: deps.Session,
		Clock:   deps.Clock,
		Dir:     deps.ReportsDir,
		Log:     log,
	}

	r.Mount("/products", catalogSrv.Routes())
	r.Mount("/cart", orderSrv.CartRoutes())
	r.Mount("/orders", orderSrv.OrderRoutes())
	r.Mount("/reports", reportSrv.Routes())

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(kit.Serialize())
}

func setupMetrics(r *chi.Mux, deps Deps, httpDeps HTTPDeps) {
	if httpDeps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(httpDeps.Registry)
	r.Use(metrics.Middleware(kit.RoutePattern))

	httpDeps.Registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: kit.Namespace,
			Name:      "catalog_products",
			Help:      "Products in the catalog",
		}, func() float64 { return float64(deps.Catalog.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: kit.Namespace,
			Name:      "low_stock_products",
			Help:      "Products at or below the default low stock threshold",
		}, func() float64 { return float64(len(deps.Catalog.LowStock(catalog.DefaultLowStockThreshold))) }),
	)

	if !httpDeps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(httpDeps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(httpDeps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(cat *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := cat.Ping(ctx); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
