package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/clock"
	"MiniPOS/internal/gateway"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

const (
	inventoryFile = "inventory.csv"
	salesFile     = "sales_records.csv"
)

func main() {
	service := "pos"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("load .env failed", zap.Error(err))
	}

	port := getenv("PORT", "8080")
	dataDir := getenv("DATA_DIR", "data")
	billsDir := getenv("BILLS_DIR", "bills")
	reportsDir := getenv("REPORTS_DIR", "reports")
	metricsEnabled, _ := strconv.ParseBool(getenv("METRICS_ENABLED", "true"))

	newID, err := order.IDGeneratorFor(getenv("ORDER_ID_MODE", order.IDModeTimestamp))
	if err != nil {
		log.Fatal("bad ORDER_ID_MODE", zap.Error(err))
	}

	for _, dir := range []string{dataDir, billsDir, reportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("create directory failed", zap.String("dir", dir), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.New(catalog.NewCSVStore(filepath.Join(dataDir, inventoryFile)), log)
	if err := cat.Load(ctx); err != nil {
		log.Fatal("load catalog failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	clk := clock.NewSystem()
	session := order.NewSession(cat, order.NewCSVHistory(filepath.Join(dataDir, salesFile)))
	session.Clock = clk
	session.NewID = newID
	session.Log = log
	session.Metrics = order.NewMetrics(reg)

	h := gateway.NewHandler(
		gateway.Deps{
			Catalog:    cat,
			Session:    session,
			Clock:      clk,
			BillsDir:   billsDir,
			ReportsDir: reportsDir,
		},
		gateway.HTTPDeps{
			Log:            log,
			Registry:       reg,
			MetricsEnabled: metricsEnabled,
			MetricsToken:   os.Getenv("METRICS_TOKEN"),
		},
	)

	if err := kit.RunHTTPServer(ctx, ":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
