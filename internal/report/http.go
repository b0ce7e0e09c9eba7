package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/clock"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

type Server struct {
	Catalog *catalog.Catalog
	Session *order.Session
	Clock   clock.Clock
	Dir     string
	Log     *zap.Logger
}

type exportResp struct {
	File   string `json:"file"`
	Report any    `json:"report"`
}

type lowStockResp struct {
	Threshold int                `json:"threshold"`
	Products  []*catalog.Product `json:"products"`
}

// Routes serves the reports; mount it under /reports.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/daily", s.daily)
	r.Post("/daily/export", s.exportDaily)
	r.Get("/low-stock", s.lowStock)
	r.Post("/low-stock/export", s.exportLowStock)
	return r
}

func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Session.DailySales(day))
}

func (s *Server) exportDaily(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}

	sum := s.Session.DailySales(day)
	path, err := WriteDailySales(s.Dir, sum)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, exportResp{File: path, Report: sum})
}

func (s *Server) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, ok := parseThreshold(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.lowStockResp(threshold))
}

func (s *Server) exportLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, ok := parseThreshold(w, r)
	if !ok {
		return
	}

	resp := s.lowStockResp(threshold)
	path, err := WriteLowStock(s.Dir, resp.Products, s.Clock.Now())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, exportResp{File: path, Report: resp})
}

func (s *Server) lowStockResp(threshold int) lowStockResp {
	products := s.Catalog.LowStock(threshold)
	if products == nil {
		products = []*catalog.Product{}
	}
	return lowStockResp{Threshold: threshold, Products: products}
}

func (s *Server) parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	now := s.Clock.Now()

	raw := r.URL.Query().Get("date")
	if raw == "" {
		return now, true
	}

	day, err := time.ParseInLocation(order.DateLayout, raw, now.Location())
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", map[string]any{"date": raw})
		return time.Time{}, false
	}
	return day, true
}

func parseThreshold(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return catalog.DefaultLowStockThreshold, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "threshold must be an integer", map[string]any{"threshold": raw})
		return 0, false
	}
	return n, true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if s.Log != nil {
		s.Log.Error("report export failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
