package order

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniPOS/pkg/kit"
)

type Server struct {
	Session  *Session
	BillsDir string
	Log      *zap.Logger
}

type lineView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Lines    []lineView      `json:"lines"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type settleReq struct {
	Discount decimal.Decimal `json:"discount"`
	Save     bool            `json:"save"`
	Filename string          `json:"filename"`
	Filetype string          `json:"filetype"`
}

type settleResp struct {
	Invoice
	Text string `json:"text"`
	File string `json:"file,omitempty"`
}

// CartRoutes serves the cart; mount it under /cart.
func (s *Server) CartRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.viewCart)
	r.Post("/items", s.addItem)
	r.Delete("/items/{product_id}", s.removeItem)
	return r
}

// OrderRoutes serves settlement and the session's sale records; mount it under /orders.
func (s *Server) OrderRoutes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", s.settle)
	r.Get("/", s.listSales)
	return r
}

func (s *Server) viewCart(w http.ResponseWriter, r *http.Request) {
	discount := decimal.Zero
	if raw := r.URL.Query().Get("discount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || !ValidDiscount(d) {
			kit.WriteError(w, r, http.StatusBadRequest, "discount must be a number between 0 and 100", nil)
			return
		}
		discount = d
	}

	kit.WriteJSON(w, http.StatusOK, s.cartView(discount))
}

func (s *Server) cartView(discount decimal.Decimal) cartView {
	cart := s.Session.Cart()
	v := cartView{
		Lines:    make([]lineView, 0, len(cart)),
		Discount: discount,
		Total:    s.Session.CartTotal(discount),
	}
	for _, l := range cart {
		v.Lines = append(v.Lines, lineView{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return v
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	pid := strings.TrimSpace(req.ProductID)
	if pid == "" || req.Qty <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad item", nil)
		return
	}

	if _, found := s.Session.catalog.Get(pid); !found {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"product_id": pid})
		return
	}
	if !s.Session.AddToCart(pid, req.Qty) {
		kit.WriteError(w, r, http.StatusConflict, "insufficient stock", map[string]any{"product_id": pid})
		return
	}

	kit.WriteJSON(w, http.StatusCreated, s.cartView(decimal.Zero))
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "product_id")

	if !s.Session.RemoveFromCart(pid) {
		kit.WriteError(w, r, http.StatusNotFound, "not in cart", map[string]any{"product_id": pid})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req settleReq
	if err := kit.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if !ValidDiscount(req.Discount) {
		kit.WriteError(w, r, http.StatusBadRequest, "discount must be between 0 and 100", nil)
		return
	}

	inv, ok, err := s.Session.Settle(r.Context(), req.Discount)
	if err != nil {
		s.logError("settle failed", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusConflict, "cart empty", nil)
		return
	}

	resp := settleResp{Invoice: inv, Text: inv.String()}
	if req.Save {
		path, err := SaveInvoice(s.BillsDir, inv, req.Filename, req.Filetype, s.now())
		if err != nil {
			// The sale is already recorded; report it and say the bill was not saved.
			s.logError("save invoice failed", err, zap.String("order_id", inv.OrderID))
			kit.WriteJSON(w, http.StatusCreated, resp)
			return
		}
		resp.File = path
	}

	kit.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) listSales(w http.ResponseWriter, _ *http.Request) {
	sales := s.Session.Sales()
	if sales == nil {
		sales = []SaleRecord{}
	}
	kit.WriteJSON(w, http.StatusOK, sales)
}

func (s *Server) now() time.Time {
	return s.Session.Clock.Now()
}

func (s *Server) logError(msg string, err error, fields ...zap.Field) {
	if s.Log != nil {
		s.Log.Error(msg, append(fields, zap.Error(err))...)
	}
}
