package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniPOS/pkg/kit"
)

type Server struct {
	Catalog *Catalog
	Log     *zap.Logger
}

// Routes serves the product endpoints; mount it under /products.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Get("/{id}", s.get)
	r.Patch("/{id}", s.update)
	r.Delete("/{id}", s.delete)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := Query{
		ID:   r.URL.Query().Get("id"),
		Name: r.URL.Query().Get("name"),
	}

	products := s.Catalog.Products()
	if r.URL.Query().Has("id") || r.URL.Query().Has("name") {
		products = s.Catalog.Search(q)
	}
	if products == nil {
		products = []*Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.Catalog.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := kit.DecodeJSON(w, r, &p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return
	}
	if msg := validate(&p.Price, &p.Quantity); msg != "" {
		kit.WriteError(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	ok, err := s.Catalog.Add(r.Context(), p)
	if err != nil {
		s.serverError(w, r, "add product failed", err, p.ID)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusConflict, "product already exists", map[string]any{"id": p.ID})
		return
	}

	created, _ := s.Catalog.Get(p.ID)
	kit.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields UpdateFields
	if err := kit.DecodeJSON(w, r, &fields); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if msg := validate(fields.Price, fields.Quantity); msg != "" {
		kit.WriteError(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	ok, err := s.Catalog.Update(r.Context(), id, fields)
	if err != nil {
		s.serverError(w, r, "update product failed", err, id)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	p, _ := s.Catalog.Get(id)
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := s.Catalog.Delete(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "delete product failed", err, id)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, id string) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err), zap.String("id", id))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func validate(price *decimal.Decimal, qty *int) string {
	if price != nil && price.IsNegative() {
		return "price must not be negative"
	}
	if qty != nil && *qty < 0 {
		return "quantity must not be negative"
	}
	return ""
}
