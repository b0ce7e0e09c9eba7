package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"MiniPOS/pkg/kit"
)

const (
	colID       = "product_id"
	colName     = "name"
	colPrice    = "price"
	colQuantity = "quantity"

	filePerm = 0o644
)

var header = []string{colID, colName, colPrice, colQuantity}

var (
	ErrBadHeader = errors.New("inventory file: bad header")
	ErrBadRecord = errors.New("inventory file: bad record")
)

// CSVStore keeps the catalog in a single CSV file with a product_id,name,price,quantity
// header. Every Save rewrites the file through an atomic rename.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *CSVStore) Load(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readProducts(f)
}

func readProducts(r io.Reader) ([]Product, error) {
	cr := csv.NewReader(r)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	idx, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, 16)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		p, err := parseProduct(rec, idx)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, line, err)
		}
		out = append(out, p)
	}
}

func columnIndex(head []string) (map[string]int, error) {
	idx := make(map[string]int, len(head))
	for i, name := range head {
		idx[name] = i
	}
	for _, want := range header {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, want)
		}
	}
	return idx, nil
}

func parseProduct(rec []string, idx map[string]int) (Product, error) {
	price, err := decimal.NewFromString(rec[idx[colPrice]])
	if err != nil {
		return Product{}, fmt.Errorf("price: %w", err)
	}
	qty, err := strconv.Atoi(rec[idx[colQuantity]])
	if err != nil {
		return Product{}, fmt.Errorf("quantity: %w", err)
	}
	return Product{
		ID:       rec[idx[colID]],
		Name:     rec[idx[colName]],
		Price:    price,
		Quantity: qty,
	}, nil
}

func (s *CSVStore) Save(ctx context.Context, products []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return kit.WriteFileAtomic(s.path, filePerm, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, p := range products {
			rec := []string{p.ID, p.Name, p.Price.String(), strconv.Itoa(p.Quantity)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
