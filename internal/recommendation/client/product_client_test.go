package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

func newProductServer(t *testing.T, handler http.HandlerFunc) *ProductClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProductClientWithHTTP(srv.URL+"/", srv.Client())
}

func TestProductClientList(t *testing.T) {
	var gotQuery string
	c := newProductServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"products":[
			{"id":3,"name":"Serum","price":20.5,"stock":2,"category":"serum","dry":true,"createdAt":"2024-03-01T12:00:00.5+02:00"},
			{"id":4,"name":"Toner","price":9,"stock":0,"createdAt":"0001-01-01T00:00:00Z"}
		],"total":2,"limit":50,"offset":0}}`))
	})

	products, err := c.List(context.Background(), domain.ListParams{Category: "serum", Limit: 50})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotQuery != "category=serum&limit=50" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	if products[0].Dry == nil || !*products[0].Dry || products[0].Price != 20.5 {
		t.Errorf("product = %+v", products[0])
	}
	if products[0].CreatedAt != "2024-03-01T10:00:00.5Z" {
		t.Errorf("createdAt = %q, want UTC form", products[0].CreatedAt)
	}
	if products[1].CreatedAt != "" {
		t.Errorf("zero createdAt = %q, want empty", products[1].CreatedAt)
	}
}

// pagedCatalog serves total products and clamps limit the way product-service does.
func pagedCatalog(t *testing.T, total int) (*ProductClient, func() []string) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []string
	)
	c := newProductServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.RawQuery)
		mu.Unlock()

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > maxPageSize {
			limit = maxPageSize
		}

		items := make([]string, 0, limit)
		for id := offset + 1; id <= total && len(items) < limit; id++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"name":"p%d","price":1,"stock":1}`, id, id))
		}
		fmt.Fprintf(w, `{"success":true,"data":{"products":[%s],"total":%d,"limit":%d,"offset":%d}}`,
			strings.Join(items, ","), total, limit, offset)
	})
	return c, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), requests...)
	}
}

func TestProductClientListPagesPastServerCap(t *testing.T) {
	c, requests := pagedCatalog(t, 250)

	products, err := c.List(context.Background(), domain.ListParams{Limit: 200})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 200 {
		t.Fatalf("len = %d, want 200", len(products))
	}
	for i, p := range products {
		if p.ID != int64(i+1) {
			t.Fatalf("products[%d].id = %d, want %d", i, p.ID, i+1)
		}
	}
	if got := requests(); len(got) != 2 || got[0] != "limit=100" || got[1] != "limit=100&offset=100" {
		t.Errorf("requests = %v", got)
	}
}

func TestProductClientListStopsOnShortPage(t *testing.T) {
	c, requests := pagedCatalog(t, 130)

	products, err := c.List(context.Background(), domain.ListParams{Limit: 200})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 130 {
		t.Fatalf("len = %d, want 130", len(products))
	}
	if got := requests(); len(got) != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}

func TestProductClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"success":false,"error":"Product not found"}`, domain.ErrProductNotFound},
		{"server error", http.StatusInternalServerError, `{}`, domain.ErrStoreUnavailable},
		{"garbage", http.StatusOK, `<html>`, domain.ErrStoreUnavailable},
		{"unsuccessful envelope", http.StatusOK, `{"success":false,"error":"boom"}`, domain.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newProductServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GetByID(context.Background(), 7)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetByID() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewProductClientWithHTTP(url, http.DefaultClient)
	if _, err := c.List(context.Background(), domain.ListParams{}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("List() error = %v, want ErrStoreUnavailable", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Ping() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestProductClientGetByID(t *testing.T) {
	c := newProductServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/7" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"id":7,"name":"Balm","price":12,"stock":1}}`))
	})

	p, err := c.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p.ID != 7 || p.Name != "Balm" {
		t.Errorf("product = %+v", p)
	}
}
