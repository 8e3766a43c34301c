package command

import (
	"context"
	"errors"
	"testing"

	"github.com/tair/cosmetics-recommender/internal/product/domain"
	"github.com/tair/cosmetics-recommender/kafka"
)

type fakeRepo struct {
	domain.ProductRepository
	products map[uint]*domain.Product
	nextID   uint
	updates  []map[string]interface{}
}

func newFakeRepo(products ...domain.Product) *fakeRepo {
	r := &fakeRepo{products: make(map[uint]*domain.Product), nextID: 1}
	for i := range products {
		p := products[i]
		r.products[p.ID] = &p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, p *domain.Product) error {
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = p
	return nil
}

func (r *fakeRepo) Update(_ context.Context, id uint, fields map[string]interface{}) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	r.updates = append(r.updates, fields)
	if v, ok := fields["name"].(string); ok {
		p.Name = v
	}
	if v, ok := fields["price"].(float64); ok {
		p.Price = v
	}
	if v, ok := fields["stock"].(int); ok {
		p.Stock = v
	}
	return p, nil
}

func (r *fakeRepo) UpdateStock(ctx context.Context, id uint, stock int) (*domain.Product, error) {
	return r.Update(ctx, id, map[string]interface{}{"stock": stock})
}

func (r *fakeRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type recordingPublisher struct {
	events []kafka.ProductChangedEvent
	err    error
}

func (p *recordingPublisher) PublishProductChanged(_ context.Context, e kafka.ProductChangedEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CreateProductCommand
		wantErr error
	}{
		{name: "valid", cmd: CreateProductCommand{Name: "Toner", Price: 12, Stock: 3, Category: "toner"}},
		{name: "missing name", cmd: CreateProductCommand{Price: 12}, wantErr: domain.ErrInvalidProduct},
		{name: "negative price", cmd: CreateProductCommand{Name: "Toner", Price: -1}, wantErr: domain.ErrInvalidProduct},
		{name: "negative stock", cmd: CreateProductCommand{Name: "Toner", Stock: -1}, wantErr: domain.ErrInvalidProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			pub := &recordingPublisher{}
			h := NewCreateProductHandler(repo, pub)

			product, err := h.Handle(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Handle() error = %v, want %v", err, tt.wantErr)
				}
				if len(pub.events) != 0 {
					t.Error("event published for rejected product")
				}
				return
			}
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if product.ID == 0 {
				t.Error("product id not assigned")
			}
			if len(pub.events) != 1 || pub.events[0].EventType != kafka.EventTypeProductCreated {
				t.Fatalf("events = %+v", pub.events)
			}
			if pub.events[0].Category != "toner" || *pub.events[0].Stock != 3 {
				t.Errorf("event = %+v", pub.events[0])
			}
		})
	}
}

func TestCreateProductSurvivesPublishFailure(t *testing.T) {
	h := NewCreateProductHandler(newFakeRepo(), &recordingPublisher{err: errors.New("kafka down")})

	if _, err := h.Handle(context.Background(), CreateProductCommand{Name: "Mask"}); err != nil {
		t.Fatalf("Handle() error = %v, want nil", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	name := "Renamed"
	empty := ""
	negative := -5.0
	price := 9.5

	tests := []struct {
		name    string
		cmd     UpdateProductCommand
		wantErr error
	}{
		{name: "partial", cmd: UpdateProductCommand{ID: 1, Name: &name, Price: &price}},
		{name: "no fields", cmd: UpdateProductCommand{ID: 1}, wantErr: domain.ErrNoFieldsToUpdate},
		{name: "empty name", cmd: UpdateProductCommand{ID: 1, Name: &empty}, wantErr: domain.ErrInvalidProduct},
		{name: "negative price", cmd: UpdateProductCommand{ID: 1, Price: &negative}, wantErr: domain.ErrInvalidProduct},
		{name: "missing", cmd: UpdateProductCommand{ID: 42, Name: &name}, wantErr: domain.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(domain.Product{ID: 1, Name: "Original", Price: 20, Stock: 4})
			pub := &recordingPublisher{}
			h := NewUpdateProductHandler(repo, pub)

			product, err := h.Handle(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Handle() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if product.Name != "Renamed" || product.Price != 9.5 || product.Stock != 4 {
				t.Errorf("product = %+v", product)
			}
			if len(repo.updates) != 1 || len(repo.updates[0]) != 2 {
				t.Errorf("updated columns = %v, want name and price only", repo.updates)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != kafka.EventTypeProductUpdated {
				t.Errorf("events = %+v", pub.events)
			}
		})
	}
}

func TestUpdateProductFieldsIncludesFlags(t *testing.T) {
	yes, no := true, false
	fields := UpdateProductCommand{ID: 1, Dry: &yes, Oily: &no}.Fields()

	if fields["dry"] != true || fields["oily"] != false {
		t.Errorf("fields = %v", fields)
	}
	if _, ok := fields["sensitive"]; ok {
		t.Error("unset flag should not be updated")
	}
}

func TestUpdateStock(t *testing.T) {
	repo := newFakeRepo(domain.Product{ID: 3, Name: "Cream", Stock: 1, Category: "moisturizer"})
	pub := &recordingPublisher{}
	h := NewUpdateStockHandler(repo, pub)

	if _, err := h.Handle(context.Background(), UpdateStockCommand{ProductID: 3, Stock: -1}); !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("negative stock error = %v", err)
	}

	product, err := h.Handle(context.Background(), UpdateStockCommand{ProductID: 3, Stock: 0})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if product.Stock != 0 {
		t.Errorf("stock = %d, want 0", product.Stock)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != kafka.EventTypeProductStockUpdated || *pub.events[0].Stock != 0 {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestDeleteProduct(t *testing.T) {
	repo := newFakeRepo(domain.Product{ID: 5, Name: "Balm"})
	pub := &recordingPublisher{}
	h := NewDeleteProductHandler(repo, pub)

	if err := h.Handle(context.Background(), DeleteProductCommand{ID: 5}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if err := h.Handle(context.Background(), DeleteProductCommand{ID: 5}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("second delete error = %v, want ErrProductNotFound", err)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != kafka.EventTypeProductDeleted {
		t.Errorf("events = %+v", pub.events)
	}
}
