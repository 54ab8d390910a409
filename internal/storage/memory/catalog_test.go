package memory_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
	"github.com/vladislavdragonenkov/bookshop/internal/storage/memory"
)

func TestCatalog_GetByID(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(domain.Product{ID: "book-1", Title: "The Go Programming Language", PriceMinor: 3500, Available: true})

	product, err := catalog.GetByID("book-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.PriceMinor != 3500 || !product.Available {
		t.Errorf("unexpected product: %+v", product)
	}

	if _, err := catalog.GetByID("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalog_GetByIDsOmitsMissing(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(domain.Product{ID: "book-1", PriceMinor: 1000, Available: true})
	catalog.Put(domain.Product{ID: "book-2", PriceMinor: 1500, Available: false})

	products, err := catalog.GetByIDs([]string{"book-1", "book-2", "missing"})
	if err != nil {
		t.Fatalf("batch lookup: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if _, ok := products["missing"]; ok {
		t.Error("missing id must be omitted from the batch result")
	}
}

func TestCatalog_MutatorsDriveDrift(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(domain.Product{ID: "book-1", PriceMinor: 1000, Available: true})

	catalog.SetAvailable("book-1", false)
	product, err := catalog.GetByID("book-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Available {
		t.Error("expected product to become unavailable")
	}

	catalog.SetPrice("book-1", 1200)
	product, _ = catalog.GetByID("book-1")
	if product.PriceMinor != 1200 {
		t.Errorf("expected price 1200, got %d", product.PriceMinor)
	}

	catalog.Remove("book-1")
	if _, err := catalog.GetByID("book-1"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected removed product to be gone, got %v", err)
	}
}

func TestUserRepository_FindByUsernameOrEmail(t *testing.T) {
	repo := memory.NewUserRepository(
		domain.Owner{ID: "u-1", Username: "reader", Email: "reader@example.com"},
		domain.Owner{ID: "u-2", Username: "writer", Email: "writer@example.com"},
	)

	byName, err := repo.FindByUsernameOrEmail("reader")
	if err != nil {
		t.Fatalf("lookup by username: %v", err)
	}
	if byName.ID != "u-1" {
		t.Errorf("expected u-1, got %s", byName.ID)
	}

	byEmail, err := repo.FindByUsernameOrEmail("writer@example.com")
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if byEmail.ID != "u-2" {
		t.Errorf("expected u-2, got %s", byEmail.ID)
	}

	if _, err := repo.FindByUsernameOrEmail("nobody"); !errors.Is(err, domain.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}
