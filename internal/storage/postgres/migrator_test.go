package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsFromFS_OrdersByVersion(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0002_products.up.sql": {
			Data: []byte("CREATE TABLE test_products (id TEXT);"),
		},
		"sql/migrations/0002_products.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS test_products;"),
		},
		"sql/migrations/0001_orders.up.sql": {
			Data: []byte("CREATE TABLE test_orders (id TEXT);"),
		},
		"sql/migrations/0001_orders.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS test_orders;"),
		},
	}

	migrations, err := loadMigrationsFromFS(fsys)
	if err != nil {
		t.Fatalf("loadMigrationsFromFS failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}

	if migrations[0].Version != 1 || migrations[0].Name != "orders" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "products" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
}

func TestLoadMigrationsFromFS_MissingDown(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_orders.up.sql": {
			Data: []byte("CREATE TABLE test_orders (id TEXT);"),
		},
	}

	_, err := loadMigrationsFromFS(fsys)
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
	if !strings.Contains(err.Error(), "both up and down") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMigrationsFromFS_NameMismatch(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_orders.up.sql": {
			Data: []byte("CREATE TABLE test_orders (id TEXT);"),
		},
		"sql/migrations/0001_lines.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS test_orders;"),
		},
	}

	_, err := loadMigrationsFromFS(fsys)
	if err == nil {
		t.Fatal("expected error for mismatched migration names")
	}
	if !strings.Contains(err.Error(), "name mismatch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMigrationsFromFS_InvalidFilename(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/not_a_migration.sql": {
			Data: []byte("SELECT 1;"),
		},
	}

	_, err := loadMigrationsFromFS(fsys)
	if err == nil {
		t.Fatal("expected error for invalid migration file name")
	}
}

func TestLoadMigrationsFromFS_EmptyFile(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_orders.up.sql": {
			Data: []byte("   \n"),
		},
		"sql/migrations/0001_orders.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS test_orders;"),
		},
	}

	_, err := loadMigrationsFromFS(fsys)
	if err == nil {
		t.Fatal("expected error for empty migration file body")
	}
}

func TestEmbeddedMigrationsAreComplete(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations are broken: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	if migrations[0].Version != 1 {
		t.Fatalf("embedded migrations must start from version 1, got %d", migrations[0].Version)
	}
}
