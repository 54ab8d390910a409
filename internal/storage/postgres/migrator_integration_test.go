package postgres

import (
	"context"
	"testing"
	"time"
)

func TestMigrator_PostgresUpDownFlow(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if count == 0 || version == 0 {
		t.Fatalf("expected applied migrations, got version=%d count=%d", version, count)
	}

	// Повторный запуск не должен применять уже применённые миграции.
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}
	versionAfter, countAfter, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status after repeat: %v", err)
	}
	if versionAfter != version || countAfter != count {
		t.Fatalf("repeated up changed state: version=%d count=%d", versionAfter, countAfter)
	}

	if err := store.MigrateDown(ctx, count); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	versionDown, countDown, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status after down: %v", err)
	}
	if versionDown != 0 || countDown != 0 {
		t.Fatalf("expected clean schema after down, got version=%d count=%d", versionDown, countDown)
	}

	// Возвращаем схему, чтобы соседние интеграционные тесты получили таблицы.
	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("restore schema: %v", err)
	}
}
