package migrations_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventflow/eventflow-backend/internal/testutil"
	"github.com/eventflow/eventflow-backend/migrations"
)

func TestApply_RecordsEveryMigrationOnce(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`); err != nil {
		t.Fatalf("drop schema_migrations: %v", err)
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	recorded := migrationRows(t, ctx, pool)
	if len(recorded) < 5 {
		t.Fatalf("expected at least 5 recorded migrations, got %d", len(recorded))
	}
	for i := 1; i < len(recorded); i++ {
		if recorded[i] <= recorded[i-1] {
			t.Fatalf("migrations out of order: %q before %q", recorded[i-1], recorded[i])
		}
	}

	// Re-applying must be a no-op.
	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}
	again := migrationRows(t, ctx, pool)
	if len(again) != len(recorded) {
		t.Fatalf("expected %d recorded migrations after re-apply, got %d", len(recorded), len(again))
	}
}

func migrationRows(t *testing.T, ctx context.Context, pool *pgxpool.Pool) []string {
	t.Helper()

	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations ORDER BY name`)
	if err != nil {
		t.Fatalf("query schema_migrations: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan migration name: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate schema_migrations: %v", err)
	}
	return names
}
