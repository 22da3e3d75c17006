package sqldb

import (
	"context"
	"testing"
)

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	lite := &DB{dialect: SQLite}
	q := "SELECT * FROM rules WHERE pattern = ? AND active = ? LIMIT ?"

	if got := pg.Rebind(q); got != "SELECT * FROM rules WHERE pattern = $1 AND active = $2 LIMIT $3" {
		t.Errorf("postgres Rebind = %q", got)
	}
	if got := lite.Rebind(q); got != q {
		t.Errorf("sqlite Rebind = %q, want unchanged", got)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	d := OpenMemory(t)
	ctx := context.Background()

	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := d.Version(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("expected version %d, got %d", len(migrations), v)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	d := OpenMemory(t)
	ctx := context.Background()

	insert := `INSERT INTO rules (id, pattern, pattern_key, compiled_query, confidence, source, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.Exec(ctx, insert, "a", "red dragon", "dragon red", "c:r t:dragon", 0.9, "manual", true, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := d.Exec(ctx, insert, "b", "red dragon", "dragon red", "c:r t:dragon", 0.9, "manual", true, 1, 1)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// inactive rows do not collide
	if _, err := d.Exec(ctx, insert, "c", "red dragon", "dragon red", "c:r t:dragon", 0.9, "manual", false, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsUniqueViolation(nil) {
		t.Error("nil is not a violation")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}
