package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crashdash/internal/ddl"
	"crashdash/internal/storage"
)

// fakeRepository records Exec calls without a database.
type fakeRepository struct {
	storage.Repository
	execCalls int
	lastSQL   string
	err       error
}

func (f *fakeRepository) Exec(ctx context.Context, sql string) error {
	f.execCalls++
	f.lastSQL = sql
	return f.err
}

func TestEnsureTable_RendersPostgresTypes(t *testing.T) {
	t.Parallel()

	var repo fakeRepository
	td := ddl.ForDataset("public.accidents", []string{"occurred_at", "latitude", "fatalities", "boletim"})
	if err := EnsureTable(context.Background(), &repo, td); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if repo.execCalls != 1 {
		t.Fatalf("Exec called %d times, want 1", repo.execCalls)
	}
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "public"."accidents"`,
		`"source" TEXT NOT NULL`,
		`"source_line" INTEGER NOT NULL`,
		`"occurred_at" TIMESTAMP`,
		`"latitude" DOUBLE PRECISION`,
		`"fatalities" INTEGER`,
		`"boletim" TEXT`,
	} {
		if !strings.Contains(repo.lastSQL, want) {
			t.Errorf("SQL missing %q:\n%s", want, repo.lastSQL)
		}
	}
}

func TestEnsureTable_Errors(t *testing.T) {
	t.Parallel()

	var repo fakeRepository
	if err := EnsureTable(context.Background(), &repo, ddl.TableDef{}); err == nil {
		t.Fatalf("expected error for empty table def")
	}
	if repo.execCalls != 0 {
		t.Fatalf("Exec called %d times, want 0 when build fails", repo.execCalls)
	}

	boom := errors.New("permission denied")
	repo.err = boom
	if err := EnsureTable(context.Background(), &repo, ddl.ForDataset("t", nil)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
