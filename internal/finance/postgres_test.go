package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGStoreSummaryBreaksDownByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	mock.ExpectQuery("select c.id, c.name, c.type, coalesce\\(sum\\(t.amount_cents\\), 0\\), count\\(t.id\\)").
		WithArgs("u-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "sum", "count"}).
			AddRow("c-1", "Salary", "income", 500000, 1).
			AddRow("c-2", "Rent", "expense", 124500, 2))

	store := NewPGStore(db)
	sum, err := store.Summary(context.Background(), "u-1", from, to)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalIncomeCents != 500000 || sum.TotalExpenseCents != 124500 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if len(sum.Categories) != 2 {
		t.Fatalf("unexpected breakdown: %+v", sum.Categories)
	}
	if got := sum.Categories[0]; got.CategoryID != "c-1" || got.Name != "Salary" || got.TotalCents != 500000 || got.Count != 1 {
		t.Fatalf("first breakdown entry: %+v", got)
	}
}

func TestPGStoreDeleteCategoryMapsForeignKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from categories").
		WithArgs("c-1").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "transactions_category_id_fkey"})

	store := NewPGStore(db)
	if err := store.DeleteCategory(context.Background(), "c-1"); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("want ErrCategoryInUse, got %v", err)
	}
}

func TestPGStoreTransactionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select (.+) from transactions where id=\\$1 and user_id=\\$2").
		WithArgs("tx-1", "intruder").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPGStore(db)
	if _, err := store.Transaction(context.Background(), "intruder", "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPGStoreTransactionsBuildsFilterQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "category_id", "amount_cents", "description", "trans_date", "created_at",
	}).AddRow("tx-1", "u-1", "c-1", int64(100), "", now, now)

	mock.ExpectQuery("join categories c on c.id = t.category_id").
		WithArgs("u-1", "expense", 100, 0).
		WillReturnRows(rows)

	store := NewPGStore(db)
	got, err := store.Transactions(context.Background(), "u-1",
		Filter{CategoryType: TypeExpense}, 100, 0)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
