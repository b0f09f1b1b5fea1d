package finance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	return NewService(store), store
}

func mustCategory(t *testing.T, svc *Service, name string, typ CategoryType) *Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), name, typ)
	if err != nil {
		t.Fatalf("CreateCategory(%s): %v", name, err)
	}
	return c
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c := mustCategory(t, svc, "Groceries", TypeExpense)
	if c.ID == "" || c.Type != TypeExpense {
		t.Fatalf("unexpected category: %+v", c)
	}

	newName := "Food"
	updated, err := svc.UpdateCategory(ctx, c.ID, CategoryPatch{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if updated.Name != "Food" || updated.Type != TypeExpense {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := svc.Category(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCategory(context.Background(), "  ", "savings")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("want both violations reported, got %v", verr.Violations)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c := mustCategory(t, svc, "Rent", TypeExpense)
	_, err := svc.AddTransaction(ctx, "u-1", TransactionInput{
		CategoryID:  c.ID,
		AmountCents: 120000,
		Date:        time.Now(),
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := svc.DeleteCategory(ctx, c.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("want ErrCategoryInUse, got %v", err)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := mustCategory(t, svc, "Salary", TypeIncome)

	cases := []struct {
		name string
		in   TransactionInput
	}{
		{"zero amount", TransactionInput{CategoryID: c.ID, AmountCents: 0, Date: time.Now()}},
		{"negative amount", TransactionInput{CategoryID: c.ID, AmountCents: -500, Date: time.Now()}},
		{"amount over ceiling", TransactionInput{CategoryID: c.ID, AmountCents: maxAmountCents + 1, Date: time.Now()}},
		{"missing date", TransactionInput{CategoryID: c.ID, AmountCents: 100}},
		{"far future date", TransactionInput{CategoryID: c.ID, AmountCents: 100, Date: time.Now().AddDate(2, 0, 0)}},
		{"missing category", TransactionInput{AmountCents: 100, Date: time.Now()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddTransaction(ctx, "u-1", tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}

	_, err := svc.AddTransaction(ctx, "u-1", TransactionInput{
		CategoryID: "no-such-category", AmountCents: 100, Date: time.Now(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown category: want ValidationError, got %v", err)
	}
}

func TestTransactionOwnershipIsOpaque(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c := mustCategory(t, svc, "Misc", TypeExpense)

	tx, err := svc.AddTransaction(ctx, "owner", TransactionInput{
		CategoryID: c.ID, AmountCents: 100, Date: time.Now(),
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// Another user's record and a nonexistent one are indistinguishable.
	if _, err := svc.Transaction(ctx, "intruder", tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign record, got %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "intruder", tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign delete, got %v", err)
	}
	if _, err := svc.Transaction(ctx, "owner", tx.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestTransactionsFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	salary := mustCategory(t, svc, "Salary", TypeIncome)
	rent := mustCategory(t, svc, "Rent", TypeExpense)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	add := func(cat string, cents int64, d int) {
		t.Helper()
		if _, err := svc.AddTransaction(ctx, "u-1", TransactionInput{
			CategoryID: cat, AmountCents: cents, Date: day(d),
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	add(salary.ID, 500000, 1)
	add(rent.ID, 120000, 5)
	add(rent.ID, 3000, 20)

	from, to := day(2), day(10)
	got, err := svc.Transactions(ctx, "u-1", Filter{From: &from, To: &to}, 0, 0)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(got) != 1 || got[0].AmountCents != 120000 {
		t.Fatalf("date filter: got %+v", got)
	}

	got, err = svc.Transactions(ctx, "u-1", Filter{CategoryType: TypeExpense}, 0, 0)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("type filter: got %d records", len(got))
	}
	// Newest first.
	if !got[0].Date.After(got[1].Date) {
		t.Fatalf("expected descending date order: %v, %v", got[0].Date, got[1].Date)
	}
}

func TestMonthlySummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	salary := mustCategory(t, svc, "Salary", TypeIncome)
	rent := mustCategory(t, svc, "Rent", TypeExpense)

	add := func(user, cat string, cents int64, day int) {
		t.Helper()
		if _, err := svc.AddTransaction(ctx, user, TransactionInput{
			CategoryID: cat, AmountCents: cents,
			Date: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	add("u-1", salary.ID, 500000, 1)
	add("u-1", rent.ID, 120000, 5)
	add("u-1", rent.ID, 4500, 28)
	add("u-2", rent.ID, 999999, 10) // someone else's ledger

	sum, err := svc.MonthlySummary(ctx, "u-1", 2026, 3)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if sum.TotalIncomeCents != 500000 {
		t.Fatalf("income = %d", sum.TotalIncomeCents)
	}
	if sum.TotalExpenseCents != 124500 {
		t.Fatalf("expense = %d", sum.TotalExpenseCents)
	}
	if sum.BalanceCents != 375500 {
		t.Fatalf("balance = %d", sum.BalanceCents)
	}

	// Breakdown ordered by total, largest first, counting entries per
	// category.
	if len(sum.Categories) != 2 {
		t.Fatalf("categories = %+v", sum.Categories)
	}
	if got := sum.Categories[0]; got.Name != "Salary" || got.TotalCents != 500000 || got.Count != 1 {
		t.Fatalf("first breakdown entry: %+v", got)
	}
	if got := sum.Categories[1]; got.Name != "Rent" || got.TotalCents != 124500 || got.Count != 2 {
		t.Fatalf("second breakdown entry: %+v", got)
	}

	if _, err := svc.MonthlySummary(ctx, "u-1", 2026, 13); err == nil {
		t.Fatal("month 13 accepted")
	}
	if _, err := svc.MonthlySummary(ctx, "u-1", 1999, 1); err == nil {
		t.Fatal("year 1999 accepted")
	}
}
