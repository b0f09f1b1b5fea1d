// Package finance holds the ledger domain: spending categories, user
// transactions, and period summaries.
package finance

import "time"

// CategoryType partitions categories into the two sides of the ledger.
type CategoryType string

const (
	TypeIncome  CategoryType = "income"
	TypeExpense CategoryType = "expense"
)

func (t CategoryType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category is a shared label for transactions. Categories are global;
// transactions are scoped to their owner.
type Category struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Transaction is a single ledger entry. Amounts are stored in cents to
// keep arithmetic exact.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CategoryID  string    `json:"category_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows a transaction listing.
type Filter struct {
	From         *time.Time
	To           *time.Time
	CategoryID   string
	CategoryType CategoryType
}

// Summary aggregates a user's ledger over a period.
type Summary struct {
	TotalIncomeCents  int64             `json:"total_income_cents"`
	TotalExpenseCents int64             `json:"total_expense_cents"`
	BalanceCents      int64             `json:"balance_cents"`
	Categories        []CategorySummary `json:"categories"`
	PeriodStart       time.Time         `json:"period_start"`
	PeriodEnd         time.Time         `json:"period_end"`
}

// CategorySummary is one category's share of a period, ordered largest
// total first.
type CategorySummary struct {
	CategoryID string       `json:"category_id"`
	Name       string       `json:"name"`
	Type       CategoryType `json:"type"`
	TotalCents int64        `json:"total_cents"`
	Count      int          `json:"count"`
}

// CategoryPatch carries the updatable category fields; nil means keep.
type CategoryPatch struct {
	Name *string
	Type *CategoryType
}

// TransactionPatch carries the updatable transaction fields; nil means keep.
type TransactionPatch struct {
	CategoryID  *string
	AmountCents *int64
	Description *string
	Date        *time.Time
}
