package finance

import (
	"context"
	"time"
)

// Store persists the ledger. Implementations return ErrNotFound for
// missing records and ErrCategoryInUse when a referenced category is
// deleted.
type Store interface {
	CreateCategory(ctx context.Context, c *Category) error
	Categories(ctx context.Context) ([]Category, error)
	Category(ctx context.Context, id string) (*Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx *Transaction) error
	Transactions(ctx context.Context, userID string, f Filter, limit, offset int) ([]Transaction, error)
	Transaction(ctx context.Context, userID, id string) (*Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (*Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	Summary(ctx context.Context, userID string, from, to time.Time) (*Summary, error)
}
