package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const (
	categoryColumns    = `id, name, type, created_at`
	transactionColumns = `id, user_id, category_id, amount_cents, description, trans_date, created_at`
)

func (s *PGStore) CreateCategory(ctx context.Context, c *Category) error {
	_, err := s.db.ExecContext(ctx,
		`insert into categories(id, name, type, created_at) values($1,$2,$3,$4)`,
		c.ID, c.Name, string(c.Type), c.CreatedAt,
	)
	return err
}

func (s *PGStore) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+categoryColumns+` from categories order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) Category(ctx context.Context, id string) (*Category, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+categoryColumns+` from categories where id=$1`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error) {
	row := s.db.QueryRowContext(ctx,
		`update categories set
			name = coalesce($2, name),
			type = coalesce($3, type)
		 where id = $1
		 returning `+categoryColumns,
		id, patch.Name, (*string)(patch.Type),
	)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrCategoryInUse
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) CreateTransaction(ctx context.Context, tx *Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`insert into transactions(id, user_id, category_id, amount_cents, description, trans_date, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		tx.ID, tx.UserID, tx.CategoryID, tx.AmountCents, tx.Description, tx.Date, tx.CreatedAt,
	)
	return err
}

func (s *PGStore) Transactions(ctx context.Context, userID string, f Filter, limit, offset int) ([]Transaction, error) {
	query := `select t.id, t.user_id, t.category_id, t.amount_cents, t.description, t.trans_date, t.created_at
		 from transactions t`
	args := []any{userID}
	var where []string
	where = append(where, "t.user_id = $1")

	if f.CategoryType != "" {
		query += ` join categories c on c.id = t.category_id`
		args = append(args, string(f.CategoryType))
		where = append(where, "c.type = $"+strconv.Itoa(len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, "t.trans_date >= $"+strconv.Itoa(len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, "t.trans_date <= $"+strconv.Itoa(len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, "t.category_id = $"+strconv.Itoa(len(args)))
	}
	args = append(args, limit, offset)
	query += " where " + strings.Join(where, " and ") +
		fmt.Sprintf(" order by t.trans_date desc, t.id desc limit $%d offset $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.AmountCents,
			&tx.Description, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *PGStore) Transaction(ctx context.Context, userID, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+transactionColumns+` from transactions where id=$1 and user_id=$2`,
		id, userID)
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.AmountCents,
		&tx.Description, &tx.Date, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *PGStore) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`update transactions set
			category_id  = coalesce($3, category_id),
			amount_cents = coalesce($4, amount_cents),
			description  = coalesce($5, description),
			trans_date   = coalesce($6, trans_date)
		 where id = $1 and user_id = $2
		 returning `+transactionColumns,
		id, userID, patch.CategoryID, patch.AmountCents, patch.Description, patch.Date,
	)
	var tx Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.AmountCents,
		&tx.Description, &tx.Date, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (s *PGStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from transactions where id=$1 and user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Summary(ctx context.Context, userID string, from, to time.Time) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`select c.id, c.name, c.type, coalesce(sum(t.amount_cents), 0), count(t.id)
		 from transactions t
		 join categories c on c.id = t.category_id
		 where t.user_id = $1 and t.trans_date >= $2 and t.trans_date <= $3
		 group by c.id, c.name, c.type
		 order by sum(t.amount_cents) desc, c.name asc`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var cs CategorySummary
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.Type, &cs.TotalCents, &cs.Count); err != nil {
			return nil, err
		}
		switch cs.Type {
		case TypeIncome:
			sum.TotalIncomeCents += cs.TotalCents
		case TypeExpense:
			sum.TotalExpenseCents += cs.TotalCents
		}
		sum.Categories = append(sum.Categories, cs)
	}
	return &sum, rows.Err()
}
