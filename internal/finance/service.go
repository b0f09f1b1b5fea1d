package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"finledger.org/internal/ids"
)

const (
	maxCategoryName   = 80
	maxDescription    = 255
	maxAmountCents    = 999_999_999_999 // DECIMAL(12,2) ceiling
	defaultPageSize   = 100
	maxPageSize       = 500
	earliestEntryYear = 2000
)

// TransactionInput is the caller-supplied part of a new ledger entry.
type TransactionInput struct {
	CategoryID  string
	AmountCents int64
	Description string
	Date        time.Time
}

// Service validates and executes ledger operations over a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService wires a ledger service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) CreateCategory(ctx context.Context, name string, typ CategoryType) (*Category, error) {
	name = strings.TrimSpace(name)
	if v := validateCategory(name, typ); len(v) > 0 {
		return nil, &ValidationError{Violations: v}
	}
	c := &Category{
		ID:        ids.New(),
		Name:      name,
		Type:      typ,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.store.Categories(ctx)
}

func (s *Service) Category(ctx context.Context, id string) (*Category, error) {
	return s.store.Category(ctx, id)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error) {
	var violations []string
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
		if trimmed == "" || utf8.RuneCountInString(trimmed) > maxCategoryName {
			violations = append(violations, fmt.Sprintf("name must be 1-%d characters", maxCategoryName))
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		violations = append(violations, "type must be income or expense")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return s.store.UpdateCategory(ctx, id, patch)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *Service) AddTransaction(ctx context.Context, userID string, in TransactionInput) (*Transaction, error) {
	if v := s.validateTransaction(in); len(v) > 0 {
		return nil, &ValidationError{Violations: v}
	}
	if _, err := s.store.Category(ctx, in.CategoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Violations: []string{"category does not exist"}}
		}
		return nil, fmt.Errorf("check category: %w", err)
	}
	tx := &Transaction{
		ID:          ids.New(),
		UserID:      userID,
		CategoryID:  in.CategoryID,
		AmountCents: in.AmountCents,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (s *Service) Transactions(ctx context.Context, userID string, f Filter, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if f.CategoryType != "" && !f.CategoryType.Valid() {
		return nil, &ValidationError{Violations: []string{"type must be income or expense"}}
	}
	return s.store.Transactions(ctx, userID, f, limit, offset)
}

func (s *Service) Transaction(ctx context.Context, userID, id string) (*Transaction, error) {
	return s.store.Transaction(ctx, userID, id)
}

func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (*Transaction, error) {
	var violations []string
	if patch.AmountCents != nil && (*patch.AmountCents <= 0 || *patch.AmountCents > maxAmountCents) {
		violations = append(violations, "amount must be positive and within range")
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		patch.Description = &trimmed
		if utf8.RuneCountInString(trimmed) > maxDescription {
			violations = append(violations, fmt.Sprintf("description must be at most %d characters", maxDescription))
		}
	}
	if patch.Date != nil && !s.validDate(*patch.Date) {
		violations = append(violations, "date is out of range")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if patch.CategoryID != nil {
		if _, err := s.store.Category(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &ValidationError{Violations: []string{"category does not exist"}}
			}
			return nil, fmt.Errorf("check category: %w", err)
		}
	}
	return s.store.UpdateTransaction(ctx, userID, id, patch)
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

// MonthlySummary totals the user's ledger over one calendar month.
func (s *Service) MonthlySummary(ctx context.Context, userID string, year, month int) (*Summary, error) {
	var violations []string
	if month < 1 || month > 12 {
		violations = append(violations, "month must be between 1 and 12")
	}
	if year < earliestEntryYear || year > s.now().Year()+1 {
		violations = append(violations, fmt.Sprintf("year must be between %d and %d", earliestEntryYear, s.now().Year()+1))
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	sum, err := s.store.Summary(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	sum.PeriodStart = from
	sum.PeriodEnd = to
	sum.BalanceCents = sum.TotalIncomeCents - sum.TotalExpenseCents
	if sum.Categories == nil {
		sum.Categories = []CategorySummary{}
	}
	return sum, nil
}

func (s *Service) validateTransaction(in TransactionInput) []string {
	var violations []string
	if in.CategoryID == "" {
		violations = append(violations, "category_id is required")
	}
	if in.AmountCents <= 0 || in.AmountCents > maxAmountCents {
		violations = append(violations, "amount must be positive and within range")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) > maxDescription {
		violations = append(violations, fmt.Sprintf("description must be at most %d characters", maxDescription))
	}
	if in.Date.IsZero() || !s.validDate(in.Date) {
		violations = append(violations, "date is out of range")
	}
	return violations
}

func (s *Service) validDate(d time.Time) bool {
	if d.Year() < earliestEntryYear {
		return false
	}
	// Up to one year ahead; scheduled entries are allowed, far-future typos are not.
	return !d.After(s.now().AddDate(1, 0, 0))
}

func validateCategory(name string, typ CategoryType) []string {
	var violations []string
	if name == "" || utf8.RuneCountInString(name) > maxCategoryName {
		violations = append(violations, fmt.Sprintf("name must be 1-%d characters", maxCategoryName))
	}
	if !typ.Valid() {
		violations = append(violations, "type must be income or expense")
	}
	return violations
}
