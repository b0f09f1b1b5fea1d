package finance

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemStore)(nil)

// MemStore keeps the ledger in process memory. It backs tests and
// DSN-less development runs.
type MemStore struct {
	mu           sync.RWMutex
	categories   map[string]*Category
	transactions map[string]*Transaction
}

// NewMemStore constructs an empty ledger store.
func NewMemStore() *MemStore {
	return &MemStore{
		categories:   make(map[string]*Category),
		transactions: make(map[string]*Transaction),
	}
}

func (m *MemStore) CreateCategory(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *MemStore) Categories(_ context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) Category(_ context.Context, id string) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) UpdateCategory(_ context.Context, id string, patch CategoryPatch) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	for _, tx := range m.transactions {
		if tx.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *MemStore) CreateTransaction(_ context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.ID] = &cp
	return nil
}

func (m *MemStore) Transactions(_ context.Context, userID string, f Filter, limit, offset int) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Transaction
	for _, tx := range m.transactions {
		if tx.UserID != userID {
			continue
		}
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && tx.Date.After(*f.To) {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.CategoryType != "" {
			c, ok := m.categories[tx.CategoryID]
			if !ok || c.Type != f.CategoryType {
				continue
			}
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) Transaction(_ context.Context, userID, id string) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *MemStore) UpdateTransaction(_ context.Context, userID, id string, patch TransactionPatch) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, ErrNotFound
	}
	if patch.CategoryID != nil {
		tx.CategoryID = *patch.CategoryID
	}
	if patch.AmountCents != nil {
		tx.AmountCents = *patch.AmountCents
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	cp := *tx
	return &cp, nil
}

func (m *MemStore) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemStore) Summary(_ context.Context, userID string, from, to time.Time) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum Summary
	byCategory := make(map[string]*CategorySummary)
	for _, tx := range m.transactions {
		if tx.UserID != userID || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		c, ok := m.categories[tx.CategoryID]
		if !ok {
			continue
		}
		switch c.Type {
		case TypeIncome:
			sum.TotalIncomeCents += tx.AmountCents
		case TypeExpense:
			sum.TotalExpenseCents += tx.AmountCents
		}
		cs, ok := byCategory[c.ID]
		if !ok {
			cs = &CategorySummary{CategoryID: c.ID, Name: c.Name, Type: c.Type}
			byCategory[c.ID] = cs
		}
		cs.TotalCents += tx.AmountCents
		cs.Count++
	}
	for _, cs := range byCategory {
		sum.Categories = append(sum.Categories, *cs)
	}
	sort.Slice(sum.Categories, func(i, j int) bool {
		if sum.Categories[i].TotalCents != sum.Categories[j].TotalCents {
			return sum.Categories[i].TotalCents > sum.Categories[j].TotalCents
		}
		return sum.Categories[i].Name < sum.Categories[j].Name
	})
	return &sum, nil
}
