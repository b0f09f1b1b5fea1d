package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finledger.org/internal/auth"
	"finledger.org/internal/finance"
)

const dateLayout = "2006-01-02"

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type categoryPatchRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type transactionRequest struct {
	CategoryID  string `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionPatchRequest struct {
	CategoryID  *string `json:"category_id"`
	AmountCents *int64  `json:"amount_cents"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (a *API) handleCategoriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCategories(w, r)
	case http.MethodPost:
		a.createCategory(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/categories/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getCategory(w, r, id)
	case http.MethodPut:
		a.updateCategory(w, r, id)
	case http.MethodDelete:
		a.deleteCategory(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.ledger.Categories(r.Context())
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Categories retrieved", categories)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.ledger.CreateCategory(r.Context(), req.Name, finance.CategoryType(req.Type))
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Category created", c)
}

func (a *API) getCategory(w http.ResponseWriter, r *http.Request, id string) {
	c, err := a.ledger.Category(r.Context(), id)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category retrieved", c)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request, id string) {
	var req categoryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := finance.CategoryPatch{Name: req.Name}
	if req.Type != nil {
		typ := finance.CategoryType(*req.Type)
		patch.Type = &typ
	}
	c, err := a.ledger.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category updated", c)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category deleted", nil)
}

func (a *API) handleTransactionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTransactions(w, r)
	case http.MethodPost:
		a.createTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTransactionResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getTransaction(w, r, id)
	case http.MethodPut:
		a.updateTransaction(w, r, id)
	case http.MethodDelete:
		a.deleteTransaction(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	var f finance.Filter
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		f.To = &t
	}
	f.CategoryID = q.Get("category_id")
	f.CategoryType = finance.CategoryType(q.Get("type"))

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, err := a.ledger.Transactions(r.Context(), u.ID, f, limit, offset)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Transactions retrieved", map[string]any{
		"items": items,
	})
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tx, err := a.ledger.AddTransaction(r.Context(), u.ID, finance.TransactionInput{
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Transaction created", tx)
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request, id string) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	tx, err := a.ledger.Transaction(r.Context(), u.ID, id)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction retrieved", tx)
}

func (a *API) updateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := finance.TransactionPatch{
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		patch.Date = &date
	}

	tx, err := a.ledger.UpdateTransaction(r.Context(), u.ID, id, patch)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction updated", tx)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err := a.ledger.DeleteTransaction(r.Context(), u.ID, id); err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Transaction deleted", nil)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}

	sum, err := a.ledger.MonthlySummary(r.Context(), u.ID, year, month)
	if err != nil {
		writeFinanceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Monthly summary retrieved", sum)
}

func writeFinanceError(w http.ResponseWriter, err error) {
	var verr *finance.ValidationError
	switch {
	case errors.As(err, &verr):
		writeViolations(w, verr.Violations)
	case errors.Is(err, finance.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, finance.ErrCategoryInUse):
		writeError(w, http.StatusConflict, "Category is referenced by transactions")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
