package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Utpal29/coinly/internal/models"
	"github.com/Utpal29/coinly/internal/reports"
)

const (
	reportCachePrefix = "coinly:reports"

	transactionColumns = "id, user_id, amount, type, category, description, date, notes, created_at, updated_at"
)

type TransactionService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

// TransactionRequest represents the create/update payload
// @Description Transaction create or update request
type TransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" example:"-42.5"`                                          // Signed amount; negative = expense
	Type        string          `json:"type" validate:"required,oneof=income expense" example:"expense"` // Must agree with amount sign
	Category    string          `json:"category" validate:"required" example:"Food & Dining"`            // Category name
	Description string          `json:"description" validate:"required" example:"Groceries"`             // Short description
	Date        models.Date     `json:"date" swaggertype:"string" example:"2026-01-15"`                  // Calendar date
	Notes       string          `json:"notes,omitempty" example:"Weekly shop"`                           // Optional notes
}

func NewTransactionService(db *sql.DB, redisClient *redis.Client) *TransactionService {
	return &TransactionService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// filterFromQuery builds the report filter from list/export query params.
// Unknown range values fall through to "all" inside the filter itself.
func filterFromQuery(r *http.Request) (reports.Filter, error) {
	q := r.URL.Query()

	f := reports.Filter{
		Category: q.Get("category"),
		Range:    reports.DateRange(q.Get("range")),
	}
	if f.Range == "" {
		f.Range = reports.RangeAll
	}

	if f.Range == reports.RangeCustom {
		start, err := models.ParseDate(q.Get("start"))
		if err != nil {
			return reports.Filter{}, fmt.Errorf("start: %w", err)
		}
		end, err := models.ParseDate(q.Get("end"))
		if err != nil {
			return reports.Filter{}, fmt.Errorf("end: %w", err)
		}
		f.Start, f.End = start, end
	}
	return f, nil
}

// listUserTransactions loads every row for the user, newest first.
func (ts *TransactionService) listUserTransactions(userID int) ([]models.Transaction, error) {
	rows, err := ts.db.Query(
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = $1 ORDER BY date DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Category,
			&tx.Description, &tx.Date, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// invalidateReportCache drops the user's cached report payloads after any
// transaction mutation.
func (ts *TransactionService) invalidateReportCache(ctx context.Context, userID int) {
	if ts.redis == nil {
		return
	}
	pattern := fmt.Sprintf("%s:%d:*", reportCachePrefix, userID)
	keys, err := ts.redis.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("[TRANSACTION] Report cache scan failed for user %d: %v", userID, err)
		return
	}
	if len(keys) > 0 {
		if err := ts.redis.Del(ctx, keys...).Err(); err != nil {
			log.Printf("[TRANSACTION] Report cache invalidation failed for user %d: %v", userID, err)
		}
	}
}

// ListTransactions returns the user's transactions, filtered
// @Summary List transactions
// @Description List the user's transactions, newest first, with optional category and date-range filters
// @Tags transactions
// @Produce json
// @Param category query string false "Category name or 'all'"
// @Param range query string false "all|today|thisWeek|thisMonth|thisYear|last30Days|last6Months|custom"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Param group query string false "Set to 'date' for a grouped-by-day view"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	txs, err := ts.listUserTransactions(userID)
	if err != nil {
		log.Printf("[TRANSACTION] List failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	filtered := filter.Apply(txs, time.Now())

	if r.URL.Query().Get("group") == "date" {
		writeJSON(w, http.StatusOK, reports.GroupByDate(filtered))
		return
	}
	writeJSON(w, http.StatusOK, filtered)
}

// GetTransaction returns a single transaction by id
// @Summary Get transaction
// @Description Fetch one transaction; only its owner may read it
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id} [get]
func (ts *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")

	var tx models.Transaction
	err := ts.db.QueryRow("SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id).
		Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Category,
			&tx.Description, &tx.Date, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Fetch failed for %s: %v", id, err)
			SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	if tx.UserID != userID {
		log.Printf("[TRANSACTION] User %d denied access to transaction %s", userID, id)
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// CreateTransaction records a new transaction
// @Summary Create transaction
// @Description Create a transaction; the server assigns the id and timestamps
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body TransactionRequest true "Transaction data"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TransactionRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	now := time.Now().UTC()
	tx := models.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := tx.Validate(); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	_, err := ts.db.Exec(
		"INSERT INTO transactions (id, user_id, amount, type, category, description, date, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		tx.ID, tx.UserID, tx.Amount, tx.Type, tx.Category, tx.Description, tx.Date, tx.Notes, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		log.Printf("[TRANSACTION] Create failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Created %s for user %d (%s %s)", tx.ID, userID, tx.Type, tx.Amount)
	ts.invalidateReportCache(r.Context(), userID)
	writeJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction replaces a transaction's editable fields
// @Summary Update transaction
// @Description Replace the editable fields of an owned transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param transaction body TransactionRequest true "Transaction data"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/{id} [put]
func (ts *TransactionService) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TransactionRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	candidate := models.Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
		Notes:       req.Notes,
	}
	if err := candidate.Validate(); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var tx models.Transaction
	err := ts.db.QueryRow(
		"UPDATE transactions SET amount = $1, type = $2, category = $3, description = $4, date = $5, notes = $6, updated_at = NOW() WHERE id = $7 AND user_id = $8 RETURNING "+transactionColumns,
		candidate.Amount, candidate.Type, candidate.Category, candidate.Description, candidate.Date, candidate.Notes, id, userID,
	).Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Category,
		&tx.Description, &tx.Date, &tx.Notes, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Update failed for %s: %v", id, err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	log.Printf("[TRANSACTION] Updated %s for user %d", id, userID)
	ts.invalidateReportCache(r.Context(), userID)
	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction removes a transaction
// @Summary Delete transaction
// @Description Delete an owned transaction; deleting an unknown id is a no-op
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 500 {object} ErrorResponse
// @Router /transactions/{id} [delete]
func (ts *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")

	// Deletes are idempotent: an unknown or already-deleted id succeeds.
	res, err := ts.db.Exec("DELETE FROM transactions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Delete failed for %s: %v", id, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[TRANSACTION] Deleted %s for user %d", id, userID)
		ts.invalidateReportCache(r.Context(), userID)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// ExportTransactions streams the user's transactions as CSV
// @Summary Export transactions
// @Description Download the (optionally filtered) transactions as a CSV attachment
// @Tags transactions
// @Produce text/csv
// @Param category query string false "Category name or 'all'"
// @Param range query string false "all|today|thisWeek|thisMonth|thisYear|last30Days|last6Months|custom"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {string} string "CSV data"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/export [get]
func (ts *TransactionService) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var currency string
	if err := ts.db.QueryRow("SELECT currency FROM users WHERE id = $1", userID).Scan(&currency); err != nil {
		log.Printf("[TRANSACTION] Export failed to load profile for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to export transactions", http.StatusInternalServerError, nil)
		return
	}

	txs, err := ts.listUserTransactions(userID)
	if err != nil {
		log.Printf("[TRANSACTION] Export failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to export transactions", http.StatusInternalServerError, nil)
		return
	}
	txs = filter.Apply(txs, time.Now())

	filename := fmt.Sprintf("transactions_%s.csv", models.DateOf(time.Now().UTC()))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	cw.Write([]string{"Date", "Description", "Category", "Amount", "Type"})
	for _, tx := range txs {
		typeLabel := "Expense"
		if tx.IsIncome() {
			typeLabel = "Income"
		}
		cw.Write([]string{
			tx.Date.String(),
			tx.Description,
			tx.Category,
			fmt.Sprintf("%s %s", tx.AbsAmount().StringFixed(2), currency),
			typeLabel,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[TRANSACTION] CSV write failed for user %d: %v", userID, err)
	}

	log.Printf("[TRANSACTION] Exported %d rows for user %d", len(txs), userID)
}
