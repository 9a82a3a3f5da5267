package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Utpal29/coinly/internal/models"
)

type CategoryService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

// CategoryRequest represents the custom category payload
// @Description Custom category creation request
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50" example:"Pets"`            // Category name
	Type string `json:"type" validate:"required,oneof=income expense" example:"expense"` // Transaction type
}

// CategoryList is the merged default + custom category view
// @Description Categories grouped by transaction type
type CategoryList struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

func NewCategoryService(db *sql.DB, redisClient *redis.Client) *CategoryService {
	return &CategoryService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// customCategories loads the user's custom category names for one type.
func (cs *CategoryService) customCategories(userID int, txType string) ([]string, error) {
	rows, err := cs.db.Query(
		"SELECT name FROM categories WHERE user_id = $1 AND type = $2 ORDER BY name ASC",
		userID, txType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListCategories returns the default and custom categories for the user
// @Summary List categories
// @Description List default plus custom categories, optionally for one transaction type
// @Tags categories
// @Produce json
// @Param type query string false "income or expense"
// @Success 200 {object} CategoryList
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (cs *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txType := r.URL.Query().Get("type")
	if txType != "" && txType != models.TypeIncome && txType != models.TypeExpense {
		SendErrorResponse(w, "Invalid category type", http.StatusBadRequest, nil)
		return
	}

	var list CategoryList
	for _, t := range []string{models.TypeIncome, models.TypeExpense} {
		if txType != "" && txType != t {
			continue
		}
		custom, err := cs.customCategories(userID, t)
		if err != nil {
			log.Printf("[CATEGORY] List failed for user %d: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
			return
		}
		merged := append(append([]string{}, models.DefaultCategories(t)...), custom...)
		if t == models.TypeIncome {
			list.Income = merged
		} else {
			list.Expense = merged
		}
	}

	if txType == models.TypeIncome {
		writeJSON(w, http.StatusOK, list.Income)
		return
	}
	if txType == models.TypeExpense {
		writeJSON(w, http.StatusOK, list.Expense)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateCategory adds a custom category for the user
// @Summary Create category
// @Description Create a custom category; duplicates of existing names are rejected
// @Tags categories
// @Accept json
// @Produce json
// @Param category body CategoryRequest true "Category data"
// @Success 201 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [post]
func (cs *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CategoryRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	// Defaults and existing custom names are both off limits,
	// case-insensitively.
	for _, name := range models.DefaultCategories(req.Type) {
		if strings.EqualFold(name, req.Name) {
			SendErrorResponse(w, "Category already exists", http.StatusConflict, nil)
			return
		}
	}

	var exists bool
	err := cs.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM categories WHERE user_id = $1 AND type = $2 AND LOWER(name) = LOWER($3))",
		userID, req.Type, req.Name).Scan(&exists)
	if err != nil {
		log.Printf("[CATEGORY] Duplicate check failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}
	if exists {
		SendErrorResponse(w, "Category already exists", http.StatusConflict, nil)
		return
	}

	category := models.Category{
		Name:      req.Name,
		Type:      req.Type,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	err = cs.db.QueryRow(
		"INSERT INTO categories (name, type, user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		category.Name, category.Type, category.UserID, category.CreatedAt).Scan(&category.ID)
	if err != nil {
		log.Printf("[CATEGORY] Create failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CATEGORY] Created %q (%s) for user %d", category.Name, category.Type, userID)
	writeJSON(w, http.StatusCreated, category)
}
