package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Utpal29/coinly/internal/currency"
	"github.com/Utpal29/coinly/internal/models"
	"github.com/Utpal29/coinly/internal/reports"
)

// reportCacheTTL bounds how stale a cached dashboard payload may be.
const reportCacheTTL = 5 * time.Minute

type ReportService struct {
	db    *sql.DB
	redis *redis.Client
}

// SummaryResponse is the dashboard headline payload
// @Description Overall and current-month totals with the savings rate
type SummaryResponse struct {
	Totals         reports.Totals `json:"totals"`
	CurrentMonth   reports.Totals `json:"current_month"`
	SavingsRate    float64        `json:"savings_rate"`
	Currency       string         `json:"currency"`
	BalanceDisplay string         `json:"balance_display"` // e.g. "+€1250.00"
}

// InsightsResponse is the analytics payload behind the insights view
// @Description Monthly trends, balance curve, category breakdown and top expenses
type InsightsResponse struct {
	Months         []reports.MonthBucket   `json:"months"`
	RunningBalance []reports.BalancePoint  `json:"running_balance"`
	Categories     []reports.CategoryShare `json:"categories"`
	TopExpenses    []models.Transaction    `json:"top_expenses"`
	TopCategory    string                  `json:"top_category,omitempty"`
}

// DailyResponse is the calendar payload for one month
// @Description Per-day income/expense totals for a calendar month
type DailyResponse struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Days  []reports.DailySummary `json:"days"`
}

func NewReportService(db *sql.DB, redisClient *redis.Client) *ReportService {
	return &ReportService{db: db, redis: redisClient}
}

func (rs *ReportService) cacheKey(userID int, r *http.Request) string {
	return fmt.Sprintf("%s:%d:%s?%s", reportCachePrefix, userID, r.URL.Path, r.URL.RawQuery)
}

// serveCached writes a previously cached payload if one exists.
func (rs *ReportService) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if rs.redis == nil {
		return false
	}
	cached, err := rs.redis.Get(r.Context(), key).Result()
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "HIT")
	w.Write([]byte(cached))
	return true
}

// writeAndCache sends the payload and stores it for subsequent requests.
func (rs *ReportService) writeAndCache(w http.ResponseWriter, r *http.Request, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("[REPORT] Marshal failed for %s: %v", key, err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}
	if rs.redis != nil {
		if err := rs.redis.Set(r.Context(), key, body, reportCacheTTL).Err(); err != nil {
			log.Printf("[REPORT] Cache store failed for %s: %v", key, err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (rs *ReportService) loadTransactions(userID int) ([]models.Transaction, error) {
	rows, err := rs.db.Query(
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

// Summary returns the dashboard totals
// @Summary Dashboard summary
// @Description Overall totals, current-month totals, and the current-month savings rate
// @Tags reports
// @Produce json
// @Param category query string false "Category name or 'all'"
// @Param range query string false "all|today|thisWeek|thisMonth|thisYear|last30Days|last6Months|custom"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/summary [get]
func (rs *ReportService) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := rs.cacheKey(userID, r)
	if rs.serveCached(w, r, key) {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	var code string
	if err := rs.db.QueryRow("SELECT currency FROM users WHERE id = $1", userID).Scan(&code); err != nil {
		log.Printf("[REPORT] Summary profile load failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}

	txs, err := rs.loadTransactions(userID)
	if err != nil {
		log.Printf("[REPORT] Summary load failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}

	now := time.Now()
	totals := reports.ComputeTotals(filter.Apply(txs, now))
	current := reports.CurrentMonthTotals(txs, now)

	resp := SummaryResponse{
		Totals:         totals,
		CurrentMonth:   current,
		SavingsRate:    reports.SavingsRate(current.Income, current.Expenses),
		Currency:       code,
		BalanceDisplay: currency.FormatWithSign(totals.Balance, code),
	}
	rs.writeAndCache(w, r, key, resp)
}

// Insights returns the analytics payload
// @Summary Spending insights
// @Description Monthly income/expense trend, running balance, expense breakdown by category, and top expenses
// @Tags reports
// @Produce json
// @Param months query int false "Number of trailing months in the trend (default 6)"
// @Param category query string false "Category name or 'all'"
// @Param range query string false "all|today|thisWeek|thisMonth|thisYear|last30Days|last6Months|custom"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} InsightsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/insights [get]
func (rs *ReportService) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := rs.cacheKey(userID, r)
	if rs.serveCached(w, r, key) {
		return
	}

	months := 6
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 60 {
			SendErrorResponse(w, "months must be between 1 and 60", http.StatusBadRequest, nil)
			return
		}
		months = n
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	txs, err := rs.loadTransactions(userID)
	if err != nil {
		log.Printf("[REPORT] Insights load failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}

	now := time.Now()
	filtered := filter.Apply(txs, now)

	series := reports.MonthlySeries(filtered, months, now)
	breakdown := reports.CategoryBreakdown(filtered)

	resp := InsightsResponse{
		Months:         series,
		RunningBalance: reports.RunningBalance(series),
		Categories:     breakdown,
		TopExpenses:    reports.TopExpenses(filtered, 5),
	}
	if len(breakdown) > 0 {
		resp.TopCategory = breakdown[0].Category
	}
	rs.writeAndCache(w, r, key, resp)
}

// Daily returns per-day totals for a calendar month
// @Summary Calendar daily totals
// @Description Per-day income and expense totals for the requested month
// @Tags reports
// @Produce json
// @Param year query int true "Year, e.g. 2026"
// @Param month query int true "Month 1-12"
// @Success 200 {object} DailyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports/daily [get]
func (rs *ReportService) Daily(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 || year > 9999 {
		SendErrorResponse(w, "Invalid year", http.StatusBadRequest, nil)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		SendErrorResponse(w, "Invalid month", http.StatusBadRequest, nil)
		return
	}

	key := rs.cacheKey(userID, r)
	if rs.serveCached(w, r, key) {
		return
	}

	txs, err := rs.loadTransactions(userID)
	if err != nil {
		log.Printf("[REPORT] Daily load failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to build report", http.StatusInternalServerError, nil)
		return
	}

	// Restrict to the requested calendar month before summing per day.
	start := models.NewDate(year, time.Month(month), 1)
	end := models.Date{Time: start.AddDate(0, 1, -1)}
	filter := reports.Filter{Range: reports.RangeCustom, Start: start, End: end}
	filtered := filter.Apply(txs, time.Now())

	resp := DailyResponse{
		Year:  year,
		Month: month,
		Days:  reports.DailySummaries(filtered),
	}
	rs.writeAndCache(w, r, key, resp)
}
