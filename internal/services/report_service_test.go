package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"github.com/Utpal29/coinly/internal/models"
)

func TestReportService_Summary(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	today := models.DateOf(time.Now()).String()

	t.Run("computes totals and savings rate", func(t *testing.T) {
		service := NewReportService(db, nil)

		mock.ExpectQuery("SELECT currency FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"currency"}).AddRow("EUR"))

		rows := sqlmock.NewRows(txColumns)
		txRow(rows, "a", "1000", "Salary", "Paycheck", today)
		txRow(rows, "b", "-200", "Food & Dining", "Groceries", today)
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE user_id").
			WithArgs(1).
			WillReturnRows(rows)

		w := httptest.NewRecorder()
		service.Summary(w, authedRequest("GET", "/reports/summary", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Totals struct {
				Income   float64 `json:"income"`
				Expenses float64 `json:"expenses"`
				Balance  float64 `json:"balance"`
			} `json:"totals"`
			SavingsRate    float64 `json:"savings_rate"`
			BalanceDisplay string  `json:"balance_display"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, 1000.0, resp.Totals.Income)
		assert.Equal(t, 200.0, resp.Totals.Expenses)
		assert.Equal(t, 800.0, resp.Totals.Balance)
		assert.InDelta(t, 80.0, resp.SavingsRate, 0.001)
		assert.Equal(t, "+€800.00", resp.BalanceDisplay)
	})

	t.Run("cache hit skips the database", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewReportService(db, redisClient)

		key := "coinly:reports:1:/reports/summary?"
		redisMock.ExpectGet(key).SetVal(`{"cached":true}`)

		w := httptest.NewRecorder()
		service.Summary(w, authedRequest("GET", "/reports/summary", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"cached":true}`, w.Body.String())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss stores the payload", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewReportService(db, redisClient)

		redisMock.ExpectGet("coinly:reports:1:/reports/summary?").RedisNil()
		redisMock.Regexp().ExpectSet(`coinly:reports:1:.*`, `.*`, reportCacheTTL).SetVal("OK")

		mock.ExpectQuery("SELECT currency FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"currency"}).AddRow("USD"))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE user_id").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(txColumns))

		w := httptest.NewRecorder()
		service.Summary(w, authedRequest("GET", "/reports/summary", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestReportService_Insights(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReportService(db, nil)
	today := models.DateOf(time.Now()).String()

	t.Run("breakdown and top expenses", func(t *testing.T) {
		rows := sqlmock.NewRows(txColumns)
		txRow(rows, "salary", "3000", "Salary", "Paycheck", today)
		txRow(rows, "food", "-150.75", "Food & Dining", "Groceries", today)
		txRow(rows, "rent", "-1200", "Housing", "Rent", today)
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE user_id").
			WithArgs(1).
			WillReturnRows(rows)

		w := httptest.NewRecorder()
		service.Insights(w, authedRequest("GET", "/reports/insights?months=2", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Months []struct {
				Month string `json:"month"`
			} `json:"months"`
			Categories []struct {
				Category string  `json:"category"`
				Percent  float64 `json:"percent"`
			} `json:"categories"`
			TopExpenses []models.Transaction `json:"top_expenses"`
			TopCategory string               `json:"top_category"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)

		assert.Len(t, resp.Months, 2)
		assert.Equal(t, "Housing", resp.TopCategory)
		assert.Len(t, resp.Categories, 2)
		assert.InDelta(t, 88.8, resp.Categories[0].Percent, 0.1)
		assert.Equal(t, "rent", resp.TopExpenses[0].ID)
	})

	t.Run("months out of range", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.Insights(w, authedRequest("GET", "/reports/insights?months=0", nil, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("months not a number", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.Insights(w, authedRequest("GET", "/reports/insights?months=six", nil, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportService_Daily(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReportService(db, nil)

	t.Run("sums per calendar day within the month", func(t *testing.T) {
		rows := sqlmock.NewRows(txColumns)
		txRow(rows, "a", "100", "Salary", "Bonus", "2026-01-10")
		txRow(rows, "b", "-42.5", "Food & Dining", "Groceries", "2026-01-10")
		txRow(rows, "c", "-10", "Transportation", "Bus", "2026-01-12")
		txRow(rows, "d", "-99", "Shopping", "Outside the month", "2026-02-01")
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE user_id").
			WithArgs(1).
			WillReturnRows(rows)

		w := httptest.NewRecorder()
		service.Daily(w, authedRequest("GET", "/reports/daily?year=2026&month=1", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Days  []struct {
				Date    string  `json:"date"`
				Income  float64 `json:"income"`
				Expense float64 `json:"expense"`
			} `json:"days"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)

		assert.Equal(t, 2026, resp.Year)
		assert.Equal(t, 1, resp.Month)
		assert.Len(t, resp.Days, 2)
		assert.Equal(t, "2026-01-10", resp.Days[0].Date)
		assert.Equal(t, 100.0, resp.Days[0].Income)
		assert.Equal(t, 42.5, resp.Days[0].Expense)
		assert.Equal(t, "2026-01-12", resp.Days[1].Date)
	})

	t.Run("invalid month", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.Daily(w, authedRequest("GET", "/reports/daily?year=2026&month=13", nil, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing year", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.Daily(w, authedRequest("GET", "/reports/daily?month=1", nil, 1))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
