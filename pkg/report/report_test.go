package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/budgetwatch/budgetwatch/pkg/dashboard"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/usage"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboard struct {
	dashboard dashboard.Dashboard
	err       error
}

func (s stubDashboard) GetDashboard(ctx context.Context) (dashboard.Dashboard, error) {
	return s.dashboard, s.err
}

func (s stubDashboard) Load(ctx context.Context, userId int) (dashboard.Dashboard, error) {
	return s.dashboard, s.err
}

var ctx = user.WithUser(context.Background(), user.User{Id: 1})

func exp(title string, frequency expense.Frequency, value int64) expense.Expense {
	return expense.Expense{Title: title, Frequency: frequency, Value: decimal.NewFromInt(value)}
}

func sampleDashboard() dashboard.Dashboard {
	incomes := []income.Income{
		{Type: income.Salary, Title: "Job", Value: decimal.NewFromInt(3000)},
		{Type: income.Saved, Title: "Reserve", Value: decimal.NewFromInt(1000)},
	}
	expenses := []expense.Expense{
		exp("Rent", expense.Monthly, 1000),
		exp("Insurance", expense.Annual, 1200),
		exp("Laptop", expense.OneTime, 500),
		exp("Gym", expense.Monthly, 80),
		exp("Music", expense.Monthly, 20),
		exp("Domain", expense.Annual, 24),
		exp("Phone", expense.Monthly, 60),
	}
	return dashboard.Dashboard{
		Expenses:        expenses,
		Incomes:         incomes,
		MonthlyIncome:   usage.TotalMonthlyIncome(incomes),
		Saved:           usage.TotalSaved(incomes),
		MonthlyExpenses: usage.TotalMonthlyExpenses(expenses),
		Balance:         usage.RemainingBalance(incomes, expenses),
		Usage:           usage.UsagePercent(incomes, expenses, 90),
	}
}

func TestBuild(t *testing.T) {
	report := Build(sampleDashboard())

	t.Run("should group expenses by frequency in monthly terms", func(t *testing.T) {
		require.Len(t, report.ExpensesByFrequency, 3)
		monthly := report.ExpensesByFrequency[0]
		assert.Equal(t, expense.Monthly, monthly.Frequency)
		assert.Equal(t, 4, monthly.Count)
		assert.True(t, decimal.NewFromInt(1160).Equal(monthly.MonthlyValue))
		annual := report.ExpensesByFrequency[1]
		assert.Equal(t, 2, annual.Count)
		assert.True(t, decimal.NewFromInt(102).Equal(annual.MonthlyValue))
	})

	t.Run("should group incomes by type including empty ones", func(t *testing.T) {
		require.Len(t, report.IncomesByType, 4)
		assert.Equal(t, income.Salary, report.IncomesByType[0].Type)
		assert.Equal(t, 1, report.IncomesByType[0].Count)
		assert.Equal(t, 0, report.IncomesByType[1].Count)
	})

	t.Run("should keep the five largest expenses by monthly value", func(t *testing.T) {
		require.Len(t, report.TopExpenses, 5)
		titles := make([]string, 0, 5)
		for _, ranked := range report.TopExpenses {
			titles = append(titles, ranked.Expense.Title)
		}
		assert.Equal(t, []string{"Rent", "Laptop", "Insurance", "Gym", "Phone"}, titles)
	})
}

func TestCsvReportRendererImpl_Render(t *testing.T) {
	csv, err := NewCsvReportRenderer().Render(Build(sampleDashboard()))

	require.NoError(t, err)
	lines := strings.Split(csv, "\n")
	assert.Equal(t, "Metric,Value", lines[0])
	assert.Equal(t, "Monthly income,3000.00", lines[1])
	assert.Contains(t, csv, "MONTHLY,4,1160.00")
	assert.Contains(t, csv, "Top expense,Frequency,Value,Monthly value")
	assert.Contains(t, csv, "Insurance,ANNUAL,1200.00,100.00")
}

func TestHandler_GetReport(t *testing.T) {
	t.Run("should answer csv when requested", func(t *testing.T) {
		handler := NewReportHandler(NewReportService(stubDashboard{dashboard: sampleDashboard()}), NewCsvReportRenderer())
		req := httptest.NewRequest(http.MethodGet, "/api/report", nil).WithContext(ctx)
		req.Header.Set("Accept", "text/csv")
		w := httptest.NewRecorder()

		handler.GetReport(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "Metric,Value"))
	})

	t.Run("should answer json by default", func(t *testing.T) {
		handler := NewReportHandler(NewReportService(stubDashboard{dashboard: sampleDashboard()}), NewCsvReportRenderer())
		req := httptest.NewRequest(http.MethodGet, "/api/report", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		handler.GetReport(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"topExpenses"`)
	})

	t.Run("should answer 503 when dashboard data is unavailable", func(t *testing.T) {
		failing := stubDashboard{err: errors.Join(dashboard.ErrDashboardUnavailable, errors.New("db down"))}
		handler := NewReportHandler(NewReportService(failing), NewCsvReportRenderer())
		req := httptest.NewRequest(http.MethodGet, "/api/report/csv", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		handler.GetReportCsv(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
