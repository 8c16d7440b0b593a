package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/budgetwatch/budgetwatch/pkg/dashboard"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/usage"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/shopspring/decimal"
)

type Service interface {
	GetReport(ctx context.Context) (Report, error)
}

type ServiceImpl struct {
	dashboard dashboard.Service
}

func NewReportService(dashboardService dashboard.Service) *ServiceImpl {
	return &ServiceImpl{dashboard: dashboardService}
}

func (s *ServiceImpl) GetReport(ctx context.Context) (Report, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get current user: %w", err)
	}
	d, err := s.dashboard.Load(ctx, userId)
	if err != nil {
		return Report{}, err
	}
	return Build(d), nil
}

// Build derives the report from loaded dashboard data.
func Build(d dashboard.Dashboard) Report {
	return Report{
		MonthlyIncome:       d.MonthlyIncome,
		Saved:               d.Saved,
		MonthlyExpenses:     d.MonthlyExpenses,
		Balance:             d.Balance,
		Usage:               d.Usage,
		ExpensesByFrequency: groupExpenses(d.Expenses),
		IncomesByType:       groupIncomes(d.Incomes),
		TopExpenses:         topExpenses(d.Expenses, topExpensesLimit),
	}
}

func groupExpenses(expenses []expense.Expense) []FrequencyTotal {
	order := []expense.Frequency{expense.Monthly, expense.Annual, expense.OneTime}
	totals := make(map[expense.Frequency]*FrequencyTotal, len(order))
	for _, frequency := range order {
		totals[frequency] = &FrequencyTotal{Frequency: frequency, MonthlyValue: decimal.Zero}
	}
	for _, e := range expenses {
		total, ok := totals[e.Frequency]
		if !ok {
			continue
		}
		total.Count++
		total.MonthlyValue = total.MonthlyValue.Add(usage.MonthlyExpenseValue(e))
	}
	result := make([]FrequencyTotal, 0, len(order))
	for _, frequency := range order {
		result = append(result, *totals[frequency])
	}
	return result
}

func groupIncomes(incomes []income.Income) []IncomeTypeTotal {
	order := []income.Type{income.Salary, income.Benefits, income.Saved, income.Other}
	totals := make(map[income.Type]*IncomeTypeTotal, len(order))
	for _, incomeType := range order {
		totals[incomeType] = &IncomeTypeTotal{Type: incomeType, Total: decimal.Zero}
	}
	for _, i := range incomes {
		total, ok := totals[i.Type]
		if !ok {
			continue
		}
		total.Count++
		total.Total = total.Total.Add(i.Value)
	}
	result := make([]IncomeTypeTotal, 0, len(order))
	for _, incomeType := range order {
		result = append(result, *totals[incomeType])
	}
	return result
}

func topExpenses(expenses []expense.Expense, limit int) []RankedExpense {
	ranked := make([]RankedExpense, 0, len(expenses))
	for _, e := range expenses {
		ranked = append(ranked, RankedExpense{Expense: e, MonthlyValue: usage.MonthlyExpenseValue(e)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MonthlyValue.GreaterThan(ranked[j].MonthlyValue)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
