package dashboard

import (
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/usage"
	"github.com/shopspring/decimal"
)

type Dashboard struct {
	Expenses            []expense.Expense
	Incomes             []income.Income
	Settings            settings.Settings
	MonthlyIncome       decimal.Decimal
	Saved               decimal.Decimal
	MonthlyExpenses     decimal.Decimal
	Balance             decimal.Decimal
	Usage               usage.Usage
	WarningLimitPercent int
}
