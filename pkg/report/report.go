package report

import (
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/usage"
	"github.com/shopspring/decimal"
)

const topExpensesLimit = 5

type Report struct {
	MonthlyIncome       decimal.Decimal
	Saved               decimal.Decimal
	MonthlyExpenses     decimal.Decimal
	Balance             decimal.Decimal
	Usage               usage.Usage
	ExpensesByFrequency []FrequencyTotal
	IncomesByType       []IncomeTypeTotal
	// TopExpenses are the largest expenses by monthly equivalent value.
	TopExpenses []RankedExpense
}

type FrequencyTotal struct {
	Frequency    expense.Frequency
	Count        int
	MonthlyValue decimal.Decimal
}

type IncomeTypeTotal struct {
	Type  income.Type
	Count int
	Total decimal.Decimal
}

type RankedExpense struct {
	Expense      expense.Expense
	MonthlyValue decimal.Decimal
}
