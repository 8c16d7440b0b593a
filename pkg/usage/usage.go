// Package usage derives monthly totals and budget usage from income and expense records.
// All functions are pure.
package usage

import (
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/shopspring/decimal"
)

// DefaultWarningLimitPercent applies when the user never stored settings.
const DefaultWarningLimitPercent = 90

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Usage is the share of available money consumed by expenses.
// UsedPercent and RemainingPercent are within [0, 100] and always sum to 100.
type Usage struct {
	UsedPercent      decimal.Decimal
	RemainingPercent decimal.Decimal
	IsCritical       bool
}

// TotalMonthlyIncome sums SALARY and BENEFITS incomes.
func TotalMonthlyIncome(incomes []income.Income) decimal.Decimal {
	total := decimal.Zero
	for _, i := range incomes {
		if i.Type == income.Salary || i.Type == income.Benefits {
			total = total.Add(i.Value)
		}
	}
	return total
}

// TotalSaved sums SAVED incomes.
func TotalSaved(incomes []income.Income) decimal.Decimal {
	total := decimal.Zero
	for _, i := range incomes {
		if i.Type == income.Saved {
			total = total.Add(i.Value)
		}
	}
	return total
}

// MonthlyExpenseValue is the monthly equivalent of one expense.
func MonthlyExpenseValue(e expense.Expense) decimal.Decimal {
	switch e.Frequency {
	case expense.Annual:
		return e.Value.Div(twelve)
	default:
		return e.Value
	}
}

// TotalMonthlyExpenses sums the monthly equivalent of every expense, ONE_TIME included.
func TotalMonthlyExpenses(expenses []expense.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(MonthlyExpenseValue(e))
	}
	return total
}

func totalOneTime(expenses []expense.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.Frequency == expense.OneTime {
			total = total.Add(e.Value)
		}
	}
	return total
}

type balanceOptions struct {
	includeOneTime bool
}

type BalanceOption func(*balanceOptions)

// IncludeOneTimeInMonth controls whether ONE_TIME expenses reduce the balance. Defaults to true.
func IncludeOneTimeInMonth(include bool) BalanceOption {
	return func(o *balanceOptions) {
		o.includeOneTime = include
	}
}

// RemainingBalance is income plus savings minus recurring monthly costs and one-time costs.
// The result may be negative.
func RemainingBalance(incomes []income.Income, expenses []expense.Expense, opts ...BalanceOption) decimal.Decimal {
	options := balanceOptions{includeOneTime: true}
	for _, opt := range opts {
		opt(&options)
	}

	recurring := decimal.Zero
	for _, e := range expenses {
		if e.Frequency != expense.OneTime {
			recurring = recurring.Add(MonthlyExpenseValue(e))
		}
	}

	balance := TotalMonthlyIncome(incomes).Add(TotalSaved(incomes)).Sub(recurring)
	if options.includeOneTime {
		balance = balance.Sub(totalOneTime(expenses))
	}
	return balance
}

// UsagePercent computes how much of the available money is used and whether the
// remaining share dropped to the warning threshold.
//
// ONE_TIME expenses are counted twice in the used amount: once through
// TotalMonthlyExpenses and once on their own.
func UsagePercent(incomes []income.Income, expenses []expense.Expense, warningLimitPercent int) Usage {
	available := TotalMonthlyIncome(incomes).Add(TotalSaved(incomes))
	if !available.IsPositive() {
		return Usage{UsedPercent: hundred, RemainingPercent: decimal.Zero, IsCritical: true}
	}

	used := TotalMonthlyExpenses(expenses).Add(totalOneTime(expenses))
	usedPercent := decimal.Min(hundred, used.Div(available).Mul(hundred))
	remainingPercent := decimal.Max(decimal.Zero, hundred.Sub(usedPercent))
	threshold := hundred.Sub(decimal.NewFromInt(int64(warningLimitPercent)))

	return Usage{
		UsedPercent:      usedPercent,
		RemainingPercent: remainingPercent,
		IsCritical:       remainingPercent.LessThanOrEqual(threshold),
	}
}

// Float returns the percentages as float64 for JSON responses and alert metadata.
func (u Usage) Float() (used float64, remaining float64) {
	return u.UsedPercent.InexactFloat64(), u.RemainingPercent.InexactFloat64()
}
