package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	OneTime Frequency = "ONE_TIME"
	Monthly Frequency = "MONTHLY"
	Annual  Frequency = "ANNUAL"
)

func (f Frequency) IsValid() bool {
	switch f {
	case OneTime, Monthly, Annual:
		return true
	}
	return false
}

type Expense struct {
	Id          int
	Title       string
	Description string
	LogoUrl     string
	Value       decimal.Decimal
	Frequency   Frequency
	CreatedAt   time.Time
}
