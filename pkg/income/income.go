package income

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	Salary   Type = "SALARY"
	Benefits Type = "BENEFITS"
	Saved    Type = "SAVED"
	Other    Type = "OTHER"
)

func (t Type) IsValid() bool {
	switch t {
	case Salary, Benefits, Saved, Other:
		return true
	}
	return false
}

type Income struct {
	Id        int
	Type      Type
	Title     string
	Value     decimal.Decimal
	CreatedAt time.Time
}
