package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	Render(report Report) (string, error)
}

type CsvReportRendererImpl struct {
}

func NewCsvReportRenderer() *CsvReportRendererImpl {
	return &CsvReportRendererImpl{}
}

func (t *CsvReportRendererImpl) Render(report Report) (string, error) {
	used, remaining := report.Usage.Float()
	data := [][]string{
		{"Metric", "Value"},
		{"Monthly income", report.MonthlyIncome.StringFixed(2)},
		{"Saved", report.Saved.StringFixed(2)},
		{"Monthly expenses", report.MonthlyExpenses.StringFixed(2)},
		{"Balance", report.Balance.StringFixed(2)},
		{"Used percent", strconv.FormatFloat(used, 'f', 2, 64)},
		{"Remaining percent", strconv.FormatFloat(remaining, 'f', 2, 64)},
		{},
		{"Frequency", "Count", "Monthly value"},
	}
	for _, total := range report.ExpensesByFrequency {
		data = append(data, []string{string(total.Frequency), strconv.Itoa(total.Count), total.MonthlyValue.StringFixed(2)})
	}

	data = append(data, []string{}, []string{"Income type", "Count", "Total"})
	for _, total := range report.IncomesByType {
		data = append(data, []string{string(total.Type), strconv.Itoa(total.Count), total.Total.StringFixed(2)})
	}

	data = append(data, []string{}, []string{"Top expense", "Frequency", "Value", "Monthly value"})
	for _, ranked := range report.TopExpenses {
		data = append(data, []string{
			ranked.Expense.Title,
			string(ranked.Expense.Frequency),
			ranked.Expense.Value.StringFixed(2),
			ranked.MonthlyValue.StringFixed(2),
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
