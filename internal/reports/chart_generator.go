package reports

import (
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/ledger-engine/internal/models"
	"gitlab.com/yelinaung/ledger-engine/internal/money"
)

// GenerateExpenseChart creates a pie chart of an account's expenses for a
// report period, broken down by category. Returns PNG image bytes.
func GenerateExpenseChart(
	transactions []models.Transaction,
	categoryNames map[int]string,
	decimalPlaces int,
	period string,
) ([]byte, error) {
	categoryTotals := aggregateExpensesByCategory(transactions, categoryNames)
	if len(categoryTotals) == 0 {
		return nil, fmt.Errorf("no expenses to chart")
	}

	var values []float64
	var labels []string
	for name, total := range categoryTotals {
		labels = append(labels, name)
		values = append(values, money.Decimal(total, decimalPlaces).InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Expense Breakdown - %s", period),
		}),
		charts.LegendLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// aggregateExpensesByCategory groups negative transaction amounts by
// category name and returns positive scaled magnitudes.
func aggregateExpensesByCategory(
	transactions []models.Transaction,
	categoryNames map[int]string,
) map[string]int64 {
	totals := make(map[string]int64)
	for _, tx := range transactions {
		if tx.Amount >= 0 {
			continue
		}

		name := "Uncategorized"
		if tx.CategoryID != nil {
			if n, ok := categoryNames[*tx.CategoryID]; ok {
				name = n
			}
		}
		totals[name] += -tx.Amount
	}
	return totals
}
