package service

import (
	"sort"

	"github.com/rongwang/budget-server/internal/models"
	"github.com/shopspring/decimal"
)

const topCategoryLimit = 5

var hundred = decimal.NewFromInt(100)

// Summarize folds a month's goal and transactions into the dashboard view.
// goal may be nil. Categories are grouped by the name recorded on each
// transaction. Equal totals keep the order in which their category first
// appears in transactions.
func Summarize(goal *models.MonthlyGoal, transactions []models.Transaction) models.DashboardSummary {
	totalIncome := decimal.Zero
	totalExpected := decimal.Zero
	if goal != nil {
		totalIncome = goal.Income
		totalExpected = goal.Expenses.Total()
	}

	totalExpenses := decimal.Zero
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, transaction := range transactions {
		totalExpenses = totalExpenses.Add(transaction.Amount)

		sum, seen := sums[transaction.CategoryName]
		if !seen {
			order = append(order, transaction.CategoryName)
			sum = decimal.Zero
		}
		sums[transaction.CategoryName] = sum.Add(transaction.Amount)
	}

	categoryTotals := make([]models.CategoryTotal, 0, len(order))
	for _, name := range order {
		categoryTotals = append(categoryTotals, models.CategoryTotal{
			CategoryName: name,
			Amount:       sums[name],
			Percentage:   percentOf(sums[name], totalExpenses),
		})
	}

	sort.SliceStable(categoryTotals, func(i, j int) bool {
		return categoryTotals[i].Amount.GreaterThan(categoryTotals[j].Amount)
	})

	top := categoryTotals
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}

	progress := decimal.Zero
	if totalExpected.IsPositive() {
		progress = percentOf(totalExpenses, totalExpected)
		if progress.GreaterThan(hundred) {
			progress = hundred
		}
	}

	return models.DashboardSummary{
		TotalIncome:           totalIncome,
		TotalExpenses:         totalExpenses,
		ActualSavings:         totalIncome.Sub(totalExpenses),
		TotalExpectedExpenses: totalExpected,
		ExpectedSavings:       totalIncome.Sub(totalExpected),
		CategoryTotals:        categoryTotals,
		TopCategories:         append([]models.CategoryTotal{}, top...),
		MonthlyProgress:       progress,
		TransactionCount:      len(transactions),
	}
}

// percentOf returns part/whole*100 rounded to two places, or zero when whole
// is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}
