package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers; decoding still accepts quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Account represents a registered user
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"` // bcrypt hash, never serialized
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Category is a spending bucket. UserID is nil for system defaults.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	Icon      string    `db:"icon" json:"icon"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the category may be used by the account
func (c *Category) VisibleTo(userID string) bool {
	return c.IsDefault && c.UserID == nil || c.UserID != nil && *c.UserID == userID
}

// MonthlyGoal is the income and expected-expense plan for one month
type MonthlyGoal struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Month     MonthKey        `db:"month" json:"month"`
	Income    decimal.Decimal `db:"income" json:"income"`
	Expenses  GoalExpenses    `db:"expenses" json:"expenses"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is a recorded expense. CategoryName is a snapshot taken when
// the transaction was recorded and is not refreshed on category rename.
type Transaction struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	CategoryID   string          `db:"category_id" json:"category_id"`
	CategoryName string          `db:"category_name" json:"category_name"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Description  string          `db:"description" json:"description"`
	Date         Date            `db:"date" json:"date"`
	Month        MonthKey        `db:"month" json:"month"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// MonthlyHistory is a finalized, read-only snapshot of a month
type MonthlyHistory struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	Month        MonthKey     `db:"month" json:"month"`
	Goal         JSONDocument `db:"goal" json:"goal"`
	Transactions JSONDocument `db:"transactions" json:"transactions"`
	Summary      JSONDocument `db:"summary" json:"summary"`
	FinalizedAt  time.Time    `db:"finalized_at" json:"finalized_at"`
}

// Identity is the authenticated caller, resolved once per request from the
// bearer token.
type Identity struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// CategoryTotal is the spend of one category within a summary
type CategoryTotal struct {
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// DashboardSummary is the computed view of a month
type DashboardSummary struct {
	Month                 MonthKey        `json:"month,omitempty"`
	TotalIncome           decimal.Decimal `json:"totalIncome"`
	TotalExpenses         decimal.Decimal `json:"totalExpenses"`
	ActualSavings         decimal.Decimal `json:"actualSavings"`
	TotalExpectedExpenses decimal.Decimal `json:"totalExpectedExpenses"`
	ExpectedSavings       decimal.Decimal `json:"expectedSavings"`
	CategoryTotals        []CategoryTotal `json:"categoryTotals"`
	TopCategories         []CategoryTotal `json:"topCategories"`
	MonthlyProgress       decimal.Decimal `json:"monthlyProgress"`
	TransactionCount      int             `json:"transactionCount"`
}
