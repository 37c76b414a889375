package models

import "github.com/shopspring/decimal"

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
	Icon  string `json:"icon"`
}

type GoalExpenseInput struct {
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
}

type UpsertGoalRequest struct {
	Month    string             `json:"month" binding:"required,monthkey"`
	Income   decimal.Decimal    `json:"income"`
	Expenses []GoalExpenseInput `json:"expenses"`
}

type CreateTransactionRequest struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         Date            `json:"date"`
}

// UpdateTransactionRequest carries a partial update; nil fields keep their
// stored value.
type UpdateTransactionRequest struct {
	CategoryID   *string          `json:"category_id"`
	CategoryName *string          `json:"category_name"`
	Amount       *decimal.Decimal `json:"amount"`
	Description  *string          `json:"description"`
	Date         *Date            `json:"date"`
}

// TouchesCategory reports whether the update names a category
func (r UpdateTransactionRequest) TouchesCategory() bool {
	return r.CategoryID != nil || r.CategoryName != nil
}

type TransactionQuery struct {
	Month      string `form:"month" binding:"omitempty,monthkey"`
	CategoryID string `form:"category_id"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}

type MonthQuery struct {
	Month string `form:"month" binding:"omitempty,monthkey"`
}

// TransactionFilter narrows a transaction listing for one account
type TransactionFilter struct {
	Month      MonthKey
	CategoryID string
	Limit      int // zero means no limit
	Offset     int
	// OldestFirst orders by date then creation time ascending instead of
	// newest first.
	OldestFirst bool
}

// Response models

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

type AuthResponse struct {
	Token     string   `json:"token,omitempty"`
	ExpiresIn int      `json:"expires_in,omitempty"`
	User      *Account `json:"user"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Count        int           `json:"count"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}
