package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// BudgetService defines the budgeting operations of one account
type BudgetService interface {
	// Categories
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error

	// Goals
	UpsertGoal(ctx context.Context, userID string, req models.UpsertGoalRequest) (*models.MonthlyGoal, error)
	GetGoal(ctx context.Context, userID, month string) (*models.MonthlyGoal, error)
	ListGoals(ctx context.Context, userID string) ([]models.MonthlyGoal, error)

	// Transactions
	CreateTransaction(ctx context.Context, userID string, req models.CreateTransactionRequest) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, req models.UpdateTransactionRequest) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, query models.TransactionQuery) (*models.TransactionList, error)

	// Reporting
	GetDashboard(ctx context.Context, userID, month string) (*models.DashboardSummary, error)
	ListHistory(ctx context.Context, userID, month string) ([]models.MonthlyHistory, error)
}

// DefaultBudgetService implements BudgetService on top of a Repository
type DefaultBudgetService struct {
	repo     repository.Repository
	resolver *CategoryResolver
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBudgetService creates a new DefaultBudgetService
func NewBudgetService(repo repository.Repository, logger *logrus.Logger) BudgetService {
	return &DefaultBudgetService{
		repo:     repo,
		resolver: NewCategoryResolver(repo, logger),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Category methods
func (s *DefaultBudgetService) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	categories, err := s.repo.ListVisibleCategories(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("error listing categories", err)
	}
	return categories, nil
}

func (s *DefaultBudgetService) CreateCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidField("name", "category name cannot be empty")
	}
	if err := checkCategoryName("name", name); err != nil {
		return nil, err
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = DefaultCategoryColor
	}
	if !hexColorPattern.MatchString(color) {
		return nil, apperr.InvalidField("color", "color must be in #RRGGBB format")
	}

	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		icon = DefaultCategoryIcon
	}

	owner := userID
	category := &models.Category{
		Name:   name,
		Color:  color,
		Icon:   icon,
		UserID: &owner,
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("category with this name already exists")
		}
		return nil, apperr.Internal("error creating category", err)
	}

	return category, nil
}

func (s *DefaultBudgetService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if !repository.IsIdentifier(categoryID) {
		return apperr.NotFound("category not found")
	}

	if err := s.repo.DeleteOwnedCategory(ctx, userID, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal("error deleting category", err)
	}

	return nil
}

// resolveCategory resolves a reference, creating the category if needed.
// Validation failures from the resolver pass through unchanged.
func (s *DefaultBudgetService) resolveCategory(ctx context.Context, userID, ref, name string) (*models.Category, error) {
	category, err := s.resolver.Resolve(ctx, userID, ref, name, true)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Internal("error resolving category", err)
	}
	if category == nil {
		return nil, apperr.InvalidField("category", "category could not be resolved")
	}
	return category, nil
}

// Goal methods
func (s *DefaultBudgetService) UpsertGoal(ctx context.Context, userID string, req models.UpsertGoalRequest) (*models.MonthlyGoal, error) {
	month, err := models.ParseMonthKey(req.Month)
	if err != nil {
		return nil, apperr.InvalidField("month", "month must be in YYYY-MM format")
	}

	if req.Income.IsNegative() {
		return nil, apperr.InvalidField("income", "income cannot be negative")
	}
	income, err := checkAmount("income", req.Income)
	if err != nil {
		return nil, err
	}

	// Entries are checked up front so a bad entry cannot leave categories
	// created for the entries before it.
	amounts := make([]decimal.Decimal, len(req.Expenses))
	for i, expense := range req.Expenses {
		if expense.ExpectedAmount.IsNegative() {
			return nil, apperr.InvalidField("expected_amount", "expected amount cannot be negative")
		}
		if amounts[i], err = checkAmount("expected_amount", expense.ExpectedAmount); err != nil {
			return nil, err
		}

		ref := strings.TrimSpace(expense.CategoryID)
		name := strings.TrimSpace(expense.CategoryName)
		if ref == "" && name == "" {
			return nil, apperr.InvalidField("category", "each expense needs a category_id or category_name")
		}
		if name == "" {
			name = SlugToName(ref)
		}
		if err := checkCategoryName("category_name", name); err != nil {
			return nil, err
		}
	}

	expenses := make(models.GoalExpenses, 0, len(req.Expenses))
	for i, expense := range req.Expenses {
		category, err := s.resolveCategory(ctx, userID, expense.CategoryID, expense.CategoryName)
		if err != nil {
			return nil, err
		}

		expenses = append(expenses, models.GoalExpense{
			CategoryID:     category.ID,
			CategoryName:   category.Name,
			ExpectedAmount: amounts[i],
		})
	}

	goal := &models.MonthlyGoal{
		UserID:   userID,
		Month:    month,
		Income:   income,
		Expenses: expenses,
	}

	if err := s.repo.UpsertGoal(ctx, goal); err != nil {
		return nil, apperr.Internal("error saving goal", err)
	}

	s.logger.WithFields(logrus.Fields{
		"userId": userID,
		"month":  month,
	}).Info("Goal saved")

	return goal, nil
}

func (s *DefaultBudgetService) GetGoal(ctx context.Context, userID, month string) (*models.MonthlyGoal, error) {
	key, err := models.ParseMonthKey(month)
	if err != nil {
		return nil, apperr.InvalidField("month", "month must be in YYYY-MM format")
	}

	goal, err := s.repo.GetGoal(ctx, userID, key)
	if err != nil {
		return nil, apperr.Internal("error getting goal", err)
	}
	if goal == nil {
		return nil, apperr.NotFound("goal not found")
	}

	return goal, nil
}

func (s *DefaultBudgetService) ListGoals(ctx context.Context, userID string) ([]models.MonthlyGoal, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("error listing goals", err)
	}
	return goals, nil
}

// Transaction methods
func (s *DefaultBudgetService) CreateTransaction(ctx context.Context, userID string, req models.CreateTransactionRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperr.InvalidField("amount", "amount must be greater than zero")
	}
	amount, err := checkAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, apperr.InvalidField("date", "date is required")
	}
	if strings.TrimSpace(req.CategoryID) == "" && strings.TrimSpace(req.CategoryName) == "" {
		return nil, apperr.InvalidField("category", "category_id or category_name is required")
	}

	category, err := s.resolveCategory(ctx, userID, req.CategoryID, req.CategoryName)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:       userID,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Amount:       amount,
		Description:  strings.TrimSpace(req.Description),
		Date:         req.Date,
		Month:        req.Date.Month(),
	}

	if err := s.repo.CreateTransaction(ctx, transaction); err != nil {
		return nil, apperr.Internal("error creating transaction", err)
	}

	return transaction, nil
}

// UpdateTransaction applies a partial update. Nothing is written unless every
// supplied field, including a changed category, is valid.
func (s *DefaultBudgetService) UpdateTransaction(
	ctx context.Context,
	userID string,
	transactionID string,
	req models.UpdateTransactionRequest,
) (*models.Transaction, error) {
	if !repository.IsIdentifier(transactionID) {
		return nil, apperr.NotFound("transaction not found")
	}

	transaction, err := s.repo.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, apperr.Internal("error getting transaction", err)
	}
	if transaction == nil {
		return nil, apperr.NotFound("transaction not found")
	}

	updated := *transaction

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, apperr.InvalidField("amount", "amount must be greater than zero")
		}
		amount, err := checkAmount("amount", *req.Amount)
		if err != nil {
			return nil, err
		}
		updated.Amount = amount
	}

	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}

	if req.Date != nil {
		if req.Date.IsZero() {
			return nil, apperr.InvalidField("date", "date cannot be empty")
		}
		updated.Date = *req.Date
		updated.Month = req.Date.Month()
	}

	if req.TouchesCategory() {
		category, err := s.resolveCategory(ctx, userID, deref(req.CategoryID), deref(req.CategoryName))
		if err != nil {
			return nil, err
		}
		updated.CategoryID = category.ID
		updated.CategoryName = category.Name
	}

	if err := s.repo.UpdateTransaction(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("transaction not found")
		}
		return nil, apperr.Internal("error updating transaction", err)
	}

	return &updated, nil
}

func (s *DefaultBudgetService) ListTransactions(ctx context.Context, userID string, query models.TransactionQuery) (*models.TransactionList, error) {
	filter := models.TransactionFilter{
		CategoryID: strings.TrimSpace(query.CategoryID),
		Limit:      query.Limit,
		Offset:     query.Offset,
	}

	if query.Month != "" {
		month, err := models.ParseMonthKey(query.Month)
		if err != nil {
			return nil, apperr.InvalidField("month", "month must be in YYYY-MM format")
		}
		filter.Month = month
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultTransactionLimit
	}
	if filter.Limit > MaxTransactionLimit {
		filter.Limit = MaxTransactionLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	transactions, err := s.repo.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, apperr.Internal("error listing transactions", err)
	}

	return &models.TransactionList{
		Transactions: transactions,
		Count:        len(transactions),
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}, nil
}

// Reporting methods

// GetDashboard summarizes one month. An empty month means the current UTC month.
func (s *DefaultBudgetService) GetDashboard(ctx context.Context, userID, month string) (*models.DashboardSummary, error) {
	key := models.MonthOf(s.now())
	if month != "" {
		parsed, err := models.ParseMonthKey(month)
		if err != nil {
			return nil, apperr.InvalidField("month", "month must be in YYYY-MM format")
		}
		key = parsed
	}

	var (
		goal         *models.MonthlyGoal
		transactions []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goal, err = s.repo.GetGoal(gctx, userID, key)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.repo.ListTransactions(gctx, userID, models.TransactionFilter{
			Month:       key,
			OldestFirst: true,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("error loading dashboard", err)
	}

	summary := Summarize(goal, transactions)
	summary.Month = key

	return &summary, nil
}

func (s *DefaultBudgetService) ListHistory(ctx context.Context, userID, month string) ([]models.MonthlyHistory, error) {
	var key models.MonthKey
	if month != "" {
		parsed, err := models.ParseMonthKey(month)
		if err != nil {
			return nil, apperr.InvalidField("month", "month must be in YYYY-MM format")
		}
		key = parsed
	}

	history, err := s.repo.ListHistory(ctx, userID, key)
	if err != nil {
		return nil, apperr.Internal("error listing history", err)
	}

	return history, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
