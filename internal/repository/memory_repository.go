package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rongwang/budget-server/internal/models"
)

// defaultCategories mirrors the rows seeded by the categories migration
var defaultCategories = []models.Category{
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0001", Name: "Food", Color: "#F97316", Icon: "utensils"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0002", Name: "Transport", Color: "#0EA5E9", Icon: "car"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0003", Name: "Housing", Color: "#8B5CF6", Icon: "home"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0004", Name: "Utilities", Color: "#EAB308", Icon: "bolt"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0005", Name: "Entertainment", Color: "#EC4899", Icon: "film"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0006", Name: "Health", Color: "#22C55E", Icon: "heart"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0007", Name: "Shopping", Color: "#F43F5E", Icon: "bag"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0008", Name: "Education", Color: "#14B8A6", Icon: "book"},
	{ID: "8f14e45f-ceea-467a-9b36-1f0b5a7c0009", Name: "Other", Color: "#6366F1", Icon: "tag"},
}

// MemoryRepository keeps everything in process memory. It enforces the same
// ownership and uniqueness rules as the PostgreSQL schema and is used for
// local runs (DB_DRIVER=memory) and tests.
type MemoryRepository struct {
	mu            sync.RWMutex
	accounts      map[string]models.Account
	revokedTokens map[string]time.Time
	categories    map[string]models.Category
	goals         map[string]models.MonthlyGoal // keyed by user id + month
	transactions  map[string]models.Transaction
	sequence      map[string]int64 // insertion order, breaks ordering ties
	history       []models.MonthlyHistory
	now           func() time.Time
}

// NewMemoryRepository creates a repository seeded with the default categories
func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{
		accounts:      make(map[string]models.Account),
		revokedTokens: make(map[string]time.Time),
		categories:    make(map[string]models.Category),
		goals:         make(map[string]models.MonthlyGoal),
		transactions:  make(map[string]models.Transaction),
		sequence:      make(map[string]int64),
		now:           func() time.Time { return time.Now().UTC() },
	}

	seededAt := r.now()
	for _, category := range defaultCategories {
		category.IsDefault = true
		category.CreatedAt = seededAt
		category.UpdatedAt = seededAt
		r.categories[category.ID] = category
	}

	return r
}

// AddHistory stores a finalized month snapshot
func (r *MemoryRepository) AddHistory(entry models.MonthlyHistory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.FinalizedAt.IsZero() {
		entry.FinalizedAt = r.now()
	}
	r.history = append(r.history, entry)
}

func goalKey(userID string, month models.MonthKey) string {
	return userID + "|" + string(month)
}

// Account repository methods
func (r *MemoryRepository) CreateAccount(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return ErrConflict
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.ID] = *account

	return nil
}

func (r *MemoryRepository) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if strings.EqualFold(account.Email, email) {
			found := account
			return &found, nil
		}
	}

	return nil, nil
}

func (r *MemoryRepository) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}

	return &account, nil
}

func (r *MemoryRepository) UpdateAccountName(_ context.Context, id, name string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}

	account.Name = name
	account.UpdatedAt = r.now()
	r.accounts[id] = account

	return &account, nil
}

// SetAccountActive enables or disables an account
func (r *MemoryRepository) SetAccountActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	account.Active = active
	account.UpdatedAt = r.now()
	r.accounts[id] = account

	return nil
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}

	account.PasswordHash = passwordHash
	account.UpdatedAt = r.now()
	r.accounts[id] = account

	return nil
}

// Token revocation repository methods
func (r *MemoryRepository) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, expiry := range r.revokedTokens {
		if expiry.Before(now) {
			delete(r.revokedTokens, id)
		}
	}
	r.revokedTokens[tokenID] = expiresAt

	return nil
}

func (r *MemoryRepository) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, revoked := r.revokedTokens[tokenID]
	return revoked, nil
}

// Category repository methods
func (r *MemoryRepository) GetVisibleCategory(_ context.Context, userID, categoryID string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[categoryID]
	if !ok || !category.VisibleTo(userID) {
		return nil, nil
	}

	return &category, nil
}

func (r *MemoryRepository) FindVisibleCategoryByName(_ context.Context, userID, name string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match *models.Category
	for _, category := range r.categories {
		if category.Name != name || !category.VisibleTo(userID) {
			continue
		}
		candidate := category
		if match == nil || preferCategory(&candidate, match) {
			match = &candidate
		}
	}

	return match, nil
}

// preferCategory orders name matches the same way the PostgreSQL query does:
// owned before default, then oldest first.
func preferCategory(a, b *models.Category) bool {
	aOwned, bOwned := a.UserID != nil, b.UserID != nil
	if aOwned != bOwned {
		return aOwned
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (r *MemoryRepository) ListVisibleCategories(_ context.Context, userID string) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := []models.Category{}
	for _, category := range r.categories {
		if category.VisibleTo(userID) {
			categories = append(categories, category)
		}
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].IsDefault != categories[j].IsDefault {
			return categories[i].IsDefault
		}
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

func (r *MemoryRepository) CreateCategory(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Name != category.Name {
			continue
		}
		if sameOwner(existing.UserID, category.UserID) {
			return ErrConflict
		}
	}

	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	now := r.now()
	category.CreatedAt = now
	category.UpdatedAt = now

	stored := *category
	if category.UserID != nil {
		owner := *category.UserID
		stored.UserID = &owner
	}
	r.categories[stored.ID] = stored

	return nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemoryRepository) DeleteOwnedCategory(_ context.Context, userID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	category, ok := r.categories[categoryID]
	if !ok || category.IsDefault || category.UserID == nil || *category.UserID != userID {
		return ErrNotFound
	}

	delete(r.categories, categoryID)
	return nil
}

// Goal repository methods
func (r *MemoryRepository) UpsertGoal(_ context.Context, goal *models.MonthlyGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := goalKey(goal.UserID, goal.Month)

	if existing, ok := r.goals[key]; ok {
		goal.ID = existing.ID
		goal.CreatedAt = existing.CreatedAt
	} else {
		if goal.ID == "" {
			goal.ID = uuid.New().String()
		}
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	stored := *goal
	stored.Expenses = append(models.GoalExpenses{}, goal.Expenses...)
	r.goals[key] = stored

	return nil
}

func (r *MemoryRepository) GetGoal(_ context.Context, userID string, month models.MonthKey) (*models.MonthlyGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, ok := r.goals[goalKey(userID, month)]
	if !ok {
		return nil, nil
	}

	goal.Expenses = append(models.GoalExpenses{}, goal.Expenses...)
	return &goal, nil
}

func (r *MemoryRepository) ListGoals(_ context.Context, userID string) ([]models.MonthlyGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := []models.MonthlyGoal{}
	for _, goal := range r.goals {
		if goal.UserID == userID {
			goal.Expenses = append(models.GoalExpenses{}, goal.Expenses...)
			goals = append(goals, goal)
		}
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].Month > goals[j].Month
	})

	return goals, nil
}

// Transaction repository methods
func (r *MemoryRepository) CreateTransaction(_ context.Context, transaction *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	now := r.now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	r.transactions[transaction.ID] = *transaction
	r.sequence[transaction.ID] = int64(len(r.sequence))

	return nil
}

func (r *MemoryRepository) GetTransaction(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transaction, ok := r.transactions[transactionID]
	if !ok || transaction.UserID != userID {
		return nil, nil
	}

	return &transaction, nil
}

func (r *MemoryRepository) UpdateTransaction(_ context.Context, transaction *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID {
		return ErrNotFound
	}

	transaction.CreatedAt = existing.CreatedAt
	transaction.UpdatedAt = r.now()
	r.transactions[transaction.ID] = *transaction

	return nil
}

func (r *MemoryRepository) ListTransactions(
	_ context.Context,
	userID string,
	filter models.TransactionFilter,
) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions := []models.Transaction{}
	for _, transaction := range r.transactions {
		if transaction.UserID != userID {
			continue
		}
		if filter.Month != "" && transaction.Month != filter.Month {
			continue
		}
		if filter.CategoryID != "" && transaction.CategoryID != filter.CategoryID {
			continue
		}
		transactions = append(transactions, transaction)
	}

	sort.Slice(transactions, func(i, j int) bool {
		if filter.OldestFirst {
			return r.transactionBefore(transactions[i], transactions[j])
		}
		return r.transactionBefore(transactions[j], transactions[i])
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(transactions) {
			return []models.Transaction{}, nil
		}
		transactions = transactions[filter.Offset:]
	}

	if filter.Limit > 0 && len(transactions) > filter.Limit {
		transactions = transactions[:filter.Limit]
	}

	return transactions, nil
}

func (r *MemoryRepository) transactionBefore(a, b models.Transaction) bool {
	if !a.Date.Time().Equal(b.Date.Time()) {
		return a.Date.Time().Before(b.Date.Time())
	}
	return r.sequence[a.ID] < r.sequence[b.ID]
}

// History repository methods
func (r *MemoryRepository) ListHistory(_ context.Context, userID string, month models.MonthKey) ([]models.MonthlyHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := []models.MonthlyHistory{}
	for _, entry := range r.history {
		if entry.UserID != userID {
			continue
		}
		if month != "" && entry.Month != month {
			continue
		}
		history = append(history, entry)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Month > history[j].Month
	})

	return history, nil
}
