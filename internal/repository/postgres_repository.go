package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rongwang/budget-server/internal/models"
)

var (
	// ErrNotFound is returned by writes that matched no row owned by the caller
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken
	ErrConflict = errors.New("record already exists")
)

const uniqueViolation = "23505"

// Repository interface defines the methods that any repository implementation must satisfy.
// Single-row reads return (nil, nil) when nothing visible to the caller matches.
type Repository interface {
	// Account operations
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	UpdateAccountName(ctx context.Context, id, name string) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// Token revocation
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// Category operations
	GetVisibleCategory(ctx context.Context, userID, categoryID string) (*models.Category, error)
	FindVisibleCategoryByName(ctx context.Context, userID, name string) (*models.Category, error)
	ListVisibleCategories(ctx context.Context, userID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	DeleteOwnedCategory(ctx context.Context, userID, categoryID string) error

	// Goal operations
	UpsertGoal(ctx context.Context, goal *models.MonthlyGoal) error
	GetGoal(ctx context.Context, userID string, month models.MonthKey) (*models.MonthlyGoal, error)
	ListGoals(ctx context.Context, userID string) ([]models.MonthlyGoal, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, transaction *models.Transaction) error
	ListTransactions(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, error)

	// History operations
	ListHistory(ctx context.Context, userID string, month models.MonthKey) ([]models.MonthlyHistory, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// IsIdentifier reports whether s has the canonical hyphenated UUID shape
// used for every primary key in the store.
func IsIdentifier(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

// Account repository methods
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.Name, account.PasswordHash, account.Active,
		account.CreatedAt, account.UpdatedAt)

	return translateError(err)
}

func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE LOWER(email) = LOWER($1)`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	if !IsIdentifier(id) {
		return nil, nil
	}

	query := `SELECT * FROM accounts WHERE id = $1`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) UpdateAccountName(ctx context.Context, id, name string) (*models.Account, error) {
	if !IsIdentifier(id) {
		return nil, ErrNotFound
	}

	query := `UPDATE accounts SET name = $1, updated_at = $2 WHERE id = $3 RETURNING *`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, name, time.Now().UTC(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if !IsIdentifier(id) {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return requireOneRow(result)
}

// Token revocation repository methods
func (r *PostgresRepository) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// Expired entries can never match a valid token again.
	_, err = tx.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at) VALUES ($1, $2) ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !IsIdentifier(tokenID) {
		return false, nil
	}

	var revoked bool
	err := r.db.GetContext(ctx, &revoked,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID)
	return revoked, err
}

// Category repository methods
func (r *PostgresRepository) GetVisibleCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if !IsIdentifier(categoryID) {
		return nil, nil
	}

	query := `
		SELECT * FROM categories
		WHERE id = $1 AND (user_id = $2 OR (is_default AND user_id IS NULL))
	`

	var category models.Category
	err := r.db.GetContext(ctx, &category, query, categoryID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *PostgresRepository) FindVisibleCategoryByName(ctx context.Context, userID, name string) (*models.Category, error) {
	// Owned categories shadow defaults of the same name.
	query := `
		SELECT * FROM categories
		WHERE name = $1 AND (user_id = $2 OR (is_default AND user_id IS NULL))
		ORDER BY (user_id IS NULL) ASC, created_at ASC
		LIMIT 1
	`

	var category models.Category
	err := r.db.GetContext(ctx, &category, query, name, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *PostgresRepository) ListVisibleCategories(ctx context.Context, userID string) ([]models.Category, error) {
	query := `
		SELECT * FROM categories
		WHERE user_id = $1 OR (is_default AND user_id IS NULL)
		ORDER BY is_default DESC, name ASC
	`

	categories := []models.Category{}
	err := r.db.SelectContext(ctx, &categories, query, userID)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, color, icon, is_default, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Color, category.Icon, category.IsDefault,
		category.UserID, category.CreatedAt, category.UpdatedAt)

	return translateError(err)
}

func (r *PostgresRepository) DeleteOwnedCategory(ctx context.Context, userID, categoryID string) error {
	if !IsIdentifier(categoryID) {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2 AND NOT is_default`,
		categoryID, userID)
	if err != nil {
		return err
	}

	return requireOneRow(result)
}

// Goal repository methods
func (r *PostgresRepository) UpsertGoal(ctx context.Context, goal *models.MonthlyGoal) error {
	query := `
		INSERT INTO monthly_goals (id, user_id, month, income, expenses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, month) DO UPDATE
		SET income = EXCLUDED.income,
			expenses = EXCLUDED.expenses,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}

	now := time.Now().UTC()

	return r.db.QueryRowxContext(ctx, query,
		goal.ID, goal.UserID, string(goal.Month), goal.Income, goal.Expenses, now, now,
	).Scan(&goal.ID, &goal.CreatedAt, &goal.UpdatedAt)
}

func (r *PostgresRepository) GetGoal(ctx context.Context, userID string, month models.MonthKey) (*models.MonthlyGoal, error) {
	query := `SELECT * FROM monthly_goals WHERE user_id = $1 AND month = $2`

	var goal models.MonthlyGoal
	err := r.db.GetContext(ctx, &goal, query, userID, string(month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &goal, nil
}

func (r *PostgresRepository) ListGoals(ctx context.Context, userID string) ([]models.MonthlyGoal, error) {
	query := `SELECT * FROM monthly_goals WHERE user_id = $1 ORDER BY month DESC`

	goals := []models.MonthlyGoal{}
	err := r.db.SelectContext(ctx, &goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Transaction repository methods
func (r *PostgresRepository) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, category_id, category_name, amount, description, date, month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		transaction.ID, transaction.UserID, transaction.CategoryID, transaction.CategoryName,
		transaction.Amount, transaction.Description, transaction.Date, string(transaction.Month),
		transaction.CreatedAt, transaction.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	if !IsIdentifier(transactionID) {
		return nil, nil
	}

	query := `SELECT * FROM transactions WHERE id = $1 AND user_id = $2`

	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, query, transactionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &transaction, nil
}

func (r *PostgresRepository) UpdateTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		UPDATE transactions
		SET category_id = $1, category_name = $2, amount = $3, description = $4,
			date = $5, month = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9
	`

	transaction.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		transaction.CategoryID, transaction.CategoryName, transaction.Amount, transaction.Description,
		transaction.Date, string(transaction.Month), transaction.UpdatedAt,
		transaction.ID, transaction.UserID)
	if err != nil {
		return err
	}

	return requireOneRow(result)
}

func (r *PostgresRepository) ListTransactions(
	ctx context.Context,
	userID string,
	filter models.TransactionFilter,
) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Month != "" {
		args = append(args, string(filter.Month))
		query += ` AND month = ` + placeholder(len(args))
	}

	if filter.CategoryID != "" {
		if !IsIdentifier(filter.CategoryID) {
			return []models.Transaction{}, nil
		}
		args = append(args, filter.CategoryID)
		query += ` AND category_id = ` + placeholder(len(args))
	}

	if filter.OldestFirst {
		query += ` ORDER BY date ASC, created_at ASC, id ASC`
	} else {
		query += ` ORDER BY date DESC, created_at DESC, id DESC`
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT ` + placeholder(len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	transactions := []models.Transaction{}
	err := r.db.SelectContext(ctx, &transactions, query, args...)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// History repository methods
func (r *PostgresRepository) ListHistory(ctx context.Context, userID string, month models.MonthKey) ([]models.MonthlyHistory, error) {
	query := `SELECT * FROM monthly_history WHERE user_id = $1`
	args := []interface{}{userID}

	if month != "" {
		args = append(args, string(month))
		query += ` AND month = ` + placeholder(len(args))
	}

	query += ` ORDER BY month DESC`

	history := []models.MonthlyHistory{}
	err := r.db.SelectContext(ctx, &history, query, args...)
	if err != nil {
		return nil, err
	}

	return history, nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
