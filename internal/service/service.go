package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/auth"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "invalid email or password"

// Service defines the account and session operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.Account, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (models.Identity, error)
	Logout(ctx context.Context, identity models.Identity) error
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error

	// Profile
	GetProfile(ctx context.Context, userID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Account, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo       repository.Repository
	tokens     *auth.TokenManager
	logger     *logrus.Logger
	bcryptCost int
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, tokens *auth.TokenManager, logger *logrus.Logger) Service {
	return &DefaultService{
		repo:       repo,
		tokens:     tokens,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Account, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidField("name", "name cannot be empty")
	}

	existing, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("error checking user existence", err)
	}

	if existing != nil {
		return nil, apperr.Conflict("user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("error hashing password", err)
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Active:       true,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("user with this email already exists")
		}
		return nil, apperr.Internal("error creating user", err)
	}

	s.logger.WithField("userId", account.ID).Info("Account created")

	return account, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	account, err := s.repo.GetAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperr.Internal("error getting user", err)
	}

	// Unknown, disabled and wrong-password logins are indistinguishable.
	if account == nil || !account.Active {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	token, _, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, apperr.Internal("error generating token", err)
	}

	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		User:      account,
	}, nil
}

// Authenticate resolves a bearer token to the identity of an active account
func (s *DefaultService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, apperr.Unauthorized("invalid or expired token")
	}

	revoked, err := s.repo.IsTokenRevoked(ctx, identity.TokenID)
	if err != nil {
		return models.Identity{}, apperr.Internal("error checking token revocation", err)
	}
	if revoked {
		return models.Identity{}, apperr.Unauthorized("token has been revoked")
	}

	account, err := s.repo.GetAccountByID(ctx, identity.UserID)
	if err != nil {
		return models.Identity{}, apperr.Internal("error getting user", err)
	}
	if account == nil || !account.Active {
		return models.Identity{}, apperr.Unauthorized("invalid or expired token")
	}

	return identity, nil
}

func (s *DefaultService) Logout(ctx context.Context, identity models.Identity) error {
	if err := s.repo.RevokeToken(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return apperr.Internal("error revoking token", err)
	}
	return nil
}

func (s *DefaultService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	account, err := s.repo.GetAccountByID(ctx, userID)
	if err != nil {
		return apperr.Internal("error getting user", err)
	}
	if account == nil {
		return apperr.NotFound("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return apperr.Internal("error hashing password", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hashedPassword)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("error updating password", err)
	}

	return nil
}

// Profile methods
func (s *DefaultService) GetProfile(ctx context.Context, userID string) (*models.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("error getting user", err)
	}
	if account == nil {
		return nil, apperr.NotFound("user not found")
	}
	return account, nil
}

func (s *DefaultService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidField("name", "name cannot be empty")
	}

	account, err := s.repo.UpdateAccountName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("error updating profile", err)
	}

	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
