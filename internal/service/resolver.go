package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCategoryColor is used for categories created without a color
	DefaultCategoryColor = "#6366F1"
	// DefaultCategoryIcon is used for categories created without an icon
	DefaultCategoryIcon = "tag"
	// MaxCategoryNameLength matches the width of the stored name columns
	MaxCategoryNameLength = 100
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CategoryResolver turns a client supplied category reference (an id, a
// slug such as "food-groceries", or a free-text name) into a category the
// owner is allowed to use, creating an owned category when nothing matches.
type CategoryResolver struct {
	repo   repository.Repository
	logger *logrus.Logger
}

// NewCategoryResolver creates a CategoryResolver
func NewCategoryResolver(repo repository.Repository, logger *logrus.Logger) *CategoryResolver {
	return &CategoryResolver{repo: repo, logger: logger}
}

// Resolve returns the matching category, or nil when the reference cannot be
// resolved. A category owned by another account is never returned. A name
// too long to store is reported as a validation error.
func (r *CategoryResolver) Resolve(
	ctx context.Context,
	owner string,
	categoryRef string,
	categoryName string,
	createIfMissing bool,
) (*models.Category, error) {
	categoryRef = strings.TrimSpace(categoryRef)
	categoryName = strings.TrimSpace(categoryName)

	if repository.IsIdentifier(categoryRef) {
		category, err := r.repo.GetVisibleCategory(ctx, owner, categoryRef)
		if err != nil {
			return nil, fmt.Errorf("error getting category by id: %w", err)
		}
		if category != nil {
			return category, nil
		}
	}

	if categoryName != "" {
		category, err := r.repo.FindVisibleCategoryByName(ctx, owner, categoryName)
		if err != nil {
			return nil, fmt.Errorf("error getting category by name: %w", err)
		}
		if category != nil {
			return category, nil
		}
	}

	if !createIfMissing {
		return nil, nil
	}

	name := categoryName
	if name == "" {
		name = SlugToName(categoryRef)
		if name == "" {
			return nil, nil
		}

		// The slug may name a category that already exists.
		category, err := r.repo.FindVisibleCategoryByName(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("error getting category by name: %w", err)
		}
		if category != nil {
			return category, nil
		}
	}

	return r.create(ctx, owner, name)
}

func (r *CategoryResolver) create(ctx context.Context, owner, name string) (*models.Category, error) {
	if err := checkCategoryName("category_name", name); err != nil {
		return nil, err
	}

	ownerID := owner
	category := &models.Category{
		Name:      name,
		Color:     DefaultCategoryColor,
		Icon:      DefaultCategoryIcon,
		IsDefault: false,
		UserID:    &ownerID,
	}

	err := r.repo.CreateCategory(ctx, category)
	if errors.Is(err, repository.ErrConflict) {
		// Another request created it between our read and write.
		existing, findErr := r.repo.FindVisibleCategoryByName(ctx, owner, name)
		if findErr != nil {
			return nil, fmt.Errorf("error re-reading category after conflict: %w", findErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"userId":     owner,
		"categoryId": category.ID,
		"name":       category.Name,
	}).Info("Category created during resolution")

	return category, nil
}

func checkCategoryName(field, name string) error {
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return apperr.InvalidField(field, fmt.Sprintf("category name must be at most %d characters", MaxCategoryNameLength))
	}
	return nil
}

// SlugToName converts a slug like "food-groceries" into "Food Groceries".
// It returns "" for anything that is not a slug, including identifiers.
func SlugToName(ref string) string {
	if !slugPattern.MatchString(ref) || repository.IsIdentifier(ref) {
		return ""
	}

	words := strings.Split(ref, "-")
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}

	return strings.Join(words, " ")
}
