package service

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MarkerKind selects one of the per-user recipe marker relations
type MarkerKind string

const (
	Favorite     MarkerKind = "favorite"
	ShoppingCart MarkerKind = "shopping_cart"
)

func (k MarkerKind) table() string {
	if k == ShoppingCart {
		return "shopping_carts"
	}
	return "favorites"
}

func (k MarkerKind) model(userID, recipeID uint) interface{} {
	if k == ShoppingCart {
		return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (k MarkerKind) listName() string {
	if k == ShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

// LedgerService manages the favorite and shopping cart markers
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Add marks recipeID for the requester and returns the recipe
func (s *LedgerService) Add(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) (*models.Recipe, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	marked, err := s.IsMarked(ctx, kind, requester, recipeID)
	if err != nil {
		return nil, err
	}
	if marked {
		return nil, Validation("recipe already added to %s", kind.listName())
	}

	if err := s.db.WithContext(ctx).Create(kind.model(requester.UserID, recipeID)).Error; err != nil {
		// a concurrent add won the race
		if isUniqueViolation(err) {
			return nil, Validation("recipe already added to %s", kind.listName())
		}
		return nil, errors.Wrapf(err, "add %s marker", kind)
	}

	return recipe, nil
}

// Remove deletes the requester's marker on recipeID. Removing a marker
// that does not exist is NotFound.
func (s *LedgerService) Remove(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) error {
	if requester.IsAnonymous() {
		return ErrUnauthenticated
	}

	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", requester.UserID, recipeID).
		Delete(kind.model(0, 0))
	if result.Error != nil {
		return errors.Wrapf(result.Error, "remove %s marker", kind)
	}
	if result.RowsAffected == 0 {
		return &Error{Kind: KindNotFound, Message: "recipe is not in " + kind.listName()}
	}
	return nil
}

// IsMarked reports whether the requester marked recipeID; always false for anonymous
func (s *LedgerService) IsMarked(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) (bool, error) {
	if requester.IsAnonymous() {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Table(kind.table()).
		Where("user_id = ? AND recipe_id = ?", requester.UserID, recipeID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "check %s marker", kind)
	}
	return count > 0, nil
}

// MarkedRecipeIDs returns which of recipeIDs the requester marked, in one query
func (s *LedgerService) MarkedRecipeIDs(ctx context.Context, kind MarkerKind, requester types.Requester, recipeIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool)
	if requester.IsAnonymous() || len(recipeIDs) == 0 {
		return marked, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Table(kind.table()).
		Where("user_id = ? AND recipe_id IN ?", requester.UserID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load %s markers", kind)
	}
	for _, id := range ids {
		marked[id] = true
	}
	return marked, nil
}

func (s *LedgerService) recipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("recipe")
		}
		return nil, errors.Wrap(err, "get recipe")
	}
	return &recipe, nil
}
