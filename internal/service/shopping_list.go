package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	ShoppingListFilename = "shopping_list.txt"
	shoppingListFooter   = "Foodgram"
)

// ShoppingListItem is the summed amount of one ingredient across the cart
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingListService aggregates the ingredients of a user's shopping cart
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Items sums ingredient amounts over every recipe in the user's cart,
// grouped by ingredient name and unit and ordered by name
func (s *ShoppingListService) Items(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("ingredient_in_recipes").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_in_recipes.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = ingredient_in_recipes.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = ingredient_in_recipes.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "aggregate shopping list")
	}
	return items, nil
}

// Export renders the requester's shopping list as a text document. An
// empty cart is a validation error.
func (s *ShoppingListService) Export(ctx context.Context, requester types.Requester) ([]byte, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	items, err := s.Items(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, Validation("shopping cart is empty")
	}
	return RenderShoppingList(items), nil
}

// RenderShoppingList writes one "name - amount unit" line per item, a
// blank line and the footer
func RenderShoppingList(items []ShoppingListItem) []byte {
	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s - %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	buf.WriteString("\n")
	buf.WriteString(shoppingListFooter)
	buf.WriteString("\n")
	return buf.Bytes()
}
