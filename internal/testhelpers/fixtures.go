package testhelpers

import (
	"encoding/base64"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// pngHeader is enough of a PNG for content sniffing
var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

// PNGDataURI returns a base64 data URI carrying a tiny PNG
func PNGDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

// CreateUser inserts a user named username
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateIngredient inserts an ingredient
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ingredient
}

// CreateTag inserts a tag whose color is derived from slug
func CreateTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	var count int64
	db.Model(&models.Tag{}).Count(&count)
	tag := &models.Tag{Name: name, Slug: slug, Color: fmt.Sprintf("#%06X", 0x100000+count)}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

// RecipeItem is an ingredient and amount for CreateRecipe
type RecipeItem struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe by author with the given ingredients and
// tags directly, bypassing the service layer
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, items []RecipeItem, tags ...*models.Tag) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/images/" + name + ".png",
		Text:        "Mix and cook.",
		CookingTime: 10,
	}
	if err := db.Omit("Author", "Tags", "Ingredients").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	for _, item := range items {
		row := &models.IngredientInRecipe{RecipeID: recipe.ID, IngredientID: item.Ingredient.ID, Amount: item.Amount}
		if err := db.Omit("Ingredient").Create(row).Error; err != nil {
			t.Fatalf("failed to add ingredient to %s: %v", name, err)
		}
	}
	if len(tags) > 0 {
		list := make([]models.Tag, len(tags))
		for i, tag := range tags {
			list[i] = *tag
		}
		if err := db.Model(recipe).Association("Tags").Append(list); err != nil {
			t.Fatalf("failed to tag %s: %v", name, err)
		}
	}
	return recipe
}
