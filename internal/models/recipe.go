package models

import "time"

// Recipe is owned by its Author. Tags and Ingredients are replaced
// wholesale on update.
type Recipe struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	AuthorID    uint                 `gorm:"not null;index" json:"author_id"`
	Author      User                 `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Name        string               `gorm:"size:200;not null" json:"name"`
	Image       string               `gorm:"size:255;not null" json:"image"`
	Text        string               `gorm:"type:text;not null" json:"text"`
	CookingTime int                  `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1" json:"cooking_time"`
	Tags        []Tag                `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []IngredientInRecipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt   time.Time            `gorm:"index" json:"created_at"`
}

// IngredientInRecipe is the join row between a recipe and an ingredient
// carrying the amount. A recipe lists each ingredient at most once.
type IngredientInRecipe struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       int        `gorm:"not null;check:chk_ingredient_amount,amount >= 1" json:"amount"`
}
