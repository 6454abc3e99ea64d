package types

// IngredientAmount is one entry of a recipe's ingredient list
type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the body of recipe create and update calls. Image is a
// base64 data URI and may be omitted on update to keep the current one.
type RecipeRequest struct {
	Name        string             `json:"name" binding:"required"`
	Image       string             `json:"image"`
	Text        string             `json:"text" binding:"required"`
	CookingTime int                `json:"cooking_time"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,dive"`
}

// RecipeFilter holds the recipe listing filters. A nil boolean filter is
// not applied.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      *bool
	IsInShoppingCart *bool
}

// Pagination selects one page of a listing; Page starts at 1
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the page
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CreateUserRequest carries the fields needed to register a user
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}
