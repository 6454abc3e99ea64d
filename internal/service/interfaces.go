package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the token operations the HTTP layer relies on
type IAuthService interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, requester types.Requester, req *types.RecipeRequest) (*RecipeView, error)
	UpdateRecipe(ctx context.Context, requester types.Requester, id uint, req *types.RecipeRequest) (*RecipeView, error)
	DeleteRecipe(ctx context.Context, requester types.Requester, id uint) error
	GetRecipe(ctx context.Context, requester types.Requester, id uint) (*RecipeView, error)
	ListRecipes(ctx context.Context, requester types.Requester, filter types.RecipeFilter, page types.Pagination) ([]RecipeView, int64, error)
}

// ILedgerService defines the favorite and shopping cart marker operations
type ILedgerService interface {
	Add(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) (*models.Recipe, error)
	Remove(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) error
	IsMarked(ctx context.Context, kind MarkerKind, requester types.Requester, recipeID uint) (bool, error)
}

// IShoppingListService defines the shopping list export
type IShoppingListService interface {
	Items(ctx context.Context, userID uint) ([]ShoppingListItem, error)
	Export(ctx context.Context, requester types.Requester) ([]byte, error)
}

// ISubscriptionService defines the follow operations
type ISubscriptionService interface {
	Follow(ctx context.Context, requester types.Requester, authorID uint, recipesLimit int) (*FollowedAuthor, error)
	Unfollow(ctx context.Context, requester types.Requester, authorID uint) error
	ListFollowed(ctx context.Context, requester types.Requester, page types.Pagination, recipesLimit int) ([]FollowedAuthor, int64, error)
	IsSubscribed(ctx context.Context, requester types.Requester, authorID uint) (bool, error)
}

// ICatalogService defines the tag and ingredient reads
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IUserService defines the user directory reads
type IUserService interface {
	GetUser(ctx context.Context, requester types.Requester, id uint) (*UserView, error)
	Me(ctx context.Context, requester types.Requester) (*UserView, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ ILedgerService       = (*LedgerService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ ISubscriptionService = (*SubscriptionService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ ImageStore           = (*S3ImageStore)(nil)
	_ ImageStore           = (*LocalImageStore)(nil)
)
