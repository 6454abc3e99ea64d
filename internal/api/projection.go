package api

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func tagResponse(tag models.Tag) types.TagResponse {
	return types.TagResponse{
		ID:    tag.ID,
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}

func tagResponses(tags []models.Tag) []types.TagResponse {
	out := make([]types.TagResponse, len(tags))
	for i, tag := range tags {
		out[i] = tagResponse(tag)
	}
	return out
}

func ingredientResponse(ingredient models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func userResponse(user models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

// recipeResponse is the full recipe view
func recipeResponse(view service.RecipeView) types.RecipeResponse {
	r := view.Recipe

	ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
	for i, item := range r.Ingredients {
		ingredients[i] = types.RecipeIngredientResponse{
			ID:              item.IngredientID,
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		}
	}

	return types.RecipeResponse{
		ID:               r.ID,
		Tags:             tagResponses(r.Tags),
		Author:           userResponse(r.Author, view.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      view.IsFavorited,
		IsInShoppingCart: view.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func recipeResponses(views []service.RecipeView) []types.RecipeResponse {
	out := make([]types.RecipeResponse, len(views))
	for i, view := range views {
		out[i] = recipeResponse(view)
	}
	return out
}

// shortRecipeResponse is the compact view returned by markers and subscriptions
func shortRecipeResponse(r models.Recipe) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// followedAuthorResponse is always subscribed: the requester follows the author
func followedAuthorResponse(f service.FollowedAuthor) types.FollowedAuthorResponse {
	recipes := make([]types.ShortRecipeResponse, len(f.Recipes))
	for i, r := range f.Recipes {
		recipes[i] = shortRecipeResponse(r)
	}
	return types.FollowedAuthorResponse{
		UserResponse: userResponse(f.Author, true),
		Recipes:      recipes,
		RecipesCount: f.RecipesCount,
	}
}
