package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestMe(t *testing.T) {
	env := setupTestEnv(t)
	user := testhelpers.CreateUser(t, env.db, "cook")

	w := env.do(t, http.MethodGet, "/api/users/me/", env.token(t, user), nil)
	requireStatus(t, w, http.StatusOK)
	var resp types.UserResponse
	decode(t, w, &resp)
	assert.Equal(t, types.UserResponse{
		Email:     "cook@example.com",
		ID:        user.ID,
		Username:  "cook",
		FirstName: "Test",
		LastName:  "User",
	}, resp)

	requireStatus(t, env.do(t, http.MethodGet, "/api/users/me/", "", nil), http.StatusUnauthorized)
	requireStatus(t, env.do(t, http.MethodGet, "/api/users/me/", "garbage", nil), http.StatusUnauthorized)
}

func TestSubscribe(t *testing.T) {
	env := setupTestEnv(t)
	reader := testhelpers.CreateUser(t, env.db, "reader")
	author := testhelpers.CreateUser(t, env.db, "author")
	flour := testhelpers.CreateIngredient(t, env.db, "flour", "g")
	for i := 0; i < 3; i++ {
		testhelpers.CreateRecipe(t, env.db, author, fmt.Sprintf("bread-%d", i), []testhelpers.RecipeItem{{Ingredient: flour, Amount: 1}})
	}
	token := env.token(t, reader)
	path := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	w := env.do(t, http.MethodPost, path+"?recipes_limit=2", token, nil)
	requireStatus(t, w, http.StatusCreated)
	var followed types.FollowedAuthorResponse
	decode(t, w, &followed)
	assert.Equal(t, author.ID, followed.ID)
	assert.True(t, followed.IsSubscribed)
	assert.Len(t, followed.Recipes, 2)
	assert.EqualValues(t, 3, followed.RecipesCount)

	w = env.do(t, http.MethodPost, path, token, nil)
	requireStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), token, nil)
	requireStatus(t, w, http.StatusOK)
	var profile types.UserResponse
	decode(t, w, &profile)
	assert.True(t, profile.IsSubscribed)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/", author.ID), "", nil)
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &profile)
	assert.False(t, profile.IsSubscribed)

	requireStatus(t, env.do(t, http.MethodDelete, path, token, nil), http.StatusNoContent)
	requireStatus(t, env.do(t, http.MethodDelete, path, token, nil), http.StatusNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubscribeSelf(t *testing.T) {
	env := setupTestEnv(t)
	user := testhelpers.CreateUser(t, env.db, "narcissus")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", user.ID), env.token(t, user), nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "you cannot follow yourself", errorMessage(t, w))

	requireStatus(t, env.do(t, http.MethodPost, "/api/users/999/subscribe/", env.token(t, user), nil), http.StatusNotFound)
}

func TestListSubscriptions(t *testing.T) {
	env := setupTestEnv(t)
	reader := testhelpers.CreateUser(t, env.db, "reader")
	alice := testhelpers.CreateUser(t, env.db, "alice")
	bob := testhelpers.CreateUser(t, env.db, "bob")
	flour := testhelpers.CreateIngredient(t, env.db, "flour", "g")
	for i := 0; i < 4; i++ {
		testhelpers.CreateRecipe(t, env.db, alice, fmt.Sprintf("alice-%d", i), []testhelpers.RecipeItem{{Ingredient: flour, Amount: 1}})
	}
	testhelpers.CreateRecipe(t, env.db, bob, "bob-0", []testhelpers.RecipeItem{{Ingredient: flour, Amount: 1}})
	token := env.token(t, reader)

	for _, author := range []*models.User{alice, bob} {
		requireStatus(t, env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", author.ID), token, nil), http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/api/users/subscriptions/?recipes_limit=1", token, nil)
	requireStatus(t, w, http.StatusOK)

	var page struct {
		Count   int64                          `json:"count"`
		Results []types.FollowedAuthorResponse `json:"results"`
	}
	decode(t, w, &page)
	assert.EqualValues(t, 2, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, alice.ID, page.Results[0].ID)
	assert.Len(t, page.Results[0].Recipes, 1)
	assert.EqualValues(t, 4, page.Results[0].RecipesCount)
	assert.Equal(t, bob.ID, page.Results[1].ID)
	assert.EqualValues(t, 1, page.Results[1].RecipesCount)

	w = env.do(t, http.MethodGet, "/api/users/subscriptions/?recipes_limit=0", token, nil)
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &page)
	require.Len(t, page.Results, 2)
	assert.Empty(t, page.Results[0].Recipes)
	assert.EqualValues(t, 4, page.Results[0].RecipesCount)

	w = env.do(t, http.MethodGet, "/api/users/subscriptions/", token, nil)
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &page)
	require.Len(t, page.Results, 2)
	assert.Len(t, page.Results[0].Recipes, 4)

	requireStatus(t, env.do(t, http.MethodGet, "/api/users/subscriptions/?recipes_limit=-1", token, nil), http.StatusBadRequest)
}
