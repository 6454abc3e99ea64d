package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeFixture struct {
	db      *gorm.DB
	store   *mocks.MockImageStore
	recipes *service.RecipeService
	ledger  *service.LedgerService
	author  *models.User
	flour   *models.Ingredient
	sugar   *models.Ingredient
	tag     *models.Tag
}

func setupRecipeService(t *testing.T) *recipeFixture {
	db := testhelpers.SetupSQLite(t)
	store := &mocks.MockImageStore{}
	store.On("Save", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "recipes/images/") && strings.HasSuffix(key, ".png")
	}), "image/png", mock.Anything).Return("https://cdn.example.com/recipe.png", nil)

	ledger := service.NewLedgerService(db)
	subscriptions := service.NewSubscriptionService(db)

	return &recipeFixture{
		db:      db,
		store:   store,
		recipes: service.NewRecipeService(db, service.NewImageService(store), ledger, subscriptions),
		ledger:  ledger,
		author:  testhelpers.CreateUser(t, db, "author"),
		flour:   testhelpers.CreateIngredient(t, db, "flour", "g"),
		sugar:   testhelpers.CreateIngredient(t, db, "sugar", "g"),
		tag:     testhelpers.CreateTag(t, db, "Dessert", "dessert"),
	}
}

func (f *recipeFixture) request() *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        "Shortbread",
		Image:       testhelpers.PNGDataURI(),
		Text:        "Rub, press, bake.",
		CookingTime: 40,
		Tags:        []uint{f.tag.ID},
		Ingredients: []types.IngredientAmount{
			{ID: f.flour.ID, Amount: 300},
			{ID: f.sugar.ID, Amount: 100},
		},
	}
}

func TestCreateRecipeStoresEverything(t *testing.T) {
	f := setupRecipeService(t)

	view, err := f.recipes.CreateRecipe(context.Background(), types.AsUser(f.author.ID), f.request())
	require.NoError(t, err)

	r := view.Recipe
	assert.Equal(t, "Shortbread", r.Name)
	assert.Equal(t, "https://cdn.example.com/recipe.png", r.Image)
	assert.Equal(t, f.author.ID, r.Author.ID)
	require.Len(t, r.Tags, 1)
	assert.Equal(t, "dessert", r.Tags[0].Slug)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "flour", r.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 300, r.Ingredients[0].Amount)
	assert.False(t, view.IsFavorited)
	f.store.AssertExpectations(t)
}

func TestCreateRecipeRollsBackOnBadTag(t *testing.T) {
	f := setupRecipeService(t)
	req := f.request()
	req.Tags = []uint{f.tag.ID, f.tag.ID + 50}

	_, err := f.recipes.CreateRecipe(context.Background(), types.AsUser(f.author.ID), req)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	var recipes, rows int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, f.db.Model(&models.IngredientInRecipe{}).Count(&rows).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, rows)
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRecipeLeavesNoImageBehind(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	media := t.TempDir()
	recipes := service.NewRecipeService(f.db, service.NewImageService(service.NewLocalImageStore(media, "/media/")),
		f.ledger, service.NewSubscriptionService(f.db))
	requester := types.AsUser(f.author.ID)

	unknownTag := f.request()
	unknownTag.Tags = []uint{999}
	_, err := recipes.CreateRecipe(ctx, requester, unknownTag)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	unknownIngredient := f.request()
	unknownIngredient.Ingredients = []types.IngredientAmount{{ID: 999, Amount: 1}}
	_, err = recipes.CreateRecipe(ctx, requester, unknownIngredient)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	testhelpers.BeforeCreate(t, f.db, "recipes", func(*gorm.DB, *gorm.Statement) error {
		return errors.New("connection reset")
	})
	_, err = recipes.CreateRecipe(ctx, requester, f.request())
	require.Error(t, err)
	assert.Equal(t, service.KindInternal, service.KindOf(err))

	assert.Empty(t, mediaFiles(t, media))
}

func TestUpdateRecipeDiscardsImageOnFailure(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	requester := types.AsUser(f.author.ID)

	created, err := f.recipes.CreateRecipe(ctx, requester, f.request())
	require.NoError(t, err)

	var discarded string
	f.store.On("Delete", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		discarded = args.String(1)
	}).Return(nil)
	testhelpers.BeforeCreate(t, f.db, "ingredient_in_recipes", func(*gorm.DB, *gorm.Statement) error {
		return errors.New("connection reset")
	})

	_, err = f.recipes.UpdateRecipe(ctx, requester, created.Recipe.ID, f.request())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(discarded, "recipes/images/"), discarded)
	f.store.AssertNumberOfCalls(t, "Save", 2)

	got, err := f.recipes.GetRecipe(ctx, requester, created.Recipe.ID)
	require.NoError(t, err)
	assert.Len(t, got.Recipe.Ingredients, 2)
}

func TestCreateRecipeLosesIngredientRace(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

	// another writer stores the first ingredient row of the new recipe first
	testhelpers.BeforeCreate(t, f.db, "ingredient_in_recipes", func(conn *gorm.DB, stmt *gorm.Statement) error {
		rows := *stmt.Dest.(*[]models.IngredientInRecipe)
		return conn.Exec("INSERT INTO ingredient_in_recipes (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)",
			rows[0].RecipeID, rows[0].IngredientID, 1).Error
	})

	_, err := f.recipes.CreateRecipe(ctx, types.AsUser(f.author.ID), f.request())
	require.Error(t, err)
	assert.Equal(t, service.KindValidation, service.KindOf(err))
	f.store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)

	var recipes int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&recipes).Error)
	assert.Zero(t, recipes)
}

func TestCreateRecipeRejectsNonImage(t *testing.T) {
	f := setupRecipeService(t)
	req := f.request()
	req.Image = "data:text/plain;base64,aGVsbG8gd29ybGQ="

	_, err := f.recipes.CreateRecipe(context.Background(), types.AsUser(f.author.ID), req)
	assert.Equal(t, service.KindValidation, service.KindOf(err))
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRecipeAnonymous(t *testing.T) {
	f := setupRecipeService(t)

	_, err := f.recipes.CreateRecipe(context.Background(), types.Anonymous, f.request())
	assert.Equal(t, service.KindUnauthenticated, service.KindOf(err))
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	requester := types.AsUser(f.author.ID)

	created, err := f.recipes.CreateRecipe(ctx, requester, f.request())
	require.NoError(t, err)

	milk := testhelpers.CreateIngredient(t, f.db, "milk", "ml")
	req := f.request()
	req.Image = ""
	req.Tags = nil
	req.Ingredients = []types.IngredientAmount{{ID: milk.ID, Amount: 250}}

	updated, err := f.recipes.UpdateRecipe(ctx, requester, created.Recipe.ID, req)
	require.NoError(t, err)
	assert.Empty(t, updated.Recipe.Tags)
	require.Len(t, updated.Recipe.Ingredients, 1)
	assert.Equal(t, "milk", updated.Recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, created.Recipe.Image, updated.Recipe.Image)
	assert.True(t, created.Recipe.CreatedAt.Equal(updated.Recipe.CreatedAt))

	var links int64
	require.NoError(t, f.db.Table("recipe_tags").Where("recipe_id = ?", created.Recipe.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestUpdateRecipeByOtherUser(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	other := testhelpers.CreateUser(t, f.db, "other")

	created, err := f.recipes.CreateRecipe(ctx, types.AsUser(f.author.ID), f.request())
	require.NoError(t, err)

	_, err = f.recipes.UpdateRecipe(ctx, types.AsUser(other.ID), created.Recipe.ID, f.request())
	assert.Equal(t, service.KindPermissionDenied, service.KindOf(err))

	err = f.recipes.DeleteRecipe(ctx, types.AsUser(other.ID), created.Recipe.ID)
	assert.Equal(t, service.KindPermissionDenied, service.KindOf(err))

	_, err = f.recipes.UpdateRecipe(ctx, types.AsUser(other.ID), created.Recipe.ID+10, f.request())
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestDeleteRecipeCascades(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	requester := types.AsUser(f.author.ID)

	created, err := f.recipes.CreateRecipe(ctx, requester, f.request())
	require.NoError(t, err)
	_, err = f.ledger.Add(ctx, service.ShoppingCart, requester, created.Recipe.ID)
	require.NoError(t, err)

	require.NoError(t, f.recipes.DeleteRecipe(ctx, requester, created.Recipe.ID))

	for _, model := range []interface{}{&models.Recipe{}, &models.IngredientInRecipe{}, &models.ShoppingCart{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	var tags int64
	require.NoError(t, f.db.Model(&models.Tag{}).Count(&tags).Error)
	assert.EqualValues(t, 1, tags)
}

func TestGetRecipeAnnotatesRequester(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	reader := testhelpers.CreateUser(t, f.db, "reader")

	created, err := f.recipes.CreateRecipe(ctx, types.AsUser(f.author.ID), f.request())
	require.NoError(t, err)
	_, err = f.ledger.Add(ctx, service.Favorite, types.AsUser(reader.ID), created.Recipe.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&models.Follow{UserID: reader.ID, AuthorID: f.author.ID}).Error)

	view, err := f.recipes.GetRecipe(ctx, types.AsUser(reader.ID), created.Recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
	assert.True(t, view.AuthorSubscribed)

	view, err = f.recipes.GetRecipe(ctx, types.Anonymous, created.Recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.AuthorSubscribed)
}

func TestListRecipesNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	items := []testhelpers.RecipeItem{{Ingredient: f.flour, Amount: 1}}
	first := testhelpers.CreateRecipe(t, f.db, f.author, "first", items)
	second := testhelpers.CreateRecipe(t, f.db, f.author, "second", items)

	views, total, err := f.recipes.ListRecipes(ctx, types.Anonymous, types.RecipeFilter{}, types.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].Recipe.ID)
	assert.Equal(t, first.ID, views[1].Recipe.ID)

	inCart := false
	views, _, err = f.recipes.ListRecipes(ctx, types.Anonymous, types.RecipeFilter{IsInShoppingCart: &inCart}, types.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestListRecipesFlagQueriesDoNotGrowWithPage(t *testing.T) {
	ctx := context.Background()
	f := setupRecipeService(t)
	reader := testhelpers.CreateUser(t, f.db, "reader")
	requester := types.AsUser(reader.ID)
	items := []testhelpers.RecipeItem{{Ingredient: f.flour, Amount: 1}}

	counter := testhelpers.CountQueries(t, f.db)
	listQueries := func(want int) int {
		t.Helper()
		*counter = 0
		views, _, err := f.recipes.ListRecipes(ctx, requester, types.RecipeFilter{}, types.Pagination{Page: 1, Limit: 50})
		require.NoError(t, err)
		require.Len(t, views, want)
		return *counter
	}

	for i := 0; i < 2; i++ {
		r := testhelpers.CreateRecipe(t, f.db, f.author, fmt.Sprintf("small-%d", i), items)
		_, err := f.ledger.Add(ctx, service.Favorite, requester, r.ID)
		require.NoError(t, err)
	}
	small := listQueries(2)

	for i := 0; i < 8; i++ {
		r := testhelpers.CreateRecipe(t, f.db, testhelpers.CreateUser(t, f.db, fmt.Sprintf("author-%d", i)), fmt.Sprintf("large-%d", i), items)
		_, err := f.ledger.Add(ctx, service.ShoppingCart, requester, r.ID)
		require.NoError(t, err)
	}
	large := listQueries(10)

	assert.Equal(t, small, large)
}

func mediaFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	})
	require.NoError(t, err)
	return files
}
