package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxRecipeNameLength = 200

// RecipeView is a recipe annotated relative to the requester
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeService handles recipe operations
type RecipeService struct {
	db            *gorm.DB
	images        *ImageService
	ledger        *LedgerService
	subscriptions *SubscriptionService
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images *ImageService, ledger *LedgerService, subscriptions *SubscriptionService) *RecipeService {
	return &RecipeService{
		db:            db,
		images:        images,
		ledger:        ledger,
		subscriptions: subscriptions,
	}
}

// CreateRecipe stores a recipe authored by the requester. The recipe row,
// its tags and its ingredient rows are written in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, requester types.Requester, req *types.RecipeRequest) (*RecipeView, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if err := validateRecipe(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Image) == "" {
		return nil, Validation("image is required")
	}

	if err := checkReferences(s.db.WithContext(ctx), req); err != nil {
		return nil, err
	}

	image, err := s.images.SaveBase64(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    requester.UserID,
		Name:        strings.TrimSpace(req.Name),
		Image:       image.URL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := findTags(tx, req.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, req.Ingredients); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return errors.Wrap(err, "create recipe")
		}
		if len(tags) > 0 {
			if err := tx.Model(&recipe).Association("Tags").Append(tags); err != nil {
				return errors.Wrap(err, "attach tags")
			}
		}
		return createIngredientRows(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		s.images.Discard(ctx, image)
		return nil, translateWriteError(err)
	}

	log.WithFields(log.Fields{"recipe_id": recipe.ID, "author_id": recipe.AuthorID}).Info("recipe created")
	return s.GetRecipe(ctx, requester, recipe.ID)
}

// UpdateRecipe replaces the fields, tag set and ingredient set of a recipe.
// Only the author may update; the creation timestamp is kept.
func (s *RecipeService) UpdateRecipe(ctx context.Context, requester types.Requester, id uint, req *types.RecipeRequest) (*RecipeView, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	recipe, err := s.ownedRecipe(ctx, requester, id, "update")
	if err != nil {
		return nil, err
	}
	if err := validateRecipe(req); err != nil {
		return nil, err
	}

	if err := checkReferences(s.db.WithContext(ctx), req); err != nil {
		return nil, err
	}

	imageURL := recipe.Image
	var uploaded *StoredImage
	if strings.TrimSpace(req.Image) != "" {
		if uploaded, err = s.images.SaveBase64(ctx, req.Image); err != nil {
			return nil, err
		}
		imageURL = uploaded.URL
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := findTags(tx, req.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, req.Ingredients); err != nil {
			return err
		}

		err = tx.Model(recipe).Updates(map[string]interface{}{
			"name":         strings.TrimSpace(req.Name),
			"image":        imageURL,
			"text":         req.Text,
			"cooking_time": req.CookingTime,
		}).Error
		if err != nil {
			return errors.Wrap(err, "update recipe")
		}

		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return errors.Wrap(err, "clear tags")
		}
		if len(tags) > 0 {
			if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
				return errors.Wrap(err, "attach tags")
			}
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientInRecipe{}).Error; err != nil {
			return errors.Wrap(err, "clear ingredients")
		}
		return createIngredientRows(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		s.images.Discard(ctx, uploaded)
		return nil, translateWriteError(err)
	}

	log.WithField("recipe_id", recipe.ID).Info("recipe updated")
	return s.GetRecipe(ctx, requester, recipe.ID)
}

// DeleteRecipe removes a recipe together with its ingredient rows, tag
// links and markers. Only the author may delete.
func (s *RecipeService) DeleteRecipe(ctx context.Context, requester types.Requester, id uint) error {
	if requester.IsAnonymous() {
		return ErrUnauthenticated
	}

	recipe, err := s.ownedRecipe(ctx, requester, id, "delete")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.IngredientInRecipe{}, &models.Favorite{}, &models.ShoppingCart{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return errors.Wrap(err, "delete recipe")
	}

	log.WithField("recipe_id", recipe.ID).Info("recipe deleted")
	return nil
}

// GetRecipe retrieves a recipe by ID annotated for the requester
func (s *RecipeService) GetRecipe(ctx context.Context, requester types.Requester, id uint) (*RecipeView, error) {
	var recipe models.Recipe
	if err := s.preloaded(ctx).First(&recipe, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("recipe")
		}
		return nil, errors.Wrap(err, "get recipe")
	}

	views, err := s.annotate(ctx, requester, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes matching filter, newest first.
// The boolean filters only match rows for an authenticated requester.
func (s *RecipeService) ListRecipes(ctx context.Context, requester types.Requester, filter types.RecipeFilter, page types.Pagination) ([]RecipeView, int64, error) {
	filtered := func() *gorm.DB {
		return applyRecipeFilter(s.db.WithContext(ctx).Model(&models.Recipe{}), requester, filter)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count recipes")
	}

	query := s.withPreloads(filtered()).Order("recipes.created_at DESC, recipes.id DESC")
	if page.Limit > 0 {
		query = query.Limit(page.Limit).Offset(page.Offset())
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list recipes")
	}

	views, err := s.annotate(ctx, requester, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func applyRecipeFilter(query *gorm.DB, requester types.Requester, filter types.RecipeFilter) *gorm.DB {
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_tags.recipe_id FROM recipe_tags JOIN tags ON tags.id = recipe_tags.tag_id WHERE tags.slug IN ?)",
			filter.TagSlugs,
		)
	}
	query = applyMarkerFilter(query, requester, "favorites", filter.IsFavorited)
	query = applyMarkerFilter(query, requester, "shopping_carts", filter.IsInShoppingCart)
	return query
}

// applyMarkerFilter keeps recipes the requester has (or has not) marked.
// Anonymous requesters have no markers, so true matches nothing and false
// matches everything.
func applyMarkerFilter(query *gorm.DB, requester types.Requester, table string, want *bool) *gorm.DB {
	if want == nil {
		return query
	}
	if requester.IsAnonymous() {
		if *want {
			return query.Where("1 = 0")
		}
		return query
	}

	sub := "recipes.id IN (SELECT recipe_id FROM " + table + " WHERE user_id = ?)"
	if !*want {
		sub = "recipes.id NOT IN (SELECT recipe_id FROM " + table + " WHERE user_id = ?)"
	}
	return query.Where(sub, requester.UserID)
}

// annotate computes the requester-relative flags for a whole page with one
// query per flag
func (s *RecipeService) annotate(ctx context.Context, requester types.Requester, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.ledger.MarkedRecipeIDs(ctx, Favorite, requester, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.ledger.MarkedRecipeIDs(ctx, ShoppingCart, requester, recipeIDs)
	if err != nil {
		return nil, err
	}
	followed, err := s.subscriptions.FollowedAuthorIDs(ctx, requester, authorIDs)
	if err != nil {
		return nil, err
	}

	for i, r := range recipes {
		views[i] = RecipeView{
			Recipe:           r,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorSubscribed: followed[r.AuthorID],
		}
	}
	return views, nil
}

func (s *RecipeService) preloaded(ctx context.Context) *gorm.DB {
	return s.withPreloads(s.db.WithContext(ctx))
}

func (s *RecipeService) withPreloads(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_in_recipes.id ASC") }).
		Preload("Ingredients.Ingredient")
}

func (s *RecipeService) ownedRecipe(ctx context.Context, requester types.Requester, id uint, action string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("recipe")
		}
		return nil, errors.Wrap(err, "get recipe")
	}
	if recipe.AuthorID != requester.UserID {
		return nil, PermissionDenied("only the author can " + action + " this recipe")
	}
	return &recipe, nil
}

func validateRecipe(req *types.RecipeRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxRecipeNameLength {
		return Validation("name must be at most %d characters", maxRecipeNameLength)
	}
	if strings.TrimSpace(req.Text) == "" {
		return Validation("text is required")
	}
	if req.CookingTime < 1 {
		return Validation("cooking_time must be at least 1 minute")
	}
	if len(req.Ingredients) == 0 {
		return Validation("ingredients must not be empty")
	}

	seen := make(map[uint]bool, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if item.Amount < 1 {
			return Validation("ingredient amount must be at least 1")
		}
		if seen[item.ID] {
			return Validation("ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true
	}

	seenTags := make(map[uint]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return Validation("tag %d is listed more than once", id)
		}
		seenTags[id] = true
	}
	return nil
}

// checkReferences rejects unknown tags and ingredients before anything is
// uploaded. The transaction repeats the checks against concurrent deletes.
func checkReferences(db *gorm.DB, req *types.RecipeRequest) error {
	if _, err := findTags(db, req.Tags); err != nil {
		return err
	}
	return checkIngredients(db, req.Ingredients)
}

func findTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "load tags")
	}
	if len(tags) != len(ids) {
		return nil, Validation("unknown tag in tags")
	}
	return tags, nil
}

func checkIngredients(tx *gorm.DB, items []types.IngredientAmount) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check ingredients")
	}
	if count != int64(len(ids)) {
		return Validation("unknown ingredient in ingredients")
	}
	return nil
}

func createIngredientRows(tx *gorm.DB, recipeID uint, items []types.IngredientAmount) error {
	rows := make([]models.IngredientInRecipe, len(items))
	for i, item := range items {
		rows[i] = models.IngredientInRecipe{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return errors.Wrap(err, "create ingredient rows")
	}
	return nil
}

// translateWriteError turns a unique violation that slipped past the
// checks above into a validation error
func translateWriteError(err error) error {
	if KindOf(err) != KindInternal {
		return err
	}
	if isUniqueViolation(err) {
		return Validation("recipe lists the same ingredient more than once")
	}
	return err
}
