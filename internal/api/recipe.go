package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes      service.IRecipeService
	ledger       service.ILedgerService
	shoppingList service.IShoppingListService
	pageSize     int
}

func NewRecipeHandler(recipes service.IRecipeService, ledger service.ILedgerService, shoppingList service.IShoppingListService, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipes:      recipes,
		ledger:       ledger,
		shoppingList: shoppingList,
		pageSize:     pageSize,
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := pagination(c, h.pageSize)
	if !ok {
		return
	}

	filter := types.RecipeFilter{TagSlugs: c.QueryArray("tags")}
	if v := c.Query("author"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "author must be a user id"})
			return
		}
		filter.AuthorID = uint(id)
	}
	if filter.IsFavorited, ok = queryBool(c, "is_favorited"); !ok {
		return
	}
	if filter.IsInShoppingCart, ok = queryBool(c, "is_in_shopping_cart"); !ok {
		return
	}

	views, total, err := h.recipes.ListRecipes(c.Request.Context(), middleware.GetRequester(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(c, total, page, recipeResponses(views)))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.recipes.GetRecipe(c.Request.Context(), middleware.GetRequester(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeResponse(*view))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.GetRequester(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipeResponse(*view))
}

// UpdateRecipe serves both PUT and PATCH; the ingredient and tag lists are
// always replaced as a whole
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.GetRequester(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeResponse(*view))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.GetRequester(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMarker returns a handler that adds a favorite or shopping cart marker
func (h *RecipeHandler) AddMarker(kind service.MarkerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		recipe, err := h.ledger.Add(c.Request.Context(), kind, middleware.GetRequester(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, shortRecipeResponse(*recipe))
	}
}

// RemoveMarker returns a handler that removes a favorite or shopping cart marker
func (h *RecipeHandler) RemoveMarker(kind service.MarkerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		if err := h.ledger.Remove(c.Request.Context(), kind, middleware.GetRequester(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	body, err := h.shoppingList.Export(c.Request.Context(), middleware.GetRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+service.ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}
