package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves user profiles and subscriptions
type UserHandler struct {
	users         service.IUserService
	subscriptions service.ISubscriptionService
	pageSize      int
}

func NewUserHandler(users service.IUserService, subscriptions service.ISubscriptionService, pageSize int) *UserHandler {
	return &UserHandler{
		users:         users,
		subscriptions: subscriptions,
		pageSize:      pageSize,
	}
}

func (h *UserHandler) Me(c *gin.Context) {
	view, err := h.users.Me(c.Request.Context(), middleware.GetRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(view.User, view.IsSubscribed))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.users.GetUser(c.Request.Context(), middleware.GetRequester(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(view.User, view.IsSubscribed))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}

	followed, err := h.subscriptions.Follow(c.Request.Context(), middleware.GetRequester(c), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, followedAuthorResponse(*followed))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.subscriptions.Unfollow(c.Request.Context(), middleware.GetRequester(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	page, ok := pagination(c, h.pageSize)
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}

	followed, total, err := h.subscriptions.ListFollowed(c.Request.Context(), middleware.GetRequester(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.FollowedAuthorResponse, len(followed))
	for i, f := range followed {
		results[i] = followedAuthorResponse(f)
	}
	c.JSON(http.StatusOK, pageResponse(c, total, page, results))
}
