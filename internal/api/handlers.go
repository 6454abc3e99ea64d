package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch service.KindOf(err) {
	case service.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case service.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case service.KindPermissionDenied:
		status, message = http.StatusForbidden, err.Error()
	case service.KindUnauthenticated:
		status, message = http.StatusUnauthorized, err.Error()
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// pathID parses a positive numeric path parameter. Anything else cannot
// name an existing row, so it is answered with 404.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}

// pagination reads the page and limit query parameters
func pagination(c *gin.Context, defaultLimit int) (types.Pagination, bool) {
	page := types.Pagination{Page: 1, Limit: defaultLimit}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return page, false
		}
		page.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return page, false
		}
		page.Limit = n
	}
	if page.Limit > maxPageSize {
		page.Limit = maxPageSize
	}
	return page, true
}

// pageResponse wraps results with the count and neighbour page links
func pageResponse(c *gin.Context, total int64, page types.Pagination, results interface{}) types.PageResponse {
	resp := types.PageResponse{Count: total, Results: results}
	if int64(page.Page*page.Limit) < total {
		next := pageURL(c, page.Page+1)
		resp.Next = &next
	}
	if page.Page > 1 {
		prev := pageURL(c, page.Page-1)
		resp.Previous = &prev
	}
	return resp
}

func pageURL(c *gin.Context, page int) string {
	u := url.URL{Path: c.Request.URL.Path}
	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	u.Scheme = scheme
	u.Host = c.Request.Host
	return u.String()
}

// queryBool parses the 0/1 style boolean filters; an absent parameter is nil
func queryBool(c *gin.Context, name string) (*bool, bool) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be 0 or 1"})
		return nil, false
	}
	return &b, true
}

// recipesLimit reads the recipes_limit parameter; without it every recipe is listed
func recipesLimit(c *gin.Context) (int, bool) {
	v := c.Query("recipes_limit")
	if v == "" {
		return service.NoRecipesLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "recipes_limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}
