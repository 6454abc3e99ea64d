package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services are the domain services behind the routes
type Services struct {
	Auth          service.IAuthService
	Recipes       service.IRecipeService
	Ledger        service.ILedgerService
	ShoppingList  service.IShoppingListService
	Subscriptions service.ISubscriptionService
	Catalog       service.ICatalogService
	Users         service.IUserService
}

// Options tune the router. A nil Redis disables rate limiting and a nil
// Registry leaves /metrics unmounted.
type Options struct {
	CORSOrigins []string
	PageSize    int
	MediaURL    string
	MediaDir    string
	Redis       *redis.Client
	Registry    *prometheus.Registry
	Logger      logrus.FieldLogger
}

// SetupRouter configures the application routes
func SetupRouter(svc Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(opts.CORSOrigins))

	if opts.Registry != nil {
		metrics := middleware.NewMetrics()
		opts.Registry.MustRegister(metrics.PrometheusCollectors()...)
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	router.GET("/health", api.HealthCheck)
	if opts.MediaDir != "" && opts.MediaURL != "" {
		router.Static(opts.MediaURL, opts.MediaDir)
	}

	recipeHandler := api.NewRecipeHandler(svc.Recipes, svc.Ledger, svc.ShoppingList, opts.PageSize)
	catalogHandler := api.NewCatalogHandler(svc.Catalog)
	userHandler := api.NewUserHandler(svc.Users, svc.Subscriptions, opts.PageSize)

	requireAuth := middleware.AuthMiddleware(svc.Auth)
	optionalAuth := middleware.OptionalAuthMiddleware(svc.Auth)
	creationLimit := middleware.NewRecipeCreationRateLimiter(opts.Redis).Middleware()
	modificationLimit := middleware.NewRecipeModificationRateLimiter(opts.Redis).Middleware()

	apiGroup := router.Group("/api")

	tags := apiGroup.Group("/tags")
	{
		tags.GET("/", catalogHandler.ListTags)
		tags.GET("/:id/", catalogHandler.GetTag)
	}

	ingredients := apiGroup.Group("/ingredients")
	{
		ingredients.GET("/", catalogHandler.ListIngredients)
		ingredients.GET("/:id/", catalogHandler.GetIngredient)
	}

	recipes := apiGroup.Group("/recipes")
	{
		recipes.GET("/", optionalAuth, recipeHandler.ListRecipes)
		recipes.POST("/", requireAuth, creationLimit, recipeHandler.CreateRecipe)
		recipes.GET("/download_shopping_cart/", requireAuth, recipeHandler.DownloadShoppingCart)
		recipes.GET("/:id/", optionalAuth, recipeHandler.GetRecipe)
		recipes.PUT("/:id/", requireAuth, modificationLimit, recipeHandler.UpdateRecipe)
		recipes.PATCH("/:id/", requireAuth, modificationLimit, recipeHandler.UpdateRecipe)
		recipes.DELETE("/:id/", requireAuth, modificationLimit, recipeHandler.DeleteRecipe)

		recipes.POST("/:id/favorite/", requireAuth, recipeHandler.AddMarker(service.Favorite))
		recipes.DELETE("/:id/favorite/", requireAuth, recipeHandler.RemoveMarker(service.Favorite))
		recipes.POST("/:id/shopping_cart/", requireAuth, recipeHandler.AddMarker(service.ShoppingCart))
		recipes.DELETE("/:id/shopping_cart/", requireAuth, recipeHandler.RemoveMarker(service.ShoppingCart))
	}

	users := apiGroup.Group("/users")
	{
		users.GET("/me/", requireAuth, userHandler.Me)
		users.GET("/subscriptions/", requireAuth, userHandler.ListSubscriptions)
		users.GET("/:id/", optionalAuth, userHandler.GetUser)
		users.POST("/:id/subscribe/", requireAuth, userHandler.Subscribe)
		users.DELETE("/:id/subscribe/", requireAuth, userHandler.Unsubscribe)
	}

	return router
}
