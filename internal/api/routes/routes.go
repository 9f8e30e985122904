package routes

import (
	"time"

	"shoplist-service/internal/api/handlers"
	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/config"

	_ "shoplist-service/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups everything the route table mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	List     *handlers.ListHandler
	Item     *handlers.ItemHandler
	Category *handlers.CategoryHandler
	Recipe   *handlers.RecipeHandler
	Stream   *handlers.StreamHandler
	Health   *handlers.HealthHandler
}

type Router struct {
	engine         *gin.Engine
	h              Handlers
	authMW         *middleware.AuthMiddleware
	rateLimitMW    *middleware.RateLimitMiddleware
	rateLimit      config.RateLimitConfig
	internalSecret string
}

func NewRouter(
	h Handlers,
	authMW *middleware.AuthMiddleware,
	rateLimitMW *middleware.RateLimitMiddleware,
	cfg *config.Config,
) *Router {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	engine.Use(middleware.LogApi("/healthz"))

	return &Router{
		engine:         engine,
		h:              h,
		authMW:         authMW,
		rateLimitMW:    rateLimitMW,
		rateLimit:      cfg.RateLimit,
		internalSecret: cfg.Realtime.InternalSecret,
	}
}

// limit returns the per-user limiter for scope, or a no-op when disabled.
func (r *Router) limit(scope string) gin.HandlerFunc {
	if !r.rateLimit.Enabled || r.rateLimitMW == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimitMW.RateLimit(scope, r.rateLimit.RequestsPerMin, time.Minute)
}

func (r *Router) limitIP(scope string) gin.HandlerFunc {
	if !r.rateLimit.Enabled || r.rateLimitMW == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimitMW.RateLimitIP(scope, r.rateLimit.AuthPerMin, time.Minute)
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.h.Health.Health)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// Streams authenticate inside their transports.
	api.GET("/ws", r.h.Stream.HandleWebSocket)
	api.GET("/lists/:id/events", r.h.Stream.StreamList)

	internal := api.Group("/internal")
	internal.Use(middleware.RequireInternalSecret(r.internalSecret))
	{
		internal.POST("/broadcast", r.h.Stream.InternalBroadcast)
	}

	// Public routes (no authentication required)
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.limitIP("auth"))
	{
		authRoutes.POST("/register", r.h.Auth.Register)
		authRoutes.POST("/login", r.h.Auth.Login)
	}

	// Authenticated routes
	authed := api.Group("/")
	authed.Use(r.authMW.RequireAuth())
	{
		users := authed.Group("/users")
		users.Use(r.limit("users"))
		{
			users.GET("/profile", r.h.User.GetProfile)
			users.PUT("/profile", r.h.User.UpdateProfile)
			users.GET("/search", r.h.User.SearchUsers)
		}

		lists := authed.Group("/lists")
		lists.Use(r.limit("lists"))
		{
			lists.GET("", r.h.List.GetLists)
			lists.POST("", r.h.List.CreateList)
			lists.GET("/:id", r.h.List.GetList)
			lists.PUT("/:id", r.h.List.UpdateList)
			lists.DELETE("/:id", r.h.List.DeleteList)

			lists.GET("/:id/items", r.h.Item.GetItems)
			lists.POST("/:id/items", r.h.Item.CreateItem)
			lists.DELETE("/:id/items/completed", r.h.Item.ClearCompleted)
			lists.PUT("/:id/items/:itemId", r.h.Item.UpdateItem)
			lists.DELETE("/:id/items/:itemId", r.h.Item.DeleteItem)
			lists.POST("/:id/items/:itemId/toggle", r.h.Item.ToggleItem)

			lists.GET("/:id/categories", r.h.Category.GetCategories)
			lists.PUT("/:id/categories", r.h.Category.SetCategory)

			lists.GET("/:id/collaborators", r.h.List.GetCollaborators)
			lists.POST("/:id/collaborators", r.h.List.AddCollaborator)
			lists.PUT("/:id/collaborators/:userId", r.h.List.UpdateCollaborator)
			lists.DELETE("/:id/collaborators/:userId", r.h.List.RemoveCollaborator)

			lists.POST("/:id/recipes/:recipeId", r.h.Recipe.AddToList)
		}

		recipes := authed.Group("/recipes")
		recipes.Use(r.limit("recipes"))
		{
			recipes.GET("", r.h.Recipe.GetRecipes)
			recipes.POST("", r.h.Recipe.CreateRecipe)
			recipes.GET("/:id", r.h.Recipe.GetRecipe)
			recipes.PUT("/:id", r.h.Recipe.UpdateRecipe)
			recipes.DELETE("/:id", r.h.Recipe.DeleteRecipe)
			recipes.POST("/:id/image", r.h.Recipe.UploadImage)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
