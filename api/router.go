package api

import (
	"net/http"

	"gamelib/config"
	"gamelib/db"
	"gamelib/igdb"
	"gamelib/launcher"
	"gamelib/logging"
	"gamelib/twitch"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services are the dependencies the handlers are wired with. Twitch, IGDB
// and Metrics are optional.
type Services struct {
	Config   *config.Config
	DB       *db.Database
	Launcher *launcher.Launcher
	Twitch   *twitch.Client
	IGDB     *igdb.Client
	Metrics  *Metrics
}

// NewServices wires the default services for cfg around an opened database.
func NewServices(cfg *config.Config, database *db.Database) *Services {
	s := &Services{
		Config:   cfg,
		DB:       database,
		Launcher: launcher.New(database.Layout),
		Twitch:   twitch.NewClient(cfg),
		IGDB:     igdb.NewClient(cfg),
	}
	if cfg.MetricsEnabled {
		var breakerOpen func() bool
		if s.IGDB != nil {
			breakerOpen = func() bool { return s.IGDB.BreakerState() == "open" }
		}
		s.Metrics = NewMetrics(database.GameCount, breakerOpen)
	}
	return s
}

// NewRouter builds the gin engine with every route.
func NewRouter(s *Services) *gin.Engine {
	database, cfg, layout := s.DB, s.Config, s.DB.Layout

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(logging.GinLogger("/health", "/metrics"), logging.GinRecovery())

	if s.Metrics != nil {
		router.Use(s.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	// --- Public Routes (No Auth Required) ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "games": database.GameCount()})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/covers/:gameId", func(c *gin.Context) { GetGameCoverHandler(c, layout) })
	router.GET("/backgrounds/:gameId", func(c *gin.Context) { GetGameBackgroundHandler(c, layout) })
	router.GET("/category-covers/:id", func(c *gin.Context) { GetCategoryCoverHandler(c, layout) })
	router.GET("/collection-covers/:id", func(c *gin.Context) { GetCollectionCoverHandler(c, layout) })

	authGroup := router.Group("/auth")
	{
		authGroup.GET("/twitch", func(c *gin.Context) { TwitchLoginHandler(c, s.Twitch, cfg) })
		authGroup.GET("/twitch/callback", func(c *gin.Context) { TwitchCallbackHandler(c, database, s.Twitch, cfg) })
	}

	// --- Protected Routes (Auth Required) ---
	authMiddleware := utils.AuthMiddleware(cfg, database.Tokens)

	protected := router.Group("/", authMiddleware)
	{
		protected.GET("/auth/me", func(c *gin.Context) { MeHandler(c, database) })
		protected.POST("/auth/logout", func(c *gin.Context) { LogoutHandler(c, database) })
		protected.GET("/auth/logout", func(c *gin.Context) { LogoutHandler(c, database) })

		protected.GET("/libraries/:libraryId/games", func(c *gin.Context) { GetLibraryGamesHandler(c, database) })

		gameGroup := protected.Group("/games/:gameId")
		{
			gameGroup.GET("", func(c *gin.Context) { GetGameHandler(c, database) })
			gameGroup.PUT("", func(c *gin.Context) { UpdateGameHandler(c, database) })
			gameGroup.POST("/reload", func(c *gin.Context) { ReloadGameHandler(c, database) })
			gameGroup.POST("/upload-executable", func(c *gin.Context) { UploadExecutableHandler(c, database) })
		}
		protected.POST("/reload-games", func(c *gin.Context) { ReloadGamesHandler(c, database) })
		protected.GET("/launcher", func(c *gin.Context) { LaunchGameHandler(c, database, s.Launcher, s.Metrics) })

		protected.GET("/recommended", func(c *gin.Context) { GetRecommendedHandler(c, database) })

		protected.GET("/categories", func(c *gin.Context) { ListCategoriesHandler(c, database) })
		protected.POST("/categories", func(c *gin.Context) { CreateCategoryHandler(c, database) })
		protected.DELETE("/categories/:id", func(c *gin.Context) { DeleteCategoryHandler(c, database) })

		collectionGroup := protected.Group("/collections")
		{
			collectionGroup.GET("", func(c *gin.Context) { ListCollectionsHandler(c, database) })
			collectionGroup.PUT("/:id", func(c *gin.Context) { UpdateCollectionHandler(c, database) })
			collectionGroup.GET("/:id/games", func(c *gin.Context) { GetCollectionGamesHandler(c, database) })
			collectionGroup.PUT("/:id/games/order", func(c *gin.Context) { ReorderCollectionHandler(c, database) })
		}

		protected.GET("/settings", func(c *gin.Context) { GetSettingsHandler(c, database) })
		protected.PUT("/settings", func(c *gin.Context) { UpdateSettingsHandler(c, database) })

		protected.GET("/igdb/search", func(c *gin.Context) { IGDBSearchHandler(c, s.IGDB) })
	}

	return router
}

// WithCORS wraps h with the configured CORS policy.
func WithCORS(h http.Handler, cfg *config.Config) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", utils.TokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(h)
}
