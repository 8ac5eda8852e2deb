package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-recipe-catalog/app/db"
	appMiddleware "github.com/FACorreiaa/go-recipe-catalog/app/middleware"
	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/category"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/recipe"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/user"
	"github.com/FACorreiaa/go-recipe-catalog/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	DatabaseURL string

	AuthHandler     *auth.HandlerImpl
	UserHandler     *user.HandlerImpl
	CategoryHandler *category.HandlerImpl
	RecipeHandler   *recipe.HandlerImpl
	RateLimiters    appMiddleware.RateLimiters

	healthCheck func(ctx context.Context) error
}

// NewContainer opens the connection pool and wires every component on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c := Build(cfg, pool, logger)
	c.Pool = pool
	c.DatabaseURL = dbConfig.ConnectionURL
	c.healthCheck = pool.Ping
	return c, nil
}

// Build wires repositories, services and handlers over db. Construction order
// is pool, repositories, services, handlers; nothing is global.
func Build(cfg *config.Config, db database.DB, logger *slog.Logger) *Container {
	// Repositories
	authRepo := auth.NewPostgresAuthRepo(db, logger)
	userRepo := user.NewPostgresUserRepo(db, logger)
	categoryRepo := category.NewPostgresCategoryRepo(db, logger)
	recipeRepo := recipe.NewPostgresRecipeRepo(db, logger)

	// Services
	authService := auth.NewAuthService(authRepo, cfg, logger)
	userService := user.NewUserService(userRepo, logger)
	categoryService := category.NewCategoryService(categoryRepo, cfg, logger)
	recipeService := recipe.NewRecipeService(recipeRepo, categoryService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		AuthHandler:     auth.NewAuthHandlerImpl(authService, logger),
		UserHandler:     user.NewHandlerImpl(userService, logger),
		CategoryHandler: category.NewCategoryHandler(categoryService, logger),
		RecipeHandler:   recipe.NewRecipeHandler(recipeService, logger),
		RateLimiters:    appMiddleware.NewRateLimiters(cfg, logger),
	}
}

// RouterConfig assembles the router dependencies from the container.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		AuthHandler:                    c.AuthHandler,
		UserHandler:                    c.UserHandler,
		CategoryHandler:                c.CategoryHandler,
		RecipeHandler:                  c.RecipeHandler,
		AuthenticateMiddleware:         auth.Authenticate(c.Logger, c.Config.JWT),
		OptionalAuthenticateMiddleware: auth.OptionalAuthenticate(c.Logger, c.Config.JWT),
		RateLimiters:                   c.RateLimiters,
		AllowedOrigins:                 c.Config.CORS.AllowedOrigins,
		HealthCheck:                    c.healthCheck,
		Logger:                         c.Logger,
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations() error {
	return database.RunMigrations(c.DatabaseURL, c.Logger)
}
