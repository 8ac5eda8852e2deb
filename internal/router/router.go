package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/FACorreiaa/go-recipe-catalog/app/middleware"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/auth"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/category"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/recipe"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler     *auth.HandlerImpl
	UserHandler     *user.HandlerImpl
	CategoryHandler *category.HandlerImpl
	RecipeHandler   *recipe.HandlerImpl

	AuthenticateMiddleware         func(http.Handler) http.Handler
	OptionalAuthenticateMiddleware func(http.Handler) http.Handler
	RateLimiters                   appMiddleware.RateLimiters

	AllowedOrigins []string
	// HealthCheck pings the backing store for /health.
	HealthCheck func(ctx context.Context) error
	Logger      *slog.Logger
}

// SetupRouter initializes and configures the application router.
// Server-wide middleware (logger, requestID, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appMiddleware.HTTPMetrics)

	// Set before mounting so sub-routers inherit them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, api.MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusMethodNotAllowed, api.MsgMethodNotAllowed)
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.RateLimiters.Default)

		r.Route("/auth", func(r chi.Router) {
			r.With(cfg.RateLimiters.Auth).Post("/register", cfg.AuthHandler.Register)
			r.With(cfg.RateLimiters.Auth).Post("/login", cfg.AuthHandler.Login)
			r.With(cfg.AuthenticateMiddleware).Get("/me", cfg.AuthHandler.Me)
		})

		r.Get("/usuarios", cfg.UserHandler.ListUsers)
		r.Get("/usuarios/{id}", cfg.UserHandler.GetUser)

		r.Route("/categorias", func(r chi.Router) {
			r.Get("/", cfg.CategoryHandler.ListCategories)
			r.Get("/{id}", cfg.CategoryHandler.GetCategory)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthenticateMiddleware)
				r.Post("/", cfg.CategoryHandler.CreateCategory)
				r.Put("/{id}", cfg.CategoryHandler.UpdateCategory)
				r.Delete("/{id}", cfg.CategoryHandler.DeleteCategory)
			})
		})

		r.Route("/receitas", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(cfg.OptionalAuthenticateMiddleware)
				r.Get("/", cfg.RecipeHandler.ListRecipes)
				r.With(cfg.RateLimiters.Search).Get("/search", cfg.RecipeHandler.SearchRecipes)
				r.Get("/usuario/{id}", cfg.RecipeHandler.ListByUser)
				r.Get("/categoria/{id}", cfg.RecipeHandler.ListByCategory)
				r.Get("/{id}", cfg.RecipeHandler.GetRecipe)
			})

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthenticateMiddleware)
				r.Post("/", cfg.RecipeHandler.CreateRecipe)
				r.Put("/{id}", cfg.RecipeHandler.UpdateRecipe)
				r.Delete("/{id}", cfg.RecipeHandler.DeleteRecipe)
			})
		})
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck == nil {
			api.SuccessResponse(w, r, http.StatusOK, map[string]string{"database": "unknown"}, "")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.HealthCheck(ctx); err != nil {
			cfg.Logger.WarnContext(ctx, "Health check failed", slog.Any("error", err))
			api.WriteJSONResponse(w, r, http.StatusServiceUnavailable, api.Response{
				Status:  api.StatusError,
				Data:    map[string]string{"database": "unavailable"},
				Message: "Banco de dados indisponível",
			})
			return
		}
		api.SuccessResponse(w, r, http.StatusOK, map[string]string{"database": "ok"}, "")
	}
}
