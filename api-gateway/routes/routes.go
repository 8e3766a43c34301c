package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/cosmetics-recommender/api-gateway/config"
	"github.com/tair/cosmetics-recommender/api-gateway/health"
	"github.com/tair/cosmetics-recommender/api-gateway/middleware"
	"github.com/tair/cosmetics-recommender/api-gateway/proxy"
	"github.com/tair/cosmetics-recommender/pkg/auth"
)

// RouteDefinition defines a route mapping
type RouteDefinition struct {
	Prefix      string `json:"prefix"`
	Upstream    string `json:"upstream"`
	Description string `json:"description"`
	AdminWrites bool   `json:"admin_writes"`
}

// Routes holds all route definitions
var Routes = []RouteDefinition{
	{
		Prefix:      "/api/products",
		Upstream:    config.ProductService,
		Description: "Product catalog (writes need an admin token)",
		AdminWrites: true,
	},
	{
		Prefix:      "/api/recommendations",
		Upstream:    config.RecommendationService,
		Description: "Personalized and quick recommendations",
	},
	{
		Prefix:      "/api/facial-analysis",
		Upstream:    config.RecommendationService,
		Description: "Skin analysis from a face photo",
	},
	{
		Prefix:      "/api/ingredient-conflict",
		Upstream:    config.RecommendationService,
		Description: "Ingredient conflict check",
	},
	{
		Prefix:      "/api/payment",
		Upstream:    config.PaymentService,
		Description: "Account transfers and transaction lookup",
	},
}

// Dependencies are the collaborators SetupRoutes wires into the route table.
// Proxy and Health are built from Config when nil; Signer and Redis may be nil.
type Dependencies struct {
	Config   *config.GatewayConfig
	Proxy    *proxy.ReverseProxy
	Health   *health.HealthChecker
	Breakers *middleware.CircuitBreakerManager
	Signer   *auth.Signer
	Redis    *redis.Client
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, deps Dependencies) {
	if deps.Proxy == nil {
		deps.Proxy = proxy.NewReverseProxy(deps.Config, proxy.DefaultRetryPolicy())
	}
	if deps.Health == nil {
		deps.Health = health.NewHealthChecker(deps.Config)
	}
	if deps.Breakers == nil {
		deps.Breakers = middleware.NewCircuitBreakerManager(middleware.DefaultBreakerSettings(), nil)
	}
	healthChecker := deps.Health

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		return c.JSON(healthChecker.CheckAllServices(ctx))
	})

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(healthChecker.QuickCheck())
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		healthStatus := healthChecker.CheckAllServices(ctx)
		statusCode := fiber.StatusOK
		if healthStatus.Status == health.StatusUnhealthy {
			statusCode = fiber.StatusServiceUnavailable
		}
		return c.Status(statusCode).JSON(healthStatus)
	})

	app.Get("/gateway/stats", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"load_balancers":   deps.Proxy.Stats(),
			"circuit_breakers": deps.Breakers.Stats(),
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Cosmetics Recommender API Gateway",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	for _, route := range Routes {
		registerServiceRoutes(app, route, deps)
	}
}

// registerServiceRoutes registers every method for the prefix and the paths
// beneath it.
func registerServiceRoutes(app *fiber.App, route RouteDefinition, deps Dependencies) {
	handlers := []fiber.Handler{
		func(c *fiber.Ctx) error {
			c.Locals(middleware.UpstreamKey, route.Upstream)
			return c.Next()
		},
	}
	if route.AdminWrites {
		handlers = append(handlers,
			middleware.AdminWrites(deps.Signer),
			middleware.InvalidateOnWrite(deps.Redis),
		)
	}
	handlers = append(handlers,
		middleware.CircuitBreaker(deps.Breakers, route.Upstream),
		func(c *fiber.Ctx) error {
			return deps.Proxy.ProxyRequest(c, route.Upstream)
		},
	)

	app.All(route.Prefix, handlers...)
	app.All(route.Prefix+"/*", handlers...)
}
