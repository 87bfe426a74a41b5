package server

import (
	"time"

	"stockpos/internal/handlers"
	"stockpos/internal/middleware"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Sales     *services.SaleService
	Dashboard *services.DashboardService
	Users     *services.UserService
}

// Options controls optional middleware.
type Options struct {
	AccessLog bool
}

// New builds the Fiber app with every route under /api.
func New(svc Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "stockpos",
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")

	// Public
	handlers.NewAuthHandler(svc.Auth).RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(svc.Auth))
	handlers.NewSaleHandler(svc.Sales).RegisterRoutes(protected)
	handlers.NewProductHandler(svc.Products).RegisterRoutes(protected)
	handlers.NewDashboardHandler(svc.Dashboard).RegisterRoutes(protected)
	handlers.NewUserHandler(svc.Users).RegisterRoutes(protected)

	return app
}
