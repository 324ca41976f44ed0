package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/example/bakery/internal/config"
	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/handlers"
	"github.com/example/bakery/internal/metrics"
	"github.com/example/bakery/internal/middleware"
	"github.com/example/bakery/internal/services"
)

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	Store    database.Store
	Metrics  *metrics.Metrics
	Social   services.SocialProvider
	Notifier services.OrderNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies, cfg *config.Config) {
	sync := services.NewSynchronizer(deps.Store, deps.Metrics)

	userService := services.NewUserService(deps.Store, deps.Social, deps.Metrics, cfg.JWTSecret, cfg.TokenExpires)
	cartManager := services.NewCartManager(deps.Store)
	menuService := services.NewMenuService(deps.Store, sync)
	menuClassService := services.NewMenuClassService(deps.Store)
	shippingService := services.NewShippingService(deps.Store, sync)
	orderService := services.NewOrderService(deps.Store, sync, deps.Notifier)
	personalOrderService := services.NewPersonalOrderService(deps.Store, orderService)

	userHandler := handlers.NewUserHandler(userService, cartManager, cfg.DBTimeout)
	menuHandler := handlers.NewMenuHandler(menuService, cfg.DBTimeout)
	menuClassHandler := handlers.NewMenuClassHandler(menuClassService, cfg.DBTimeout)
	shippingHandler := handlers.NewShippingHandler(shippingService, cfg.DBTimeout)
	orderHandler := handlers.NewOrderHandler(orderService, personalOrderService, cfg.DBTimeout)
	healthHandler := handlers.NewHealthHandler(deps.Store, cfg.DBTimeout)

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Get("/healthz", healthHandler.Health)

	api := app.Group("", middleware.SessionToken())

	// User routes; the fixed paths must precede /:id
	user := api.Group("/user")
	user.Get("/", userHandler.ListUsers)
	user.Post("/", userHandler.CreateUser)
	user.Post("/auth", userHandler.Authenticate)
	user.Post("/kakaologin", userHandler.KakaoLogin)
	user.Post("/logout", userHandler.Logout)
	user.Post("/cart", userHandler.AddToCart)
	user.Patch("/cart", userHandler.CheckCart)
	user.Delete("/cart", userHandler.RemoveFromCart)
	user.Get("/:id", userHandler.GetUser)
	user.Patch("/:id", userHandler.UpdateUser)
	user.Delete("/:id", userHandler.DeleteUser)

	// Catalog routes
	menus := api.Group("/menu")
	menuHandler.RegisterMenuRoutes(menus)

	menuClasses := api.Group("/menuclass")
	menuClasses.Get("/", menuClassHandler.ListMenuClasses)
	menuClasses.Post("/", menuClassHandler.CreateMenuClass)
	menuClasses.Get("/:id", menuClassHandler.GetMenuClass)
	menuClasses.Patch("/:id", menuClassHandler.UpdateMenuClass)
	menuClasses.Delete("/:id", menuClassHandler.DeleteMenuClass)

	// Shipping routes; GET and POST take the owner id, PATCH and DELETE the address id
	shippings := api.Group("/shipping")
	shippings.Get("/", shippingHandler.ListShippings)
	shippings.Get("/:userId", shippingHandler.ListUserShippings)
	shippings.Post("/:userId", shippingHandler.CreateShipping)
	shippings.Patch("/:id", shippingHandler.UpdateShipping)
	shippings.Delete("/:id", shippingHandler.DeleteShipping)

	// Order routes
	orders := api.Group("/order")
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:ordererId", orderHandler.CreateOrder)
	orders.Patch("/:id", orderHandler.UpdateOrder)
	orders.Delete("/:id", orderHandler.DeleteOrder)

	personalOrders := api.Group("/personalorder")
	personalOrders.Get("/", orderHandler.ListPersonalOrders)
	personalOrders.Post("/", orderHandler.CreatePersonalOrder)
}
