package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/makeathera-byte/3layered/internal/handlers"
	"github.com/makeathera-byte/3layered/internal/service/token"
)

type Deps struct {
	ProductHandler  *handlers.ProductHandler
	AuthHandler     *handlers.AuthHandler
	CartHandler     *handlers.CartHandler
	CheckoutHandler *handlers.CheckoutHandler
	AdminHandler    *handlers.AdminHandler
	CustomHandler   *handlers.CustomRequestHandler
	SearchHandler   *handlers.SearchHandler
	Tokens          *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/search", d.SearchHandler.Handler)
	v1.GET("/banners", d.AdminHandler.ActiveBanners)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	// Checkout is open to guests; the order number is the lookup key.
	v1.POST("/checkout/quote", d.CheckoutHandler.Quote)
	v1.POST("/checkout/order", d.CheckoutHandler.CreateOrder)
	v1.POST("/checkout/payment", d.CheckoutHandler.InitPayment)
	v1.POST("/checkout/verify", d.CheckoutHandler.VerifyPayment)
	v1.GET("/orders/:number", d.CheckoutHandler.GetOrder)

	v1.POST("/custom-requests", d.CustomHandler.Create)

	me := v1.Group("/me", d.Tokens.RequireAuth)
	me.GET("", d.AuthHandler.Me)
	me.GET("/orders", d.AuthHandler.MyOrders)

	cart := v1.Group("/cart", d.Tokens.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveFromCart)
	cart.DELETE("", d.CartHandler.ClearCart)

	admin := v1.Group("/admin", d.Tokens.RequireAdmin)

	admin.GET("/stats", d.AdminHandler.Stats)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/orders/:number", d.AdminHandler.GetOrder)
	admin.PATCH("/orders/:number/status", d.AdminHandler.UpdateOrderStatus)
	admin.DELETE("/orders/:number", d.AdminHandler.DeleteOrder)

	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.PATCH("/users/:id/role", d.AdminHandler.UpdateUserRole)
	admin.DELETE("/users/:id", d.AdminHandler.DeleteUser)

	admin.GET("/custom-requests", d.CustomHandler.List)
	admin.PATCH("/custom-requests/:id/status", d.CustomHandler.UpdateStatus)

	admin.GET("/banners", d.AdminHandler.ListBanners)
	admin.POST("/banners", d.AdminHandler.CreateBanner)
	admin.PATCH("/banners/:id", d.AdminHandler.UpdateBanner)
	admin.DELETE("/banners/:id", d.AdminHandler.DeleteBanner)

	admin.GET("/media", d.AdminHandler.ListMedia)
	admin.POST("/media", d.AdminHandler.RegisterMedia)
	admin.DELETE("/media/:id", d.AdminHandler.DeleteMedia)
}
