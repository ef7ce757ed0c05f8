package server

import (
	"net/http"

	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Products      *handler.ProductHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Orders        *handler.OrderHandler
	AdminOrders   *handler.AdminOrderHandler
	AdminProducts *handler.AdminProductHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	h.Products.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, auth)
	h.Checkout.RegisterRoutes(e, auth)
	h.Orders.RegisterRoutes(e, auth)
	h.AdminOrders.RegisterRoutes(e, auth)
	h.AdminProducts.RegisterRoutes(e, auth)
}
