package handler

import (
	"net/http"

	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// POST /checkout
type CheckoutHandler struct {
	carts    *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
}

func NewCheckoutHandler(carts *usecase.CartUsecase, checkout *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, checkout: checkout}
}

type CheckoutResponse struct {
	OrderID         string          `json:"order_id"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	RedirectTo      string          `json:"redirect_to"`
	RedirectAfterMS int64           `json:"redirect_after_ms"`
}

// 失敗時はどのステップで止まったかも返す
type CheckoutErrorResponse struct {
	Error string `json:"error"`
	Step  string `json:"step"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/checkout")
	g.Use(auth)

	g.POST("", h.submit)
}

func (h *CheckoutHandler) submit(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.CheckoutCartInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateCheckout(req); err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	cart, err := h.carts.Open(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}

	session, err := h.checkout.CheckoutCart(ctx, cart, req)
	// カートのクリアを書き終えてから返す
	cart.Flush()
	if err != nil {
		if session == nil {
			return writeError(c, err)
		}
		status := http.StatusInternalServerError
		if _, ok := usecase.AsValidationError(err); ok {
			status = http.StatusBadRequest
		}
		return c.JSON(status, CheckoutErrorResponse{Error: session.Message(), Step: session.Step().String()})
	}

	res, _ := session.Result()
	return c.JSON(http.StatusCreated, CheckoutResponse{
		OrderID:         res.OrderID,
		Subtotal:        res.Subtotal,
		ShippingCost:    res.ShippingCost,
		Total:           res.Total,
		RedirectTo:      "/orders/" + res.OrderID,
		RedirectAfterMS: session.RedirectAfter().Milliseconds(),
	})
}
