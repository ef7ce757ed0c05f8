package handler

import (
	"errors"
	"net/http"

	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	// 在庫不足・入力不足はそのまま見せる
	if ve, ok := usecase.AsValidationError(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Error()})
	}
	if errors.Is(err, usecase.ErrInvalidTransition) {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	}

	//500
	logging.FromContext(c.Request().Context()).Error("request failed", "error", err.Error())
	if errors.Is(err, usecase.ErrOrderProcessingFailed) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.UserMessage(err)})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// AuthJWTが入れたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (string, bool) {
	return middleware.UserID(c)
}
