package handler

import (
	"errors"
	"fmt"
	"net/http"

	"bizapp/internal/usecase"
	"bizapp/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// usecaseのエラー種別をHTTPステータスに写す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	if ise, ok := usecase.AsInsufficientStock(err); ok {
		msg := fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
			ise.Name, ise.Requested, ise.Available)
		return c.JSON(http.StatusConflict, ErrorResponse{Error: msg})
	}

	switch {
	case errors.Is(err, usecase.ErrEmptyOrder):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order has no items"})
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, validator.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error"})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, usecase.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrConflict),
		errors.Is(err, validator.ErrUsernameAlreadyUsed),
		errors.Is(err, validator.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "already used"})
	case errors.Is(err, usecase.ErrPersistenceConflict):
		//リトライで直る見込みがある
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "please try again"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
