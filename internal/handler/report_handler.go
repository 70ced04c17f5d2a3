package handler

import (
	"net/http"

	"bizapp/internal/config"
	"bizapp/internal/middleware"
	"bizapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReportHandler struct {
	uc *usecase.ReportUsecase
}

func NewReportHandler(uc *usecase.ReportUsecase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/reports")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/sales", h.sales)
}

func (h *ReportHandler) sales(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	from := timeQuery(c, "from")
	to := timeQuery(c, "to")

	out, err := h.uc.SalesReport(c.Request().Context(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
