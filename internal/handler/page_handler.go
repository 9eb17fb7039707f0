package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stitch/internal/service"
)

type PageHandler struct {
	service service.PageService
}

func NewPageHandler(service service.PageService) *PageHandler {
	return &PageHandler{service: service}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/pages/:name", h.Show)
}

func (h *PageHandler) Show(c echo.Context) error {
	rendered, err := h.service.Render(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.HTML(http.StatusOK, rendered)
}
