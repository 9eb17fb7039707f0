package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stitch/internal/model"
	"stitch/internal/repository"
	"stitch/internal/service"
)

type FragmentHandler struct {
	service service.FragmentService
	cache   repository.FragmentCacheRepository
}

type fragmentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Selector string `json:"selector"`
}

type fragmentPreviewResponse struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	ByteSize  int     `json:"byteSize"`
	Excerpt   string  `json:"excerpt"`
	FetchedAt *string `json:"fetchedAt,omitempty"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

func NewFragmentHandler(service service.FragmentService, cache repository.FragmentCacheRepository) *FragmentHandler {
	return &FragmentHandler{service: service, cache: cache}
}

func (h *FragmentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/fragments", h.List)
	g.GET("/fragments/:name", h.Show)
	g.GET("/fragments/:name/preview", h.Preview)
}

// RegisterAdminRoutes registers the routes that require a bearer token.
func (h *FragmentHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/fragments/refresh", h.Refresh)
	g.POST("/cache/purge", h.Purge)
}

func (h *FragmentHandler) List(c echo.Context) error {
	fragments := h.service.Fragments()
	response := make([]fragmentResponse, 0, len(fragments))
	for _, fragment := range fragments {
		response = append(response, toFragmentResponse(fragment))
	}
	return c.JSON(http.StatusOK, response)
}

func (h *FragmentHandler) Show(c echo.Context) error {
	fragment, err := h.service.FragmentByName(c.Param("name"))
	if err != nil {
		return writeServiceError(c, err)
	}
	body, err := h.service.Fetch(c.Request().Context(), fragment.Path)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.HTML(http.StatusOK, body)
}

func (h *FragmentHandler) Preview(c echo.Context) error {
	preview, err := h.service.Preview(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toFragmentPreviewResponse(preview))
}

func (h *FragmentHandler) Refresh(c echo.Context) error {
	if err := h.service.RefreshAll(c.Request().Context()); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FragmentHandler) Purge(c echo.Context) error {
	purged, err := h.cache.Purge(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, purgeResponse{Purged: purged})
}

func toFragmentResponse(fragment model.Fragment) fragmentResponse {
	return fragmentResponse{
		Name:     fragment.Name,
		Path:     fragment.Path,
		Selector: fragment.Selector,
	}
}

func toFragmentPreviewResponse(preview model.FragmentPreview) fragmentPreviewResponse {
	response := fragmentPreviewResponse{
		Name:     preview.Name,
		Path:     preview.Path,
		ByteSize: preview.ByteSize,
		Excerpt:  preview.Excerpt,
	}
	if preview.FetchedAt != nil {
		formatted := preview.FetchedAt.UTC().Format(time.RFC3339)
		response.FetchedAt = &formatted
	}
	return response
}
