package handler

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"stitch/internal/model"
	"stitch/internal/service"
)

// MenuHandler recomputes the active menu item. The navigation lists live in
// the header fragment, so the handler loads that fragment and runs the
// highlighter against it.
type MenuHandler struct {
	fragments service.FragmentService
	menu      service.MenuService
}

type menuItemResponse struct {
	Href  string `json:"href"`
	Label string `json:"label"`
	Class string `json:"class,omitempty"`
}

type menuResponse struct {
	Path  string             `json:"path"`
	Items []menuItemResponse `json:"items"`
}

func NewMenuHandler(fragments service.FragmentService, menu service.MenuService) *MenuHandler {
	return &MenuHandler{fragments: fragments, menu: menu}
}

func (h *MenuHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/menu/active", h.Active)
}

func (h *MenuHandler) Active(c echo.Context) error {
	path := c.QueryParam("path")

	fragment, err := h.fragments.FragmentByName("header")
	if err != nil {
		return writeServiceError(c, err)
	}
	body, err := h.fragments.Fetch(c.Request().Context(), fragment.Path)
	if err != nil {
		return writeServiceError(c, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return writeServiceError(c, err)
	}

	items := h.menu.Activate(doc, path)
	return c.JSON(http.StatusOK, toMenuResponse(path, items))
}

func toMenuResponse(path string, items []model.MenuItem) menuResponse {
	response := menuResponse{Path: path, Items: make([]menuItemResponse, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, menuItemResponse{
			Href:  item.Href,
			Label: item.Label,
			Class: item.Class,
		})
	}
	return response
}
