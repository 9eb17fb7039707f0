package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"stitch/internal/handler"
	"stitch/internal/service"
)

// NewRouter wires all handlers into an echo instance. Admin routes are
// guarded by the JWT middleware; everything unmatched falls through to the
// static site.
func NewRouter(
	pageHandler *handler.PageHandler,
	fragmentHandler *handler.FragmentHandler,
	menuHandler *handler.MenuHandler,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
	siteDir string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLogger())

	api := e.Group("/api")
	authHandler.RegisterRoutes(api)
	fragmentHandler.RegisterRoutes(api)
	menuHandler.RegisterRoutes(api)

	admin := api.Group("", JWTAuthMiddleware(authService))
	fragmentHandler.RegisterAdminRoutes(admin)

	pageHandler.RegisterRoutes(e)
	registerStatic(e, siteDir)

	return e
}
