package server

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録するハンドラ一式
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Product *handler.ProductHandler
	Company *handler.CompanyHandler
	Audit   *handler.AuditHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Catalog.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Product.RegisterRoutes(e, cfg)
	h.Company.RegisterRoutes(e, cfg)
	h.Audit.RegisterRoutes(e, cfg)
}
