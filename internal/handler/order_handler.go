package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc  *usecase.OrderUsecase
	pix *usecase.PixUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, pix *usecase.PixUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, pix: pix}
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

// 客・店舗・配達員それぞれの注文API
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	authMW := middleware.AuthJWT(cfg)

	client := e.Group("/orders", authMW, middleware.RoleGuard(model.RoleClient))
	client.GET("", h.listMine)

	store := e.Group("/orders-store", authMW, middleware.RoleGuard(model.RoleStore))
	store.GET("", h.listStore)
	store.PATCH("/:id/status", h.updateStoreStatus)

	// PIXは客と店舗も見る
	e.GET("/orders-driver/:id/pix", h.generatePix, authMW,
		middleware.RoleGuard(model.RoleClient, model.RoleDriver, model.RoleStore))

	driver := e.Group("/orders-driver", authMW, middleware.RoleGuard(model.RoleDriver))
	driver.GET("", h.listDriver)
	driver.PATCH("/:id/accept", h.accept)
	driver.PATCH("/:id/status", h.updateDeliveryStatus)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listStore(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListStoreOrders(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listDriver(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListDriverOrders(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStoreStatus(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStoreStatus(c.Request().Context(), actor, id, usecase.UpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) accept(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Accept(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateDeliveryStatus(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateDeliveryStatus(c.Request().Context(), actor, id, usecase.UpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) generatePix(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.pix.GeneratePix(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
