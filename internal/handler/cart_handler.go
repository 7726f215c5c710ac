package handler

import (
	"context"
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc       *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, checkout *usecase.CheckoutUsecase) *CartHandler {
	return &CartHandler{uc: uc, checkout: checkout}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CheckoutRequest struct {
	Items []usecase.CheckoutItemInput `json:"items"`
}

// /cart 配下を登録（clientと店舗スタッフ）
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RoleGuard(model.RoleClient, model.RoleStore))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PUT("/items/:id/increment", h.itemAction(h.uc.Increment))
	g.PUT("/items/:id/decrement", h.itemAction(h.uc.Decrement))
	g.DELETE("/items/:id", h.itemAction(h.uc.RemoveItem))
	g.POST("/checkout", h.doCheckout)
}

func (h *CartHandler) getCart(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	out, err := h.uc.AddItem(c.Request().Context(), actor, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type cartItemFunc func(ctx context.Context, actor model.Actor, cartItemID int64) (usecase.CartResponse, error)

// increment / decrement / delete は形が同じ
func (h *CartHandler) itemAction(fn cartItemFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := actorFrom(c)
		if !ok {
			return unauthorized(c)
		}

		itemID, ok := parseIDParam(c, "id")
		if !ok {
			return badRequest(c, "invalid id")
		}

		out, err := fn(c.Request().Context(), actor, itemID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *CartHandler) doCheckout(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	// bodyなしならカートのまま確定
	var req CheckoutRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}

	out, err := h.checkout.Checkout(c.Request().Context(), actor, usecase.CheckoutInput{Items: req.Items})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
