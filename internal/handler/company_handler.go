package handler

import (
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CompanyHandler struct {
	uc *usecase.CompanyUsecase
}

func NewCompanyHandler(uc *usecase.CompanyUsecase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// pix_key: null は変更なし、"" は削除
type CompanyUpdateRequest struct {
	FinalName  string  `json:"final_name"`
	Phone      string  `json:"phone"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	PixKey     *string `json:"pix_key"`
}

func (h *CompanyHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/companies", middleware.AuthJWT(cfg), middleware.RoleGuard(model.RoleStore))
	g.GET("/me", h.getMe)
	g.PUT("/me", h.updateMe)
}

func (h *CompanyHandler) getMe(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetMyCompany(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CompanyHandler) updateMe(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req CompanyUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateMyCompany(c.Request().Context(), actor, usecase.UpdateCompanyInput{
		FinalName:  req.FinalName,
		Phone:      req.Phone,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		PixKey:     req.PixKey,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
