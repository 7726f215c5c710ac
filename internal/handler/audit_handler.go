package handler

import (
	"net/http"
	"strconv"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/audit-logs
type AuditHandler struct {
	uc *usecase.AuditUsecase
}

func NewAuditHandler(uc *usecase.AuditUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin", middleware.AuthJWT(cfg), middleware.RoleGuard(model.RoleAdmin))
	admin.GET("/audit-logs", h.list)
}

func (h *AuditHandler) list(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	in := usecase.ListAuditLogsInput{
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        50,
	}

	var err error
	if v := c.QueryParam("resource_id"); v != "" {
		if in.ResourceID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return badRequest(c, "invalid resource_id")
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if in.Limit, err = strconv.Atoi(v); err != nil {
			return badRequest(c, "invalid limit")
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if in.Offset, err = strconv.Atoi(v); err != nil {
			return badRequest(c, "invalid offset")
		}
	}

	out, err := h.uc.List(c.Request().Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
