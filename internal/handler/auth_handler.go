package handler

import (
	"context"
	"errors"
	"net/http"

	auth "marketplace/internal/usecase/auth_usecase"
	"marketplace/internal/validator"

	"github.com/labstack/echo/v4"
)

type loginExecutor interface {
	Execute(ctx context.Context, in auth.LoginInput) (auth.LoginOutput, error)
}

type AuthHandler struct {
	loginUC loginExecutor
}

// DIコンストラクタ
func NewAuthHandler(loginUC loginExecutor) *AuthHandler {
	return &AuthHandler{loginUC: loginUC}
}

// /login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/login", h.Login)
}

// LoginはPOST /login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalidInput):
			return badRequest(c, "email and password are required")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials", Code: "UNAUTHORIZED"})
		default:
			return writeError(c, err)
		}
	}

	return c.JSON(http.StatusOK, out)
}
