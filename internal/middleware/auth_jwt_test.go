package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type actorResponse struct {
	UserID    int64      `json:"user_id"`
	Role      model.Role `json:"role"`
	CompanyID *int64     `json:"company_id"`
}

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = 9999999999
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newProtectedEcho(guards ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{middleware.AuthJWT(config.Config{JWTSecret: testSecret})}, guards...)

	e.GET("/protected", func(c echo.Context) error {
		a, ok := middleware.ActorFromContext(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, actorResponse{UserID: a.UserID, Role: a.Role, CompanyID: a.CompanyID})
	}, mws...)
	return e
}

func runRequest(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT_Unauthorized(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"bad scheme", "Token abc.def.ghi"},
		{"empty token", "Bearer  "},
		{"bad signature", "Bearer " + mustMakeJWT(t, "wrong-secret", jwt.MapClaims{"sub": 1, "role": "client"}, jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 1, "role": "client"}, jwt.SigningMethodHS512)},
		{"expired", "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 1, "role": "client", "exp": 1}, jwt.SigningMethodHS256)},
		{"unknown role", "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 1, "role": "USER"}, jwt.SigningMethodHS256)},
		{"missing sub", "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"role": "client"}, jwt.SigningMethodHS256)},
		{"bad company_id", "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 1, "role": "store", "company_id": "x"}, jwt.SigningMethodHS256)},
	}

	e := newProtectedEcho()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runRequest(e, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		})
	}
}

func TestAuthJWT_SetsActor(t *testing.T) {
	e := newProtectedEcho()

	raw := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 42, "role": "store", "company_id": 7}, jwt.SigningMethodHS256)
	rec := runRequest(e, "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var got actorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, model.RoleStore, got.Role)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(7), *got.CompanyID)
}

func TestAuthJWT_ClientHasNoCompany(t *testing.T) {
	e := newProtectedEcho()

	raw := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "5", "role": "client"}, jwt.SigningMethodHS256)
	rec := runRequest(e, "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var got actorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(5), got.UserID)
	assert.Nil(t, got.CompanyID)
}

func TestRoleGuard(t *testing.T) {
	e := newProtectedEcho(middleware.RoleGuard(model.RoleDriver, model.RoleAdmin))

	driver := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 1, "role": "driver", "company_id": 3}, jwt.SigningMethodHS256)
	assert.Equal(t, http.StatusOK, runRequest(e, "Bearer "+driver).Code)

	client := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": 2, "role": "client"}, jwt.SigningMethodHS256)
	rec := runRequest(e, "Bearer "+client)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden","code":"FORBIDDEN"}`, rec.Body.String())
}

func TestRoleGuard_WithoutAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, middleware.RoleGuard(model.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
