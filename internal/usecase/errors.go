package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// クライアントが分岐に使うエラーコード
const (
	CodeValidation    = "VALIDATION"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeStockConflict = "STOCK_CONFLICT"
	CodeRaceLost      = "RACE_LOST"
	CodePixKeyMissing = "PIX_KEY_MISSING"
	CodeInternal      = "INTERNAL"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
	// 在庫不足の商品一覧など
	Details interface{}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NewHTTPError はステータスからコードを決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    codeForStatus(status),
		Message: message,
	}
}

func NewCodedError(status int, code string, message string, details interface{}) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	default:
		return CodeInternal
	}
}

func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
