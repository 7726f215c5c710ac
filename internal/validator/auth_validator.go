package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// 入力が不正
var ErrInvalidInput = errors.New("invalid input")

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// パスワードの最大長（bcryptは72バイトまで）
const maxPasswordBytes = 72

type AuthValidator struct{}

func NewAuthValidator() *AuthValidator {
	return &AuthValidator{}
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if !emailRe.MatchString(email) {
		return ErrInvalidInput
	}

	if len(password) > maxPasswordBytes {
		return ErrInvalidInput
	}

	return nil
}
