package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (model.User, error)
}
