package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反（注文コードの衝突など）
	ErrDuplicate = errors.New("duplicate")
)

// 一覧検索
type ProductListQuery struct {
	CompanyID int64
	// 空なら全ステータス
	Statuses []model.ProductStatus
	Q        string
	Page     int
	Limit    int
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListByCompany(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// チェックアウト用。削除済みも含めて id 昇順で行ロックを取る
	LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
