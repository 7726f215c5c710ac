package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CartRepository interface {
	FindByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)
	// 別店舗の商品を入れたときに店舗を切り替える
	UpdateStore(ctx context.Context, cartID int64, storeID int64) error
	// 明細ごと削除
	Delete(ctx context.Context, cartID int64) error
}
