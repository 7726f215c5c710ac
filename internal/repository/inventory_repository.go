package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算。false なら他の注文に先を越された
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫を「現在値」に更新し、調整履歴も残す
	SetStockWithAdjustment(ctx context.Context, actorUserID int64, productID int64, newStock int64, reason string) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
