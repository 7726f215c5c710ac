package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// ステータスを条件付きで進める。DriverID があれば担当者も条件に入れる
type StatusUpdate struct {
	OrderID  int64
	From     model.OrderStatus
	To       model.OrderStatus
	DriverID *int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByCode(ctx context.Context, code string) (model.Order, error)
	// code が衝突したら ErrDuplicate
	Create(ctx context.Context, order model.Order) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ListByStoreID(ctx context.Context, storeID int64) ([]model.Order, error)
	// 店舗の未割り当て ready_for_pickup と、自分が担当中の注文
	ListForDriver(ctx context.Context, driverID int64, storeID int64) ([]model.Order, error)

	// 0件更新なら false（他の人が先に更新した）
	UpdateStatusIf(ctx context.Context, u StatusUpdate) (bool, error)
	// ready_for_pickup かつ未割り当てのときだけ driver をセットして accepted にする
	AcceptIfAvailable(ctx context.Context, orderID int64, driverID int64) (bool, error)
}
