package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByCode(ctx context.Context, code string) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return order, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *OrderGormRepository) ListByStoreID(ctx context.Context, storeID int64) ([]model.Order, error) {
	return r.list(r.db.WithContext(ctx).Where("store_id = ?", storeID))
}

func (r *OrderGormRepository) ListForDriver(ctx context.Context, driverID int64, storeID int64) ([]model.Order, error) {
	q := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ? AND driver_id IS NULL", storeID, model.OrderStatusReadyForPickup).
		Or("driver_id = ? AND status IN ?", driverID, []model.OrderStatus{model.OrderStatusAccepted, model.OrderStatusOnTheWay})
	return r.list(q)
}

func (r *OrderGormRepository) list(q *gorm.DB) ([]model.Order, error) {
	var items []model.Order
	if err := q.Order("id desc").Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

// 条件付き更新。WHERE に現在のステータスを入れて、読んだ後に変わっていたら0件になる
func (r *OrderGormRepository) UpdateStatusIf(ctx context.Context, u repo.StatusUpdate) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", u.OrderID, u.From)
	if u.DriverID != nil {
		q = q.Where("driver_id = ?", *u.DriverID)
	}

	res := q.Update("status", u.To)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UPDATE orders SET status='accepted', driver_id=? WHERE id=? AND status='ready_for_pickup' AND driver_id IS NULL
func (r *OrderGormRepository) AcceptIfAvailable(ctx context.Context, orderID int64, driverID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND driver_id IS NULL", orderID, model.OrderStatusReadyForPickup).
		Updates(map[string]interface{}{
			"status":    model.OrderStatusAccepted,
			"driver_id": driverID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
