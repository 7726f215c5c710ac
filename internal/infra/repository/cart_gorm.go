package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// オーナー（ユーザー or 会社）のカートを取得
func (r *CartGormRepository) FindByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return model.Cart{}, err
	}

	q := r.db.WithContext(ctx)
	if owner.UserID != nil {
		q = q.Where("user_id = ?", *owner.UserID)
	} else {
		q = q.Where("company_id = ?", *owner.CompanyID)
	}

	var cart model.Cart
	if err := q.First(&cart).Error; err != nil {
		return model.Cart{}, translate(err)
	}
	return cart, nil
}

// カート作成。同じオーナーで同時に作られたら ErrDuplicate
func (r *CartGormRepository) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	if err := cart.Owner().Validate(); err != nil {
		return model.Cart{}, err
	}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return model.Cart{}, translate(err)
	}
	return cart, nil
}

func (r *CartGormRepository) UpdateStore(ctx context.Context, cartID int64, storeID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("store_id", storeID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カートを明細ごと削除
func (r *CartGormRepository) Delete(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Cart{}, cartID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
