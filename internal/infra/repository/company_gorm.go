package repository

import (
	"context"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type CompanyGormRepository struct {
	db *gorm.DB
}

func NewCompanyGormRepository(db *gorm.DB) *CompanyGormRepository {
	return &CompanyGormRepository{db: db}
}

func (r *CompanyGormRepository) FindByID(ctx context.Context, companyID int64) (model.Company, error) {
	var c model.Company
	if err := r.db.WithContext(ctx).First(&c, companyID).Error; err != nil {
		return model.Company{}, translate(err)
	}
	return c, nil
}

// 営業中の店舗一覧
func (r *CompanyGormRepository) ListActive(ctx context.Context) ([]model.Company, error) {
	var list []model.Company
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.Company{}, err
	}
	return list, nil
}

// 店舗側で編集できる項目だけ更新
func (r *CompanyGormRepository) Update(ctx context.Context, c model.Company) error {
	res := r.db.WithContext(ctx).
		Model(&model.Company{}).
		Where("id = ?", c.ID).
		Select(
			"final_name",
			"phone",
			"street",
			"city",
			"state",
			"postal_code",
			"pix_key",
		).
		Updates(c)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
