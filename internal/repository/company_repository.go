package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type CompanyRepository interface {
	FindByID(ctx context.Context, companyID int64) (model.Company, error)
	ListActive(ctx context.Context) ([]model.Company, error)
	Update(ctx context.Context, company model.Company) error
}
