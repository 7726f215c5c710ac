package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
	ProductStatusHidden     ProductStatus = "hidden"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusOutOfStock, ProductStatusHidden:
		return true
	}
	return false
}

type Product struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID     int64           `gorm:"not null;index" json:"company_id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	StockQuantity int64           `gorm:"not null;default:0" json:"stock_quantity"`
	Status        ProductStatus   `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Purchasable はカート追加・注文できる状態か
func (p Product) Purchasable() bool {
	return p.Status == ProductStatusActive && !p.DeletedAt.Valid
}
