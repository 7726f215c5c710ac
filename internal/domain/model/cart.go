package model

import (
	"errors"
	"time"
)

var ErrInvalidCartOwner = errors.New("cart owner must be exactly one of user or company")

// CartOwner はユーザーか会社のどちらか一方だけ
type CartOwner struct {
	UserID    *int64
	CompanyID *int64
}

func (o CartOwner) Validate() error {
	if (o.UserID == nil) == (o.CompanyID == nil) {
		return ErrInvalidCartOwner
	}
	return nil
}

// 1オーナーにつきカートは1つ。中身は1店舗の商品だけ。
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	CompanyID *int64    `gorm:"uniqueIndex" json:"company_id,omitempty"`
	StoreID   int64     `gorm:"not null;index" json:"store_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c Cart) Owner() CartOwner {
	return CartOwner{UserID: c.UserID, CompanyID: c.CompanyID}
}
