package model

import "time"

// 店舗(会社)
type Company struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	LegalName string `gorm:"type:varchar(255)" json:"legal_name"`
	//画面に出す店名
	FinalName string `gorm:"type:varchar(255)" json:"final_name"`
	CNPJ      string `gorm:"column:cnpj;type:varchar(20);uniqueIndex;not null" json:"cnpj"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`

	//旧データの自由入力住所
	Address string `gorm:"type:varchar(255)" json:"address"`

	Street     string `gorm:"type:varchar(255)" json:"street"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	State      string `gorm:"type:varchar(2)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`

	//PIXキー（未設定ならPIX不可）
	PixKey *string `gorm:"type:varchar(77)" json:"pix_key,omitempty"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// DisplayName は final_name、なければ legal_name
func (c Company) DisplayName() string {
	if c.FinalName != "" {
		return c.FinalName
	}
	return c.LegalName
}
