package model

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleStore  Role = "store"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStore, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// 店舗スタッフと配達員は company_id で1つの店舗に所属する
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'client'" json:"role"`
	CompanyID    *int64    `gorm:"index" json:"company_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
