package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusOnTheWay       OrderStatus = "on_the_way"
	OrderStatusDelivered      OrderStatus = "delivered"
)

var (
	ErrUnknownOrderStatus = errors.New("unknown order status")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)

// 許可される遷移と、それを行うロール
var orderTransitions = map[OrderStatus]struct {
	next OrderStatus
	role Role
}{
	OrderStatusPending:        {next: OrderStatusReadyForPickup, role: RoleStore},
	OrderStatusReadyForPickup: {next: OrderStatusAccepted, role: RoleDriver},
	OrderStatusAccepted:       {next: OrderStatusOnTheWay, role: RoleDriver},
	OrderStatusOnTheWay:       {next: OrderStatusDelivered, role: RoleDriver},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusReadyForPickup, OrderStatusAccepted, OrderStatusOnTheWay, OrderStatusDelivered:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, s)
}

// Terminal は delivered のこと
func (s OrderStatus) Terminal() bool {
	_, ok := orderTransitions[s]
	return !ok
}

// CheckTransition は from -> to がそのロールに許されているか確認する。
func CheckTransition(from, to OrderStatus, role Role) error {
	t, ok := orderTransitions[from]
	if !ok || t.next != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if t.role != role {
		return fmt.Errorf("%w: %s -> %s is not allowed for %s", ErrInvalidTransition, from, to, role)
	}
	return nil
}

type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	//PIXのtxidにも使う6桁の英数字
	Code     string      `gorm:"type:varchar(6);not null;uniqueIndex" json:"code"`
	UserID   int64       `gorm:"not null;index" json:"user_id"`
	StoreID  int64       `gorm:"not null;index" json:"store_id"`
	DriverID *int64      `gorm:"index" json:"driver_id"`
	Status   OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//作成時の合計。あとから再計算しない
	Total     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
