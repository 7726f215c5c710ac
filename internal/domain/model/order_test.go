package model_test

import (
	"testing"

	"marketplace/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckTransition_HappyPath(t *testing.T) {
	steps := []struct {
		from, to model.OrderStatus
		role     model.Role
	}{
		{model.OrderStatusPending, model.OrderStatusReadyForPickup, model.RoleStore},
		{model.OrderStatusReadyForPickup, model.OrderStatusAccepted, model.RoleDriver},
		{model.OrderStatusAccepted, model.OrderStatusOnTheWay, model.RoleDriver},
		{model.OrderStatusOnTheWay, model.OrderStatusDelivered, model.RoleDriver},
	}
	for _, s := range steps {
		assert.NoError(t, model.CheckTransition(s.from, s.to, s.role), "%s -> %s", s.from, s.to)
	}
}

func TestCheckTransition_Rejected(t *testing.T) {
	cases := []struct {
		name     string
		from, to model.OrderStatus
		role     model.Role
	}{
		{"delivered is terminal", model.OrderStatusDelivered, model.OrderStatusAccepted, model.RoleDriver},
		{"skip ready_for_pickup", model.OrderStatusPending, model.OrderStatusAccepted, model.RoleDriver},
		{"skip on_the_way", model.OrderStatusAccepted, model.OrderStatusDelivered, model.RoleDriver},
		{"backwards", model.OrderStatusOnTheWay, model.OrderStatusAccepted, model.RoleDriver},
		{"driver cannot release order", model.OrderStatusPending, model.OrderStatusReadyForPickup, model.RoleDriver},
		{"store cannot deliver", model.OrderStatusOnTheWay, model.OrderStatusDelivered, model.RoleStore},
		{"client cannot accept", model.OrderStatusReadyForPickup, model.OrderStatusAccepted, model.RoleClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, model.CheckTransition(tc.from, tc.to, tc.role), model.ErrInvalidTransition)
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, err := model.ParseOrderStatus("on_the_way")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusOnTheWay, st)

	_, err = model.ParseOrderStatus("SHIPPED")
	assert.ErrorIs(t, err, model.ErrUnknownOrderStatus)

	assert.True(t, model.OrderStatusDelivered.Terminal())
	assert.False(t, model.OrderStatusPending.Terminal())
}

func TestOrderItem_Subtotal(t *testing.T) {
	it := model.OrderItem{Quantity: 3, Price: decimal.RequireFromString("9.90")}
	assert.True(t, decimal.RequireFromString("29.70").Equal(it.Subtotal()))
}

func TestActor_CartOwner(t *testing.T) {
	storeID := int64(7)

	client := model.Actor{UserID: 1, Role: model.RoleClient, CompanyID: &storeID}
	owner, ok := client.CartOwner()
	assert.True(t, ok)
	assert.NoError(t, owner.Validate())
	assert.Equal(t, int64(1), *owner.UserID)
	assert.Nil(t, owner.CompanyID)

	staff := model.Actor{UserID: 2, Role: model.RoleStore, CompanyID: &storeID}
	owner, ok = staff.CartOwner()
	assert.True(t, ok)
	assert.Nil(t, owner.UserID)
	assert.Equal(t, storeID, *owner.CompanyID)
	assert.True(t, staff.BelongsTo(7))
	assert.False(t, staff.BelongsTo(8))

	_, ok = model.Actor{UserID: 3, Role: model.RoleDriver}.CartOwner()
	assert.False(t, ok)

	// 店舗所属の配達員・管理者もカートを持たない
	_, ok = model.Actor{UserID: 4, Role: model.RoleDriver, CompanyID: &storeID}.CartOwner()
	assert.False(t, ok)
	_, ok = model.Actor{UserID: 5, Role: model.RoleAdmin, CompanyID: &storeID}.CartOwner()
	assert.False(t, ok)
	_, ok = model.Actor{UserID: 6, Role: model.RoleStore}.CartOwner()
	assert.False(t, ok)

	assert.ErrorIs(t, model.CartOwner{}.Validate(), model.ErrInvalidCartOwner)
}
