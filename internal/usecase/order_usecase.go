package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx  repo.TransactionManager
	log *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, log: log}
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID        int64             `json:"id"`
	Code      string            `json:"code"`
	UserID    int64             `json:"user_id"`
	StoreID   int64             `json:"store_id"`
	DriverID  *int64            `json:"driver_id"`
	Status    model.OrderStatus `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []OrderItemOutput `json:"items"`
}

type UpdateOrderStatusInput struct {
	Status string
}

// 自分（client）の注文一覧
func (u *OrderUsecase) ListMyOrders(ctx context.Context, actor model.Actor) ([]OrderOutput, error) {
	if actor.UserID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.list(ctx, func(r repo.TxRepos) ([]model.Order, error) {
		return r.Orders().ListByUserID(ctx, actor.UserID)
	})
}

// 店舗スタッフ用：自店舗の注文一覧
func (u *OrderUsecase) ListStoreOrders(ctx context.Context, actor model.Actor) ([]OrderOutput, error) {
	storeID, err := requireCompany(actor, model.RoleStore)
	if err != nil {
		return []OrderOutput{}, err
	}
	return u.list(ctx, func(r repo.TxRepos) ([]model.Order, error) {
		return r.Orders().ListByStoreID(ctx, storeID)
	})
}

// 配達員用：自店舗の未割り当て ready_for_pickup と、自分が担当中の注文
func (u *OrderUsecase) ListDriverOrders(ctx context.Context, actor model.Actor) ([]OrderOutput, error) {
	storeID, err := requireCompany(actor, model.RoleDriver)
	if err != nil {
		return []OrderOutput{}, err
	}
	return u.list(ctx, func(r repo.TxRepos) ([]model.Order, error) {
		return r.Orders().ListForDriver(ctx, actor.UserID, storeID)
	})
}

// 店舗が注文を ready_for_pickup にする
func (u *OrderUsecase) UpdateStoreStatus(ctx context.Context, actor model.Actor, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if _, err := requireCompany(actor, model.RoleStore); err != nil {
		return OrderOutput{}, err
	}
	to, err := parseStatus(in.Status)
	if err != nil {
		return OrderOutput{}, err
	}
	if to != model.OrderStatusReadyForPickup {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "store can only set ready_for_pickup")
	}

	return u.transition(ctx, actor, orderID, to, func(o model.Order) error {
		if !actor.BelongsTo(o.StoreID) {
			return NewHTTPError(http.StatusForbidden, "order belongs to another store")
		}
		return nil
	})
}

// MarkReadyForPickup は UpdateStoreStatus の短縮形
func (u *OrderUsecase) MarkReadyForPickup(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.UpdateStoreStatus(ctx, actor, orderID, UpdateOrderStatusInput{Status: string(model.OrderStatusReadyForPickup)})
}

// Accept は配達員が注文を引き受ける。先に取った1人だけが成功する。
func (u *OrderUsecase) Accept(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	if _, err := requireCompany(actor, model.RoleDriver); err != nil {
		return OrderOutput{}, err
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		if !actor.BelongsTo(o.StoreID) {
			return NewHTTPError(http.StatusForbidden, "order belongs to another store")
		}

		// 読み取りと更新の間に他の配達員が取ることがあるので、判定は UPDATE の WHERE に任せる
		ok, err := r.Orders().AcceptIfAvailable(ctx, orderID, actor.UserID)
		if err != nil {
			return errDB()
		}
		if !ok {
			u.log.Info("order accept lost",
				zap.Int64("order_id", orderID),
				zap.Int64("driver_id", actor.UserID),
			)
			return NewCodedError(http.StatusConflict, CodeRaceLost, "order no longer available", nil)
		}

		if err := auditStatus(ctx, r, actor.UserID, model.AuditActionAcceptOrder, o.ID, o.Status, model.OrderStatusAccepted); err != nil {
			return err
		}

		updated, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return errDB()
		}
		out, err = loadOrderOutput(ctx, r, updated)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order accepted", zap.Int64("order_id", orderID), zap.Int64("driver_id", actor.UserID))
	return out, nil
}

// 担当配達員が on_the_way / delivered に進める
func (u *OrderUsecase) UpdateDeliveryStatus(ctx context.Context, actor model.Actor, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if _, err := requireCompany(actor, model.RoleDriver); err != nil {
		return OrderOutput{}, err
	}
	to, err := parseStatus(in.Status)
	if err != nil {
		return OrderOutput{}, err
	}
	if to != model.OrderStatusOnTheWay && to != model.OrderStatusDelivered {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "driver can only set on_the_way or delivered")
	}

	return u.transition(ctx, actor, orderID, to, func(o model.Order) error {
		if !actor.BelongsTo(o.StoreID) {
			return NewHTTPError(http.StatusForbidden, "order belongs to another store")
		}
		if o.DriverID == nil || *o.DriverID != actor.UserID {
			return NewHTTPError(http.StatusForbidden, "order is assigned to another driver")
		}
		return nil
	})
}

// transition は権限チェック → 遷移チェック → 条件付き更新 → 監査ログ
func (u *OrderUsecase) transition(
	ctx context.Context,
	actor model.Actor,
	orderID int64,
	to model.OrderStatus,
	authorize func(o model.Order) error,
) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		if err := authorize(o); err != nil {
			return err
		}

		if err := model.CheckTransition(o.Status, to, actor.Role); err != nil {
			return NewHTTPError(http.StatusConflict, "cannot change status from "+string(o.Status)+" to "+string(to))
		}

		upd := repo.StatusUpdate{OrderID: o.ID, From: o.Status, To: to}
		if actor.Role == model.RoleDriver {
			upd.DriverID = &actor.UserID
		}
		ok, err := r.Orders().UpdateStatusIf(ctx, upd)
		if err != nil {
			return errDB()
		}
		if !ok {
			return NewCodedError(http.StatusConflict, CodeRaceLost, "order status changed, please refresh", nil)
		}

		if err := auditStatus(ctx, r, actor.UserID, model.AuditActionUpdateOrderStatus, o.ID, o.Status, to); err != nil {
			return err
		}

		o.Status = to
		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(to)),
		zap.Int64("actor_id", actor.UserID),
	)
	return out, nil
}

func (u *OrderUsecase) list(ctx context.Context, find func(r repo.TxRepos) ([]model.Order, error)) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := find(r)
		if err != nil {
			return errDB()
		}

		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		items, err := r.OrderItems().ListByOrderIDs(ctx, ids)
		if err != nil {
			return errDB()
		}
		byOrder := make(map[int64][]model.OrderItem, len(orders))
		for _, it := range items {
			byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	return toOrderOutput(o, items), nil
}

func auditStatus(ctx context.Context, r repo.TxRepos, actorID int64, action model.AuditAction, orderID int64, from, to model.OrderStatus) error {
	//「誰が」「何を」「どの対象に」「どう変えたか」を残す
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   `{"status":` + strconv.Quote(string(from)) + `}`,
		AfterJSON:    `{"status":` + strconv.Quote(string(to)) + `}`,
		CreatedAt:    time.Now(),
	}); err != nil {
		return errDB()
	}
	return nil
}

func parseStatus(s string) (model.OrderStatus, error) {
	st, err := model.ParseOrderStatus(s)
	if errors.Is(err, model.ErrUnknownOrderStatus) {
		return "", NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return st, err
}

// requireCompany はロールと所属店舗を確認して店舗IDを返す
func requireCompany(actor model.Actor, role model.Role) (int64, error) {
	if actor.UserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if actor.Role != role || actor.CompanyID == nil {
		return 0, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return *actor.CompanyID, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:        o.ID,
		Code:      o.Code,
		UserID:    o.UserID,
		StoreID:   o.StoreID,
		DriverID:  o.DriverID,
		Status:    o.Status,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     outItems,
	}
}
