package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"marketplace/internal/domain/checkout"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"go.uber.org/zap"
)

const (
	orderCodeLength   = 6
	orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderCodeAttempts = 5
)

// 注文コード（PIXのtxidにもなる）を作る約束
type OrderCodeGenerator interface {
	NewCode() (string, error)
}

type randomCodeGenerator struct{}

func NewRandomCodeGenerator() OrderCodeGenerator {
	return randomCodeGenerator{}
}

func (randomCodeGenerator) NewCode() (string, error) {
	var sb strings.Builder
	size := big.NewInt(int64(len(orderCodeAlphabet)))
	for i := 0; i < orderCodeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		sb.WriteByte(orderCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// チェックアウト後に店舗カタログ（在庫）のキャッシュを消す
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, storeID int64)
}

type CheckoutUsecase struct {
	tx      repo.TransactionManager
	codes   OrderCodeGenerator
	catalog CatalogInvalidator
	log     *zap.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	codes OrderCodeGenerator,
	catalog CatalogInvalidator,
	log *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:      tx,
		codes:   codes,
		catalog: catalog,
		log:     log,
	}
}

// 確定画面で変更した数量
type CheckoutItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CheckoutInput struct {
	Items []CheckoutItemInput
}

// Checkout はカートを注文に確定する。
// 在庫の確認・減算、注文と明細の作成、カート削除を1トランザクションで行う。
func (u *CheckoutUsecase) Checkout(ctx context.Context, actor model.Actor, in CheckoutInput) (OrderOutput, error) {
	owner, err := cartOwnerOf(actor)
	if err != nil {
		return OrderOutput{}, err
	}

	overrides := make(map[int64]int64, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		overrides[it.ProductID] = it.Quantity
	}

	var out OrderOutput
	var storeID int64

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByOwner(ctx, owner)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return errDB()
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return errDB()
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		lines, err := checkout.ApplyOverrides(checkout.LinesFromCart(cartItems), overrides)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
		}

		// 行ロック（id昇順）
		locked, err := r.Products().LockByIDs(ctx, checkout.ProductIDs(lines))
		if err != nil {
			return errDB()
		}
		products := make(map[int64]model.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		if err := checkout.Validate(lines, products); err != nil {
			return checkoutError(err)
		}

		storeID, err = checkout.StoreOf(lines, products)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "cart mixes stores")
		}

		code, err := u.uniqueCode(ctx, r)
		if err != nil {
			return err
		}

		// 在庫減算。ロック済みなので通常は失敗しない
		for _, l := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return errDB()
			}
			if !ok {
				u.log.Info("checkout lost stock race",
					zap.Int64("product_id", l.ProductID),
					zap.Int64("quantity", l.Quantity),
				)
				return NewCodedError(http.StatusConflict, CodeRaceLost, "stock changed, please retry", []int64{l.ProductID})
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   l.ProductID,
				ActorUserID: actor.UserID,
				Delta:       -l.Quantity,
				Reason:      "order " + code,
			}); err != nil {
				return errDB()
			}
		}

		items, total := checkout.BuildOrderItems(lines, products)

		order, err := r.Orders().Create(ctx, model.Order{
			Code:    code,
			UserID:  actor.UserID,
			StoreID: storeID,
			Status:  model.OrderStatusPending,
			Total:   total,
		})
		if err == repo.ErrDuplicate {
			return NewCodedError(http.StatusConflict, CodeRaceLost, "order code collision, please retry", nil)
		}
		if err != nil {
			return errDB()
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return errDB()
		}

		if err := r.Carts().Delete(ctx, cart.ID); err != nil {
			return errDB()
		}

		out = toOrderOutput(order, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.catalog.Invalidate(ctx, storeID)
	u.log.Info("checkout committed",
		zap.Int64("order_id", out.ID),
		zap.String("code", out.Code),
		zap.Int64("store_id", storeID),
		zap.Int64("user_id", actor.UserID),
		zap.String("total", out.Total.StringFixed(2)),
	)
	return out, nil
}

// 使われていないコードが出るまで作り直す
func (u *CheckoutUsecase) uniqueCode(ctx context.Context, r repo.TxRepos) (string, error) {
	for i := 0; i < orderCodeAttempts; i++ {
		code, err := u.codes.NewCode()
		if err != nil {
			return "", NewHTTPError(http.StatusInternalServerError, "code generation failed")
		}

		_, err = r.Orders().FindByCode(ctx, code)
		if err == repo.ErrNotFound {
			return code, nil
		}
		if err != nil {
			return "", errDB()
		}
	}
	return "", NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("no free order code after %d attempts", orderCodeAttempts))
}

func checkoutError(err error) error {
	if errors.Is(err, checkout.ErrEmptyCart) {
		return NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if errors.Is(err, checkout.ErrInvalidQuantity) {
		return NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	}

	var sc *checkout.StockConflictError
	if errors.As(err, &sc) {
		return NewCodedError(http.StatusUnprocessableEntity, CodeStockConflict, conflictMessage(sc.Conflicts), sc.Conflicts)
	}
	return NewHTTPError(http.StatusInternalServerError, "checkout failed")
}

// 先頭の商品名を入れたメッセージ
func conflictMessage(conflicts []checkout.Conflict) string {
	c := conflicts[0]
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("product %d", c.ProductID)
	}

	msg := "insufficient stock for " + name
	if c.Reason == checkout.ReasonUnavailable {
		msg = name + " is no longer available"
	}
	if len(conflicts) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(conflicts)-1)
	}
	return msg
}
