package usecase

import (
	"context"
	"net/http"

	"marketplace/internal/domain/checkout"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// 1オーナー1カート、中身は1店舗の商品だけ。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

// price は現在の商品価格
type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	StoreID int64              `json:"store_id,omitempty"`
	Items   []CartItemResponse `json:"items"`
	Total   decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func emptyCart() CartResponse {
	return CartResponse{Items: []CartItemResponse{}, Total: decimal.Zero}
}

// GetCart はカート取得（無ければ空を返す。作成はしない）。
func (u *CartUsecase) GetCart(ctx context.Context, actor model.Actor) (CartResponse, error) {
	owner, err := cartOwnerOf(actor)
	if err != nil {
		return CartResponse{}, err
	}

	out := emptyCart()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByOwner(ctx, owner)
		if err == repo.ErrNotFound {
			return nil
		}
		if err != nil {
			return errDB()
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddItem はカートに追加（同一商品は数量加算）。
// 別店舗の商品なら、いまのカートを空にしてから入れる。
func (u *CartUsecase) AddItem(ctx context.Context, actor model.Actor, in AddCartInput) (CartResponse, error) {
	owner, err := cartOwnerOf(actor)
	if err != nil {
		return CartResponse{}, err
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var out CartResponse
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 商品チェック（購入可能なもののみ）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return errDB()
		}
		if !p.Purchasable() {
			return NewHTTPError(http.StatusBadRequest, "product unavailable")
		}

		cart, err := r.Carts().FindByOwner(ctx, owner)
		switch {
		case err == repo.ErrNotFound:
			cart, err = r.Carts().Create(ctx, model.Cart{
				UserID:    owner.UserID,
				CompanyID: owner.CompanyID,
				StoreID:   p.CompanyID,
			})
			if err != nil {
				return errDB()
			}
		case err != nil:
			return errDB()
		case cart.StoreID != p.CompanyID:
			// 店舗が変わったら中身を捨てる
			if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
				return errDB()
			}
			if err := r.Carts().UpdateStore(ctx, cart.ID, p.CompanyID); err != nil {
				return errDB()
			}
			cart.StoreID = p.CompanyID
		}

		item, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, p.ID)
		switch {
		case err == repo.ErrNotFound:
			if err := checkCartStock(p, in.Quantity); err != nil {
				return err
			}
			if _, err := r.CartItems().Create(ctx, model.CartItem{
				CartID:    cart.ID,
				ProductID: p.ID,
				Quantity:  in.Quantity,
			}); err != nil {
				return errDB()
			}
		case err != nil:
			return errDB()
		default:
			newQty := item.Quantity + in.Quantity
			if err := checkCartStock(p, newQty); err != nil {
				return err
			}
			if err := r.CartItems().UpdateQuantity(ctx, item.ID, newQty); err != nil {
				return errDB()
			}
		}

		out, err = buildCartResponse(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// Increment は数量を1つ増やす
func (u *CartUsecase) Increment(ctx context.Context, actor model.Actor, cartItemID int64) (CartResponse, error) {
	return u.changeItem(ctx, actor, cartItemID, func(r repo.TxRepos, cart model.Cart, item model.CartItem) error {
		p, err := r.Products().FindByID(ctx, item.ProductID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "product unavailable")
		}
		if err != nil {
			return errDB()
		}
		if !p.Purchasable() {
			return NewHTTPError(http.StatusBadRequest, "product unavailable")
		}
		if err := checkCartStock(p, item.Quantity+1); err != nil {
			return err
		}
		if err := r.CartItems().UpdateQuantity(ctx, item.ID, item.Quantity+1); err != nil {
			return errDB()
		}
		return nil
	})
}

// Decrement は数量を1つ減らす。0になったら明細を消す
func (u *CartUsecase) Decrement(ctx context.Context, actor model.Actor, cartItemID int64) (CartResponse, error) {
	return u.changeItem(ctx, actor, cartItemID, func(r repo.TxRepos, cart model.Cart, item model.CartItem) error {
		if item.Quantity <= 1 {
			return removeCartItem(ctx, r, cart, item)
		}
		if err := r.CartItems().UpdateQuantity(ctx, item.ID, item.Quantity-1); err != nil {
			return errDB()
		}
		return nil
	})
}

// RemoveItem は明細削除
func (u *CartUsecase) RemoveItem(ctx context.Context, actor model.Actor, cartItemID int64) (CartResponse, error) {
	return u.changeItem(ctx, actor, cartItemID, func(r repo.TxRepos, cart model.Cart, item model.CartItem) error {
		return removeCartItem(ctx, r, cart, item)
	})
}

// changeItem は所有チェックのあと fn を実行し、最新のカートを返す
func (u *CartUsecase) changeItem(
	ctx context.Context,
	actor model.Actor,
	cartItemID int64,
	fn func(r repo.TxRepos, cart model.Cart, item model.CartItem) error,
) (CartResponse, error) {
	owner, err := cartOwnerOf(actor)
	if err != nil {
		return CartResponse{}, err
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	out := emptyCart()
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByOwner(ctx, owner)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}

		item, err := r.CartItems().FindByID(ctx, cartItemID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		//他人のカートの明細は「存在しない扱い」にする
		if item.CartID != cart.ID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if err := fn(r, cart, item); err != nil {
			return err
		}

		cart, err = r.Carts().FindByOwner(ctx, owner)
		if err == repo.ErrNotFound {
			// 最後の明細を消してカートごと無くなった
			return nil
		}
		if err != nil {
			return errDB()
		}
		out, err = buildCartResponse(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 明細を消して、空になったらカートも消す
func removeCartItem(ctx context.Context, r repo.TxRepos, cart model.Cart, item model.CartItem) error {
	if err := r.CartItems().DeleteByID(ctx, item.ID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return errDB()
	}

	rest, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return errDB()
	}
	if len(rest) == 0 {
		if err := r.Carts().Delete(ctx, cart.ID); err != nil {
			return errDB()
		}
	}
	return nil
}

func checkCartStock(p model.Product, qty int64) error {
	if qty <= p.StockQuantity {
		return nil
	}
	return NewCodedError(http.StatusUnprocessableEntity, CodeStockConflict, "insufficient stock", []checkout.Conflict{{
		ProductID: p.ID,
		Name:      p.Name,
		Requested: qty,
		Available: p.StockQuantity,
		Reason:    checkout.ReasonInsufficientStock,
	}})
}

func cartOwnerOf(actor model.Actor) (model.CartOwner, error) {
	if actor.UserID <= 0 {
		return model.CartOwner{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	owner, ok := actor.CartOwner()
	if !ok {
		return model.CartOwner{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return owner, nil
}

// cartの明細をまとめてCartResponseを作る。価格は現在の商品価格。
func buildCartResponse(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartResponse, error) {
	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, errDB()
	}

	out := emptyCart()
	out.StoreID = cart.StoreID

	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, errDB()
		}

		sub := p.Price.Mul(decimal.NewFromInt(it.Quantity))
		out.Items = append(out.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  sub,
		})
		out.Total = out.Total.Add(sub)
	}
	return out, nil
}
