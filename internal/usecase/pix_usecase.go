package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/domain/pix"
	repo "marketplace/internal/repository"

	"go.uber.org/zap"
)

type PixOutput struct {
	PixCode string `json:"pix_code"`
	// 有効期限（unix秒）。表示用でサーバー側では強制しない
	ExpiresAt int64 `json:"expira_em"`
}

type PixUsecase struct {
	tx     repo.TransactionManager
	expiry time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewPixUsecase(tx repo.TransactionManager, expiry time.Duration, log *zap.Logger) *PixUsecase {
	return &PixUsecase{
		tx:     tx,
		expiry: expiry,
		now:    time.Now,
		log:    log,
	}
}

// GeneratePix は注文のPIXコピペコードを毎回作り直す。保存はしない。
// 注文した本人・担当配達員・店舗スタッフだけが取得できる。
func (u *PixUsecase) GeneratePix(ctx context.Context, actor model.Actor, orderID int64) (PixOutput, error) {
	if actor.UserID <= 0 {
		return PixOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PixOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order model.Order
	var store model.Company

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		order, err = r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}

		if !canSeePix(actor, order) {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		store, err = r.Companies().FindByID(ctx, order.StoreID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "store not found")
		}
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return PixOutput{}, err
	}

	code, err := pix.Encode(PixPayloadFor(order, store))
	if err != nil {
		return PixOutput{}, pixError(err, order)
	}

	u.log.Debug("pix generated", zap.Int64("order_id", order.ID), zap.String("code", order.Code))
	return PixOutput{
		PixCode:   code,
		ExpiresAt: u.now().Add(u.expiry).Unix(),
	}, nil
}

// PixPayloadFor は注文と店舗からPIXの入力を組み立てる。
// 住所は構造化された項目を優先し、無ければ自由入力の住所を解析する。
func PixPayloadFor(order model.Order, store model.Company) pix.Payload {
	city, state := store.City, store.State
	if city == "" && state == "" && store.Address != "" {
		parsed := pix.ParseAddress(store.Address)
		city, state = parsed.City, parsed.State
	}

	key := ""
	if store.PixKey != nil {
		key = *store.PixKey
	}

	return pix.Payload{
		PixKey:       key,
		Amount:       order.Total,
		MerchantName: store.DisplayName(),
		MerchantCity: pix.MerchantCity(city, state),
		TxID:         order.Code,
	}
}

func canSeePix(actor model.Actor, o model.Order) bool {
	switch actor.Role {
	case model.RoleClient:
		return o.UserID == actor.UserID
	case model.RoleDriver:
		return o.DriverID != nil && *o.DriverID == actor.UserID
	case model.RoleStore:
		return actor.BelongsTo(o.StoreID)
	}
	return false
}

func pixError(err error, o model.Order) error {
	switch {
	case errors.Is(err, pix.ErrMissingPixKey), errors.Is(err, pix.ErrInvalidPixKey):
		return NewCodedError(http.StatusUnprocessableEntity, CodePixKeyMissing, err.Error(), map[string]int64{"store_id": o.StoreID})
	case errors.Is(err, pix.ErrInvalidAmount):
		return NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return NewHTTPError(http.StatusInternalServerError, "pix generation failed")
}
