package usecase

import (
	"context"
	"fmt"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 読み取りキャッシュ。失敗してもDBにフォールバックする
type CatalogCache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

const catalogStoresKey = "catalog:stores"

func catalogStoreKey(storeID int64) string {
	return fmt.Sprintf("catalog:store:%d", storeID)
}

type StoreOutput struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	AcceptsPix bool   `json:"accepts_pix"`
}

type ProductOutput struct {
	ID            int64               `json:"id"`
	StoreID       int64               `json:"store_id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	StockQuantity int64               `json:"stock_quantity"`
	Status        model.ProductStatus `json:"status"`
}

type CatalogUsecase struct {
	companies repo.CompanyRepository
	products  repo.ProductRepository
	cache     CatalogCache
	log       *zap.Logger
}

func NewCatalogUsecase(
	companies repo.CompanyRepository,
	products repo.ProductRepository,
	cache CatalogCache,
	log *zap.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		companies: companies,
		products:  products,
		cache:     cache,
		log:       log,
	}
}

// 営業中の店舗一覧
func (u *CatalogUsecase) ListStores(ctx context.Context) ([]StoreOutput, error) {
	var cached []StoreOutput
	if u.fromCache(ctx, catalogStoresKey, &cached) {
		return cached, nil
	}

	companies, err := u.companies.ListActive(ctx)
	if err != nil {
		return nil, errDB()
	}

	out := make([]StoreOutput, 0, len(companies))
	for _, c := range companies {
		out = append(out, toStoreOutput(c))
	}

	u.toCache(ctx, catalogStoresKey, out)
	return out, nil
}

// 店舗の公開商品（active のみ）
func (u *CatalogUsecase) ListStoreProducts(ctx context.Context, storeID int64) ([]ProductOutput, error) {
	if storeID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid store id")
	}

	key := catalogStoreKey(storeID)
	var cached []ProductOutput
	if u.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	c, err := u.companies.FindByID(ctx, storeID)
	if err == repo.ErrNotFound || (err == nil && !c.Active) {
		return nil, NewHTTPError(http.StatusNotFound, "store not found")
	}
	if err != nil {
		return nil, errDB()
	}

	items, _, err := u.products.ListByCompany(ctx, repo.ProductListQuery{
		CompanyID: storeID,
		Statuses:  []model.ProductStatus{model.ProductStatusActive},
	})
	if err != nil {
		return nil, errDB()
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}

	u.toCache(ctx, key, out)
	return out, nil
}

// Invalidate は在庫・商品・店舗情報が変わったときに呼ぶ
func (u *CatalogUsecase) Invalidate(ctx context.Context, storeID int64) {
	if err := u.cache.Delete(ctx, catalogStoresKey, catalogStoreKey(storeID)); err != nil {
		u.log.Warn("catalog cache invalidation failed", zap.Int64("store_id", storeID), zap.Error(err))
	}
}

func (u *CatalogUsecase) fromCache(ctx context.Context, key string, dst interface{}) bool {
	hit, err := u.cache.Get(ctx, key, dst)
	if err != nil {
		u.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (u *CatalogUsecase) toCache(ctx context.Context, key string, v interface{}) {
	if err := u.cache.Set(ctx, key, v); err != nil {
		u.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toStoreOutput(c model.Company) StoreOutput {
	return StoreOutput{
		ID:         c.ID,
		Name:       c.DisplayName(),
		Phone:      c.Phone,
		Street:     c.Street,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		AcceptsPix: c.PixKey != nil && *c.PixKey != "",
	}
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:            p.ID,
		StoreID:       p.CompanyID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Status:        p.Status,
	}
}
