package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// 店舗スタッフの商品管理
type ProductUsecase struct {
	tx      repo.TransactionManager
	catalog CatalogInvalidator
}

// DI
func NewProductUsecase(tx repo.TransactionManager, catalog CatalogInvalidator) *ProductUsecase {
	return &ProductUsecase{tx: tx, catalog: catalog}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page   int
	Limit  int
	Q      string
	Status string
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
	Status        string
}

var maxPrice = decimal.RequireFromString("99999999.99")

func (in ProductInput) validate() (model.ProductStatus, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(in.Name) > 255 {
		return "", NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() || in.Price.GreaterThan(maxPrice) {
		return "", NewHTTPError(http.StatusBadRequest, "price out of range")
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return "", NewHTTPError(http.StatusBadRequest, "price must have at most 2 decimals")
	}
	if in.StockQuantity < 0 {
		return "", NewHTTPError(http.StatusBadRequest, "stock_quantity must be >= 0")
	}

	status := model.ProductStatus(in.Status)
	if in.Status == "" {
		status = model.ProductStatusActive
	}
	if !status.Valid() {
		return "", NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return status, nil
}

func (u *ProductUsecase) ListMyProducts(ctx context.Context, actor model.Actor, in ListProductsInput) (ProductListOutput, error) {
	storeID, err := requireCompany(actor, model.RoleStore)
	if err != nil {
		return ProductListOutput{}, err
	}
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	q := repo.ProductListQuery{
		CompanyID: storeID,
		Q:         strings.TrimSpace(in.Q),
		Page:      in.Page,
		Limit:     in.Limit,
	}
	if in.Status != "" {
		st := model.ProductStatus(in.Status)
		if !st.Valid() {
			return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		q.Statuses = []model.ProductStatus{st}
	}

	var out ProductListOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, total, err := r.Products().ListByCompany(ctx, q)
		if err != nil {
			return errDB()
		}

		out = ProductListOutput{Items: make([]ProductOutput, 0, len(items)), Total: total, Page: in.Page, Limit: in.Limit}
		for _, p := range items {
			out.Items = append(out.Items, toProductOutput(p))
		}
		return nil
	})
	if err != nil {
		return ProductListOutput{}, err
	}
	return out, nil
}

func (u *ProductUsecase) GetMyProduct(ctx context.Context, actor model.Actor, productID int64) (ProductOutput, error) {
	var out ProductOutput
	err := u.withOwnProduct(ctx, actor, productID, func(r repo.TxRepos, p model.Product) error {
		out = toProductOutput(p)
		return nil
	})
	return out, err
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, actor model.Actor, in ProductInput) (ProductOutput, error) {
	storeID, err := requireCompany(actor, model.RoleStore)
	if err != nil {
		return ProductOutput{}, err
	}
	status, err := in.validate()
	if err != nil {
		return ProductOutput{}, err
	}

	var out ProductOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			CompanyID:     storeID,
			Name:          strings.TrimSpace(in.Name),
			Description:   in.Description,
			Price:         in.Price,
			StockQuantity: in.StockQuantity,
			Status:        status,
		})
		if err != nil {
			return errDB()
		}
		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.catalog.Invalidate(ctx, storeID)
	return out, nil
}

// UpdateProduct は商品情報と在庫を更新する。在庫が変わったら調整履歴と監査ログを残す。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actor model.Actor, productID int64, in ProductInput) (ProductOutput, error) {
	status, err := in.validate()
	if err != nil {
		return ProductOutput{}, err
	}

	var out ProductOutput
	err = u.withOwnProduct(ctx, actor, productID, func(r repo.TxRepos, p model.Product) error {
		before := p.StockQuantity

		p.Name = strings.TrimSpace(in.Name)
		p.Description = in.Description
		p.Price = in.Price
		p.Status = status
		if err := r.Products().Update(ctx, p); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return errDB()
		}

		if in.StockQuantity != before {
			if err := r.Inventory().SetStockWithAdjustment(ctx, actor.UserID, p.ID, in.StockQuantity, "manual update"); err != nil {
				return errDB()
			}

			//監査ログを作成（在庫更新）
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionUpdateStock,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   p.ID,
				BeforeJSON:   fmt.Sprintf(`{"stock_quantity":%d}`, before),
				AfterJSON:    fmt.Sprintf(`{"stock_quantity":%d}`, in.StockQuantity),
				CreatedAt:    time.Now(),
			}); err != nil {
				return errDB()
			}
			p.StockQuantity = in.StockQuantity
		}

		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.catalog.Invalidate(ctx, out.StoreID)
	return out, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, actor model.Actor, productID int64) error {
	var storeID int64
	err := u.withOwnProduct(ctx, actor, productID, func(r repo.TxRepos, p model.Product) error {
		storeID = p.CompanyID
		if err := r.Products().SoftDelete(ctx, p.ID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return errDB()
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.catalog.Invalidate(ctx, storeID)
	return nil
}

// 自店舗の商品だけ操作できる
func (u *ProductUsecase) withOwnProduct(ctx context.Context, actor model.Actor, productID int64, fn func(r repo.TxRepos, p model.Product) error) error {
	if _, err := requireCompany(actor, model.RoleStore); err != nil {
		return err
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		if !actor.BelongsTo(p.CompanyID) {
			return NewHTTPError(http.StatusForbidden, "product belongs to another store")
		}
		return fn(r, p)
	})
}
