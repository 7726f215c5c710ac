package usecase

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productInput(stock int64) ProductInput {
	return ProductInput{
		Name:          "  Arroz Integral ",
		Description:   "5kg",
		Price:         decimal.RequireFromString("24.50"),
		StockQuantity: stock,
	}
}

func TestProduct_CreateDefaultsToActive(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	inv := &nopInvalidator{}
	uc := NewProductUsecase(db, inv)

	out, err := uc.CreateProduct(context.Background(), staff, productInput(10))
	require.NoError(t, err)

	assert.Equal(t, "Arroz Integral", out.Name)
	assert.Equal(t, model.ProductStatusActive, out.Status)
	assert.Equal(t, storeID, out.StoreID)
	assert.Equal(t, []int64{storeID}, inv.stores)
}

func TestProduct_Validation(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})

	cases := map[string]func(in *ProductInput){
		"empty name":     func(in *ProductInput) { in.Name = "  " },
		"negative price": func(in *ProductInput) { in.Price = decimal.RequireFromString("-1") },
		"three decimals": func(in *ProductInput) { in.Price = decimal.RequireFromString("1.005") },
		"too expensive":  func(in *ProductInput) { in.Price = decimal.RequireFromString("100000000") },
		"negative stock": func(in *ProductInput) { in.StockQuantity = -1 },
		"unknown status": func(in *ProductInput) { in.Status = "deleted" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := productInput(1)
			mutate(&in)
			_, err := uc.CreateProduct(context.Background(), staff, in)
			requireHTTPError(t, err, http.StatusBadRequest, CodeValidation)
		})
	}
}

func TestProduct_UpdateStockRecordsAdjustmentAndAudit(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})

	out, err := uc.UpdateProduct(context.Background(), staff, arrozID, productInput(12))
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.StockQuantity)

	s := db.snapshot()
	assert.Equal(t, int64(12), s.products[arrozID].StockQuantity)
	assert.Equal(t, "24.5", s.products[arrozID].Price.String())
	require.Len(t, s.adjustments, 1)
	assert.Equal(t, int64(7), s.adjustments[0].Delta)
	assert.Equal(t, "manual update", s.adjustments[0].Reason)
	require.Len(t, s.audits, 1)
	assert.Equal(t, model.AuditActionUpdateStock, s.audits[0].Action)
	assert.Equal(t, `{"stock_quantity":5}`, s.audits[0].BeforeJSON)
	assert.Equal(t, `{"stock_quantity":12}`, s.audits[0].AfterJSON)
}

func TestProduct_UpdateWithoutStockChangeSkipsAudit(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})

	_, err := uc.UpdateProduct(context.Background(), staff, arrozID, productInput(5))
	require.NoError(t, err)

	s := db.snapshot()
	assert.Empty(t, s.adjustments)
	assert.Empty(t, s.audits)
}

func TestProduct_OtherStoreIsForbidden(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})
	outsider := model.Actor{UserID: 21, Role: model.RoleStore, CompanyID: int64p(otherID)}

	_, err := uc.UpdateProduct(context.Background(), outsider, arrozID, productInput(1))
	requireHTTPError(t, err, http.StatusForbidden, CodeForbidden)

	err = uc.DeleteProduct(context.Background(), outsider, arrozID)
	requireHTTPError(t, err, http.StatusForbidden, CodeForbidden)

	_, err = uc.GetMyProduct(context.Background(), buyer, arrozID)
	requireHTTPError(t, err, http.StatusForbidden, CodeForbidden)
}

func TestProduct_DeleteHidesFromListAndCheckout(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})
	ctx := context.Background()

	require.NoError(t, uc.DeleteProduct(ctx, staff, feijaoID))

	_, err := uc.GetMyProduct(ctx, staff, feijaoID)
	requireHTTPError(t, err, http.StatusNotFound, CodeNotFound)

	list, err := uc.ListMyProducts(ctx, staff, ListProductsInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)

	// カートに残っていた Feijão は注文できない
	co, _ := newCheckout(db)
	_, err = co.Checkout(ctx, buyer, CheckoutInput{})
	he := requireHTTPError(t, err, http.StatusUnprocessableEntity, CodeStockConflict)
	assert.Equal(t, "Feijão is no longer available", he.Message)
}

func TestProduct_ListFiltersAndPaging(t *testing.T) {
	db := newMemDB()
	seedMarket(db)
	uc := NewProductUsecase(db, &nopInvalidator{})
	ctx := context.Background()

	page, err := uc.ListMyProducts(ctx, staff, ListProductsInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	// 名前順: Arroz, Café, Feijão
	assert.Equal(t, "Feijão", page.Items[0].Name)

	found, err := uc.ListMyProducts(ctx, staff, ListProductsInput{Page: 1, Limit: 20, Q: "caf"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, cafeID, found.Items[0].ID)

	_, err = uc.ListMyProducts(ctx, staff, ListProductsInput{Page: 0, Limit: 20})
	requireHTTPError(t, err, http.StatusBadRequest, CodeValidation)

	_, err = uc.ListMyProducts(ctx, staff, ListProductsInput{Page: 1, Limit: 20, Status: "gone"})
	requireHTTPError(t, err, http.StatusBadRequest, CodeValidation)
}
