// Package checkout はカート確定時の数量調整・在庫チェック・合計計算を行う。
// DBには触らない。トランザクションは usecase 側で張る。
package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"marketplace/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart empty")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrMixedStores     = errors.New("cart mixes products from different stores")
)

// Line はカートの1行（商品と数量）
type Line struct {
	ProductID int64
	Quantity  int64
}

func LinesFromCart(items []model.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// ApplyOverrides は確定画面で変更された数量を反映する。
// カートにない商品の指定は無視する。
func ApplyOverrides(lines []Line, overrides map[int64]int64) ([]Line, error) {
	out := make([]Line, len(lines))
	copy(out, lines)

	for i := range out {
		q, ok := overrides[out[i].ProductID]
		if !ok {
			continue
		}
		if q < 1 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, out[i].ProductID)
		}
		out[i].Quantity = q
	}
	return out, nil
}

// ProductIDs はロック順を揃えるため昇順で返す
func ProductIDs(lines []Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type ConflictReason string

const (
	ReasonInsufficientStock ConflictReason = "insufficient_stock"
	ReasonUnavailable       ConflictReason = "unavailable"
)

// Conflict は注文できない商品1件分
type Conflict struct {
	ProductID int64          `json:"product_id"`
	Name      string         `json:"name,omitempty"`
	Requested int64          `json:"requested"`
	Available int64          `json:"available"`
	Reason    ConflictReason `json:"reason"`
}

// StockConflictError は1件でも問題があればチェックアウト全体を止めるためのエラー
type StockConflictError struct {
	Conflicts []Conflict
}

func (e *StockConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("product %d (%s)", c.ProductID, c.Reason))
	}
	return "stock conflict: " + strings.Join(parts, ", ")
}

// FindStockConflicts は注文できない商品をすべて集める。
// 削除済み・非公開の商品も ReasonUnavailable として扱う。
func FindStockConflicts(lines []Line, products map[int64]model.Product) []Conflict {
	var conflicts []Conflict
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.Purchasable() {
			conflicts = append(conflicts, Conflict{
				ProductID: l.ProductID,
				Name:      p.Name,
				Requested: l.Quantity,
				Reason:    ReasonUnavailable,
			})
			continue
		}
		if l.Quantity > p.StockQuantity {
			conflicts = append(conflicts, Conflict{
				ProductID: l.ProductID,
				Name:      p.Name,
				Requested: l.Quantity,
				Available: p.StockQuantity,
				Reason:    ReasonInsufficientStock,
			})
		}
	}
	return conflicts
}

// Validate は空カート・数量・在庫をまとめて確認する。
func Validate(lines []Line, products map[int64]model.Product) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w: product %d", ErrInvalidQuantity, l.ProductID)
		}
	}

	if conflicts := FindStockConflicts(lines, products); len(conflicts) > 0 {
		return &StockConflictError{Conflicts: conflicts}
	}
	return nil
}

// StoreOf は全商品が同じ店舗であることを確認して、その店舗IDを返す。
func StoreOf(lines []Line, products map[int64]model.Product) (int64, error) {
	var storeID int64
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		if storeID == 0 {
			storeID = p.CompanyID
			continue
		}
		if p.CompanyID != storeID {
			return 0, ErrMixedStores
		}
	}
	return storeID, nil
}

// BuildOrderItems は現在価格でスナップショットを作り、合計を返す。
// 合計は必ず明細の quantity × price の和と一致する。
func BuildOrderItems(lines []Line, products map[int64]model.Product) ([]model.OrderItem, decimal.Decimal) {
	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, l := range lines {
		p := products[l.ProductID]
		it := model.OrderItem{
			ProductID:   l.ProductID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Price:       p.Price,
		}
		items = append(items, it)
		total = total.Add(it.Subtotal())
	}
	return items, total
}
