package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// 管理者の編集は在庫mapも含めて全上書き
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error
}

// サイズ別在庫（stock_por_talla）の読み書き。
type StockRepository interface {
	// 複数商品の在庫mapをまとめて取得。見つからない商品はmapに入らない。
	FindStockMaps(ctx context.Context, productIDs []string) (map[string]model.StockBySize, error)
	FindStockMap(ctx context.Context, productID string) (model.StockBySize, error)
	// 在庫map全体を書き戻す（条件なし）
	SaveStockMap(ctx context.Context, productID string, stock model.StockBySize) error
}
