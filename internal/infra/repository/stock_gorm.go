package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// products.stock_por_talla だけを読み書きする
type StockGormRepository struct {
	db *gorm.DB
}

func NewStockGormRepository(db *gorm.DB) *StockGormRepository {
	return &StockGormRepository{db: db}
}

// チェックアウト画面に入ったときの一括取得
func (r *StockGormRepository) FindStockMaps(ctx context.Context, productIDs []string) (map[string]model.StockBySize, error) {
	out := make(map[string]model.StockBySize, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []model.Product
	if err := r.db.WithContext(ctx).
		Select("id", "stock_por_talla").
		Where("id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, p := range rows {
		out[p.ID] = p.StockBySize
	}
	return out, nil
}

func (r *StockGormRepository) FindStockMap(ctx context.Context, productID string) (model.StockBySize, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Select("id", "stock_por_talla").
		Where("id = ?", productID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p.StockBySize, nil
}

// 在庫mapを書き戻す。現在値の条件は付けない（読んでから書くまでの間の変更は上書きされる）。
func (r *StockGormRepository) SaveStockMap(ctx context.Context, productID string, stock model.StockBySize) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_por_talla", stock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
