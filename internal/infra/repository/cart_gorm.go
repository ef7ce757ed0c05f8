package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカートJSONを取得
func (r *CartGormRepository) FindByUserID(ctx context.Context, userID string) (string, error) {
	var cart model.StoredCart

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return cart.Items, nil
}

// カート全体を上書き（無ければ作成）
func (r *CartGormRepository) Upsert(ctx context.Context, userID string, itemsJSON string) error {
	cart := model.StoredCart{
		UserID: userID,
		Items:  itemsJSON,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(&cart).Error
}
