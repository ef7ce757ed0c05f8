package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type orderCommentGormRepository struct {
	db *gorm.DB
}

func NewOrderCommentGormRepository(db *gorm.DB) repo.OrderCommentRepository {
	return &orderCommentGormRepository{db: db}
}

func (r *orderCommentGormRepository) Create(ctx context.Context, c model.OrderComment) (model.OrderComment, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.OrderComment{}, err
	}
	return c, nil
}

// 古い順
func (r *orderCommentGormRepository) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderComment, error) {
	var comments []model.OrderComment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
