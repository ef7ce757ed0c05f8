package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
}

// 注文コメントは追記のみ
type OrderCommentRepository interface {
	Create(ctx context.Context, c model.OrderComment) (model.OrderComment, error)
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderComment, error)
}
