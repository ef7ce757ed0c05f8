package repository

import (
	"context"
	"time"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// 注文イベント（メール送信など外部の処理が購読する）
type OrderEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	FromStatus string    `json:"from_status,omitempty"`
	Total      string    `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}
