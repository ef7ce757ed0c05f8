package model

import "time"

type CommentKind string

const (
	//ステータス変更の記録
	CommentKindStatusChange CommentKind = "status_change"
	//自由記述のコメント
	CommentKindComment CommentKind = "comment"
)

// 注文へのコメント（追記のみ。更新・削除はしない）。
// status_changeのときだけ FromStatus / ToStatus が入る。
type OrderComment struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    string      `gorm:"type:varchar(64);not null;index" json:"order_id"`
	AuthorID   string      `gorm:"type:varchar(64);not null;index" json:"author_id"`
	Kind       CommentKind `gorm:"type:varchar(20);not null" json:"kind"`
	Body       string      `gorm:"type:text" json:"body"`
	FromStatus OrderStatus `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   OrderStatus `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
