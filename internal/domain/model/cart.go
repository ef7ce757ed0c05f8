package model

import "time"

// ユーザーごとのカート（carts-by-user）。
// Itemsはカート全体のJSON。行単位の更新はせず、毎回まるごと上書きする。
type StoredCart struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Items     string    `gorm:"type:text;not null" json:"items"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (StoredCart) TableName() string {
	return "carts"
}
