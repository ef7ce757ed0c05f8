package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点のカート行のスナップショット。作成後は変更しない。
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string          `gorm:"type:varchar(64);not null;index" json:"order_id"`
	ProductID string          `gorm:"type:varchar(64);not null;index" json:"product_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Size      string          `gorm:"type:varchar(20)" json:"size,omitempty"`
	Color     string          `gorm:"type:varchar(50)" json:"color,omitempty"`
	ImageRef  string          `gorm:"type:varchar(512)" json:"image,omitempty"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
