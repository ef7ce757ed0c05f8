package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// サイズ→在庫数（stock_por_talla）
type StockBySize map[string]int64

// サイズの在庫を返す（キーが無ければ0）
func (s StockBySize) Available(size string) int64 {
	if s == nil {
		return 0
	}
	return s[size]
}

// 呼び出し側の変更が元のmapに影響しないようにコピーする
func (s StockBySize) Clone() StockBySize {
	out := make(StockBySize, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DBにはJSON文字列として保存する
func (s StockBySize) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int64(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StockBySize) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = StockBySize{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("stock_por_talla: unsupported type %T", src)
	}
	out := StockBySize{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return fmt.Errorf("stock_por_talla: %w", err)
		}
	}
	*s = out
	return nil
}

type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	ImageRef    string          `gorm:"type:varchar(512)" json:"image"`
	StockBySize StockBySize     `gorm:"column:stock_por_talla;type:text" json:"stock_por_talla"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
