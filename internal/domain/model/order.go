package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pendiente"
	OrderStatusProcessing OrderStatus = "procesando"
	OrderStatusShipped    OrderStatus = "enviado"
	OrderStatusDelivered  OrderStatus = "entregado"
	OrderStatusCancelled  OrderStatus = "cancelado"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 終端（これ以上変更できない）
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type ShippingType string

const (
	ShippingStandard ShippingType = "estandar"
	ShippingExpress  ShippingType = "express"
)

func (t ShippingType) Valid() bool {
	return t == ShippingStandard || t == ShippingExpress
}

type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status          OrderStatus     `gorm:"column:estado;type:varchar(20);not null;index" json:"estado"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	ShippingType    ShippingType    `gorm:"type:varchar(20);not null" json:"shipping_type"`
	ShippingCost    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
