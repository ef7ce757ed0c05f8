package model

import "github.com/shopspring/decimal"

// カートの1行（商品×サイズ×色）。
// SelectedSize / SelectedColor が空文字ならバリエーション無しの商品。
type CartLine struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	ImageRef      string          `json:"imageRef,omitempty"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SelectedColor string          `json:"selectedColor,omitempty"`
	Quantity      int64           `json:"quantity"`
}

// 同じ選択かどうかを判定するキー
type CartLineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (l CartLine) Key() CartLineKey {
	return CartLineKey{ProductID: l.ProductID, Size: l.SelectedSize, Color: l.SelectedColor}
}

func (l CartLine) HasSize() bool {
	return l.SelectedSize != ""
}

// 単価×数量
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}
