package usecase

import (
	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// CartSubtotal は 単価×数量 の合計
func CartSubtotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ShippingCost: expressは固定、標準は閾値以上で無料
func ShippingCost(cfg config.CheckoutConfig, t model.ShippingType, subtotal decimal.Decimal) decimal.Decimal {
	if t == model.ShippingExpress {
		return cfg.ExpressShippingCost
	}
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cfg.StandardShippingCost
}
