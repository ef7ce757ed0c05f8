package usecase_test

import (
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShippingCost(t *testing.T) {
	cfg := config.DefaultCheckoutConfig()

	cases := []struct {
		name     string
		typ      model.ShippingType
		subtotal string
		want     string
	}{
		{"standard under threshold", model.ShippingStandard, "59.99", "3.99"},
		{"standard at threshold", model.ShippingStandard, "60", "0"},
		{"standard over threshold", model.ShippingStandard, "120.50", "0"},
		{"express under threshold", model.ShippingExpress, "10", "7.99"},
		{"express over threshold", model.ShippingExpress, "200", "7.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := usecase.ShippingCost(cfg, tc.typ, decimal.RequireFromString(tc.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got=%s want=%s", got, tc.want)
		})
	}
}

func TestShippingCost_CustomConfig(t *testing.T) {
	cfg := config.DefaultCheckoutConfig()
	cfg.FreeShippingThreshold = decimal.NewFromInt(100)
	cfg.StandardShippingCost = decimal.RequireFromString("4.50")

	got := usecase.ShippingCost(cfg, model.ShippingStandard, decimal.NewFromInt(60))
	assert.True(t, got.Equal(decimal.RequireFromString("4.50")))
}

func TestCartSubtotal(t *testing.T) {
	lines := []model.CartLine{
		line("p1", "M", "", "0.10", 3),
		line("p2", "", "", "19.99", 1),
	}
	got := usecase.CartSubtotal(lines)
	assert.True(t, got.Equal(decimal.RequireFromString("20.29")), "got=%s", got)
	assert.True(t, usecase.CartSubtotal(nil).IsZero())
}
