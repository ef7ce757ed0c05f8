package validator_test

import (
	"strings"
	"testing"

	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() usecase.CheckoutCartInput {
	return usecase.CheckoutCartInput{
		Shipping: usecase.ShippingInfo{
			FullName:   "Ana García",
			Street:     "Calle Mayor 1",
			City:       "Madrid",
			PostalCode: "28013",
			Country:    "España",
			Phone:      "+34 600 000 000",
		},
		PaymentMethod: "tarjeta",
	}
}

func TestValidateCheckout_OK(t *testing.T) {
	assert.NoError(t, validator.ValidateCheckout(validInput()))

	in := validInput()
	in.Shipping.Phone = "(03) 1234-5678"
	in.Shipping.PostalCode = "SW1A 1AA"
	assert.NoError(t, validator.ValidateCheckout(in))

	// 空は形式チェックの対象外（必須チェックはセッション側）
	in = validInput()
	in.Shipping.Phone = ""
	in.Shipping.PostalCode = ""
	assert.NoError(t, validator.ValidateCheckout(in))
}

func TestValidateCheckout_Errors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(in *usecase.CheckoutCartInput)
		field string
	}{
		{"phone letters", func(in *usecase.CheckoutCartInput) { in.Shipping.Phone = "call me" }, "phone"},
		{"phone short", func(in *usecase.CheckoutCartInput) { in.Shipping.Phone = "123" }, "phone"},
		{"postal symbols", func(in *usecase.CheckoutCartInput) { in.Shipping.PostalCode = "28#13" }, "postal_code"},
		{"long name", func(in *usecase.CheckoutCartInput) { in.Shipping.FullName = strings.Repeat("a", 201) }, "full_name"},
		{"long notes", func(in *usecase.CheckoutCartInput) { in.Notes = strings.Repeat("n", 1001) }, "notes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(&in)

			err := validator.ValidateCheckout(in)

			var fe *usecase.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
			_, ok := usecase.AsValidationError(err)
			assert.True(t, ok)
		})
	}
}
