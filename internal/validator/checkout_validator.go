package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/usecase"
)

const (
	maxFieldLen = 200
	maxNotesLen = 1000
)

var (
	// 数字・空白・記号のみ（+34 600 000 000 / (03) 1234-5678）
	phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-]{6,20}$`)
	// 英数字・空白・ハイフン
	postalRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{1,9}$`)
)

// チェックアウト入力の形式チェック。
// 必須項目の有無はセッション側で見るので、ここでは空でない値の形と長さだけ見る。
func ValidateCheckout(in usecase.CheckoutCartInput) error {
	fields := []struct {
		name  string
		value string
	}{
		{"full_name", in.Shipping.FullName},
		{"street", in.Shipping.Street},
		{"city", in.Shipping.City},
		{"province", in.Shipping.Province},
		{"country", in.Shipping.Country},
		{"payment_method", in.PaymentMethod},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > maxFieldLen {
			return &usecase.FieldError{Field: f.name, Message: "is too long"}
		}
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return &usecase.FieldError{Field: "notes", Message: "is too long"}
	}

	if v := strings.TrimSpace(in.Shipping.Phone); v != "" && !phoneRe.MatchString(v) {
		return &usecase.FieldError{Field: "phone", Message: "is not a valid phone number"}
	}
	if v := strings.TrimSpace(in.Shipping.PostalCode); v != "" && !postalRe.MatchString(v) {
		return &usecase.FieldError{Field: "postal_code", Message: "is not a valid postal code"}
	}
	return nil
}
