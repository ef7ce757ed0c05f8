package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("invalid price")

// 保存データのキー揺れ（英語/スペイン語/snake_case）をここで吸収する
var (
	productIDKeys = []string{"productId", "product_id", "id"}
	nameKeys      = []string{"name", "nombre"}
	priceKeys     = []string{"unitPrice", "unit_price", "price", "precio"}
	imageKeys     = []string{"imageRef", "image", "imagen", "image_url"}
	sizeKeys      = []string{"selectedSize", "size", "talla"}
	colorKeys     = []string{"selectedColor", "color"}
	quantityKeys  = []string{"quantity", "cantidad", "qty"}
)

// DecodeCartLines はカートのJSONを CartLine に正規化する。
// 配列として読めない場合だけエラー。商品ID無し・数量が1以上の整数でない行は捨てる。
func DecodeCartLines(blob string) ([]CartLine, error) {
	if strings.TrimSpace(blob) == "" {
		return []CartLine{}, nil
	}

	var raws []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raws); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	lines := make([]CartLine, 0, len(raws))
	for _, raw := range raws {
		line, ok := normalizeLine(raw)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// EncodeCartLines はカート全体を1つのJSONにする
func EncodeCartLines(lines []CartLine) (string, error) {
	if lines == nil {
		lines = []CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(b), nil
}

// ParsePrice は "€12,50" / "$9.99" / "12.50 €" のような表記を数値にする。
// カンマとドットが両方あれば後ろにある方を小数点とみなす。
// カンマだけなら常に小数点として読む（"€1,234" は 1.234 で、千の位の区切りとは扱わない）。
func ParsePrice(s string) (decimal.Decimal, error) {
	t := strings.TrimFunc(strings.TrimSpace(s), func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '.' && r != ','
	})
	if t == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	lastComma := strings.LastIndex(t, ",")
	lastDot := strings.LastIndex(t, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// 1.234,56
		t = strings.ReplaceAll(t, ".", "")
		t = strings.Replace(t, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.56
		t = strings.ReplaceAll(t, ",", "")
	case lastComma >= 0:
		t = strings.Replace(t, ",", ".", 1)
	}

	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return d, nil
}

func normalizeLine(raw map[string]json.RawMessage) (CartLine, bool) {
	line := CartLine{
		ProductID:     firstString(raw, productIDKeys),
		Name:          firstString(raw, nameKeys),
		ImageRef:      firstString(raw, imageKeys),
		SelectedSize:  firstString(raw, sizeKeys),
		SelectedColor: firstString(raw, colorKeys),
	}
	if line.ProductID == "" {
		return CartLine{}, false
	}

	qty, ok := firstInt(raw, quantityKeys)
	if !ok || qty < 1 {
		return CartLine{}, false
	}
	line.Quantity = qty

	if price, ok := firstPrice(raw, priceKeys); ok {
		line.UnitPrice = price
	}
	return line, true
}

func firstString(raw map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		// 数値IDなど
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// 最初に見つかったキーの値だけを見る。整数でなければ ok=false（2.0 は 2 として読む）。
func firstInt(raw map[string]json.RawMessage, keys []string) (int64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return wholeNumber(n.String())
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return wholeNumber(strings.TrimSpace(s))
		}
		return 0, false
	}
	return 0, false
}

func wholeNumber(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

func firstPrice(raw map[string]json.RawMessage, keys []string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if d, err := ParsePrice(s); err == nil {
				return d, true
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			if d, err := decimal.NewFromString(n.String()); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}
