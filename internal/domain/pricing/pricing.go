// 金額はすべて最小通貨単位（int64）で計算する
package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// 小計がint64に収まらない
var ErrAmountOverflow = errors.New("amount overflows")

// カート1回分の計算結果
type Breakdown struct {
	Subtotal    int64   `json:"subtotal"`
	Discount    int64   `json:"discount"`
	ShippingFee int64   `json:"shipping_fee"`
	Total       int64   `json:"total"`
	CouponCode  *string `json:"coupon_code,omitempty"`
}

// 現在価格での1行
type Line struct {
	UnitPrice int64
	Quantity  int64
}

// 計算に必要な送料設定だけ
type ShippingRule struct {
	Rate                  int64
	FreeShippingThreshold *int64
	FreeShippingEnabled   bool
}

func RuleFromSettings(s model.ShippingSettings) ShippingRule {
	return ShippingRule{
		Rate:                  s.Rate,
		FreeShippingThreshold: s.FreeShippingThreshold,
		FreeShippingEnabled:   s.IsFreeShippingEnabled,
	}
}

// 負の単価・数量と桁あふれはエラー
func Subtotal(lines []Line) (int64, error) {
	var sum int64
	for _, l := range lines {
		if l.UnitPrice < 0 || l.Quantity < 0 {
			return 0, ErrAmountOverflow
		}
		if l.UnitPrice > 0 && l.Quantity > math.MaxInt64/l.UnitPrice {
			return 0, ErrAmountOverflow
		}
		line := l.UnitPrice * l.Quantity
		if sum > math.MaxInt64-line {
			return 0, ErrAmountOverflow
		}
		sum += line
	}
	return sum, nil
}

// 割引額は0〜小計に収める
// 率指定は最小単位で四捨五入
func Discount(subtotal int64, c *model.Coupon) int64 {
	if c == nil || subtotal <= 0 {
		return 0
	}

	var d int64
	switch c.DiscountType {
	case model.DiscountPercentage:
		d = decimal.NewFromInt(subtotal).Mul(c.DiscountValue).Div(hundred).Round(0).IntPart()
	case model.DiscountFixed:
		d = c.DiscountValue.Round(0).IntPart()
	}

	if d < 0 {
		return 0
	}
	if d > subtotal {
		return subtotal
	}
	return d
}

// 送料無料が有効で、割引後の小計が閾値以上なら0
// 閾値nilは0扱い
func ShippingFee(discounted int64, rule ShippingRule) int64 {
	if rule.FreeShippingEnabled {
		var threshold int64
		if rule.FreeShippingThreshold != nil {
			threshold = *rule.FreeShippingThreshold
		}
		if discounted >= threshold {
			return 0
		}
	}
	return rule.Rate
}

func Calculate(subtotal int64, c *model.Coupon, rule ShippingRule) Breakdown {
	discount := Discount(subtotal, c)
	fee := ShippingFee(subtotal-discount, rule)

	b := Breakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: fee,
		Total:       subtotal - discount + fee,
	}
	if c != nil {
		code := c.Code
		b.CouponCode = &code
	}
	return b
}

// 決済代行に渡す金額（すでに最小単位なのでそのまま）
func ToGatewayAmount(total int64) int64 {
	return total
}
