package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuoteScenarios(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name    string
		lines   []Line
		percent int32
		want    Breakdown
	}{
		{
			name:  "two units of 20 no coupon",
			lines: []Line{{UnitPrice: dec("20"), Quantity: 2}},
			want: Breakdown{
				Subtotal: dec("40"),
				Discount: dec("0"),
				Shipping: dec("9.99"),
				Tax:      dec("3.20"),
				Total:    dec("53.19"),
			},
		},
		{
			name:    "ten percent off still ships on pre-discount subtotal",
			lines:   []Line{{UnitPrice: dec("20"), Quantity: 2}},
			percent: 10,
			want: Breakdown{
				Subtotal: dec("40"),
				Discount: dec("4"),
				Shipping: dec("9.99"),
				Tax:      dec("2.88"),
				Total:    dec("48.87"),
			},
		},
		{
			name:  "over threshold ships free",
			lines: []Line{{UnitPrice: dec("25.01"), Quantity: 2}},
			want: Breakdown{
				Subtotal: dec("50.02"),
				Discount: dec("0"),
				Shipping: dec("0"),
				Tax:      dec("4.0016"),
				Total:    dec("54.0216"),
			},
		},
		{
			name:  "exactly at threshold still pays shipping",
			lines: []Line{{UnitPrice: dec("50"), Quantity: 1}},
			want: Breakdown{
				Subtotal: dec("50"),
				Discount: dec("0"),
				Shipping: dec("9.99"),
				Tax:      dec("4"),
				Total:    dec("63.99"),
			},
		},
		{
			name: "empty cart prices to shipping plus nothing",
			want: Breakdown{
				Subtotal: dec("0"),
				Discount: dec("0"),
				Shipping: dec("9.99"),
				Tax:      dec("0"),
				Total:    dec("9.99"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.Quote(tc.lines, tc.percent)
			assertEqual(t, "subtotal", tc.want.Subtotal, got.Subtotal)
			assertEqual(t, "discount", tc.want.Discount, got.Discount)
			assertEqual(t, "shipping", tc.want.Shipping, got.Shipping)
			assertEqual(t, "tax", tc.want.Tax, got.Tax)
			assertEqual(t, "total", tc.want.Total, got.Total)
		})
	}
}

func TestQuoteIdentity(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	lines := []Line{
		{UnitPrice: dec("12.49"), Quantity: 3},
		{UnitPrice: dec("0.99"), Quantity: 7},
	}

	for _, percent := range []int32{0, 1, 10, 50, 99} {
		b := calc.Quote(lines, percent)

		sum := b.Subtotal.Sub(b.Discount).Add(b.Shipping).Add(b.Tax)
		if !b.Total.Equal(sum) {
			t.Fatalf("percent=%d: total %s != subtotal-discount+shipping+tax %s", percent, b.Total, sum)
		}
		if b.Discount.GreaterThan(b.Subtotal) {
			t.Fatalf("percent=%d: discount %s exceeds subtotal %s", percent, b.Discount, b.Subtotal)
		}
	}
}

func TestQuoteRemovingCouponRestoresTotals(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	lines := []Line{{UnitPrice: dec("15.75"), Quantity: 4}}

	before := calc.Quote(lines, 0)
	_ = calc.Quote(lines, 25)
	after := calc.Quote(lines, 0)

	if !before.Total.Equal(after.Total) || !before.Tax.Equal(after.Tax) {
		t.Fatalf("totals changed across coupon apply/remove: before=%+v after=%+v", before, after)
	}
}

func TestConfigFromStrings(t *testing.T) {
	cfg, err := ConfigFromStrings("50", "9.99", "0.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if !cfg.FreeShippingOver.Equal(def.FreeShippingOver) ||
		!cfg.ShippingFee.Equal(def.ShippingFee) ||
		!cfg.TaxRate.Equal(def.TaxRate) {
		t.Fatalf("parsed config %+v differs from defaults %+v", cfg, def)
	}

	if _, err := ConfigFromStrings("x", "9.99", "0.08"); err == nil {
		t.Fatal("expected parse error for bad threshold")
	}
}

func assertEqual(t *testing.T, field string, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("%s: want %s, got %s", field, want, got)
	}
}
