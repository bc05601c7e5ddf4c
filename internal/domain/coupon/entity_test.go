package coupon

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCoupon() Coupon {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Coupon{
		Code:      "SUMMER",
		ValidFrom: from,
		ValidTo:   from.AddDate(0, 1, 0),
		Discount:  15,
		Active:    true,
	}
}

func TestCoupon_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Coupon)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Coupon) {}},
		{name: "zero discount", mutate: func(c *Coupon) { c.Discount = 0 }},
		{name: "full discount", mutate: func(c *Coupon) { c.Discount = 100 }},
		{name: "negative discount", mutate: func(c *Coupon) { c.Discount = -1 }, wantErr: true},
		{name: "discount above 100", mutate: func(c *Coupon) { c.Discount = 101 }, wantErr: true},
		{name: "blank code", mutate: func(c *Coupon) { c.Code = "   " }, wantErr: true},
		{name: "code too long", mutate: func(c *Coupon) { c.Code = strings.Repeat("x", 51) }, wantErr: true},
		{name: "code at limit", mutate: func(c *Coupon) { c.Code = strings.Repeat("x", 50) }},
		{name: "multibyte code at limit", mutate: func(c *Coupon) { c.Code = strings.Repeat("é", 50) }},
		{name: "multibyte code too long", mutate: func(c *Coupon) { c.Code = strings.Repeat("é", 51) }, wantErr: true},
		{name: "window reversed", mutate: func(c *Coupon) { c.ValidTo = c.ValidFrom.Add(-time.Second) }, wantErr: true},
		{name: "single instant window", mutate: func(c *Coupon) { c.ValidTo = c.ValidFrom }},
		{name: "missing window", mutate: func(c *Coupon) { c.ValidFrom = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoupon)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoupon_IsRedeemable(t *testing.T) {
	c := validCoupon()

	assert.True(t, c.IsRedeemable(c.ValidFrom))
	assert.True(t, c.IsRedeemable(c.ValidTo))
	assert.False(t, c.IsRedeemable(c.ValidFrom.Add(-time.Nanosecond)))
	assert.False(t, c.IsRedeemable(c.ValidTo.Add(time.Nanosecond)))

	c.Active = false
	assert.False(t, c.IsRedeemable(c.ValidFrom.Add(time.Hour)))
}

func TestCoupon_Rate(t *testing.T) {
	c := validCoupon()
	assert.True(t, decimal.RequireFromString("0.15").Equal(c.Rate()))

	c.Discount = 0
	assert.True(t, c.Rate().IsZero())
}
