// internal/domain/coupon/entity.go
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrCouponNotFound is returned when no coupon matches a lookup
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrInvalidCoupon wraps every validation failure
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrDuplicateCode is returned when a code is already taken
	ErrDuplicateCode = errors.New("coupon code already exists")
)

const (
	// MaxCodeLength bounds Coupon.Code
	MaxCodeLength = 50
	MinDiscount   = 0
	MaxDiscount   = 100
)

var hundred = decimal.NewFromInt(100)

// Coupon is a percentage discount that can be attached to a session cart
type Coupon struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null;size:50" json:"code"`
	ValidFrom time.Time `gorm:"not null" json:"valid_from"`
	ValidTo   time.Time `gorm:"not null" json:"valid_to"`
	Discount  int       `gorm:"not null;check:discount >= 0 AND discount <= 100" json:"discount"` // percentage 0..100
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Coupon) TableName() string { return "coupons" }

func (c *Coupon) String() string {
	return c.Code
}

// Validate enforces the field constraints of a coupon
func (c *Coupon) Validate() error {
	code := strings.TrimSpace(c.Code)
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		return fmt.Errorf("%w: code must be at most %d characters", ErrInvalidCoupon, MaxCodeLength)
	}
	if c.Discount < MinDiscount || c.Discount > MaxDiscount {
		return fmt.Errorf("%w: discount must be between %d and %d", ErrInvalidCoupon, MinDiscount, MaxDiscount)
	}
	if c.ValidFrom.IsZero() || c.ValidTo.IsZero() {
		return fmt.Errorf("%w: valid_from and valid_to are required", ErrInvalidCoupon)
	}
	if c.ValidTo.Before(c.ValidFrom) {
		return fmt.Errorf("%w: valid_to must not be before valid_from", ErrInvalidCoupon)
	}
	return nil
}

// IsRedeemable reports whether the coupon is active and now lies inside
// [ValidFrom, ValidTo]
func (c *Coupon) IsRedeemable(now time.Time) bool {
	return c.Active && !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

// Rate returns the discount as a fraction, e.g. 15 -> 0.15
func (c *Coupon) Rate() decimal.Decimal {
	return decimal.NewFromInt(int64(c.Discount)).Div(hundred)
}
