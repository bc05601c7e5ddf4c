// internal/domain/cart/entity.go
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
	"github.com/your-org/storefront-cart/internal/domain/product"
)

// ErrInvalidQuantity is returned when an update would leave a line outside
// [0, MaxQuantity]
var ErrInvalidQuantity = errors.New("invalid quantity")

// MaxQuantity caps the quantity of a single cart line
const MaxQuantity = 1000

// Keys names the session entries the cart reads and writes
type Keys struct {
	Cart   string
	Coupon string
}

// DefaultKeys matches the default CART_SESSION_ID and COUPON_SESSION_ID
var DefaultKeys = Keys{Cart: "cart", Coupon: "coupon_id"}

// Item is a line item as stored in the session. Price is the unit price
// cached when the product was first added.
type Item struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// TotalPrice returns Price x Quantity
func (i Item) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Line is a cart entry decorated with catalog data. Price is the live
// catalog price, CartPrice the cached one. Product is nil when the catalog no
// longer has the product, in which case Price falls back to CartPrice.
type Line struct {
	ProductID  uint             `json:"product_id"`
	Product    *product.Product `json:"product"`
	Quantity   int              `json:"quantity"`
	Price      decimal.Decimal  `json:"price"`
	CartPrice  decimal.Decimal  `json:"cart_price"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

// PriceChanged reports whether the catalog price moved since the item was added
func (l Line) PriceChanged() bool {
	return l.Product != nil && !l.Price.Equal(l.CartPrice)
}

// Totals summarises a cart
type Totals struct {
	ItemCount       int             `json:"item_count"`     // distinct products
	TotalQuantity   int             `json:"total_quantity"` // Len()
	SubTotal        decimal.Decimal `json:"sub_total"`
	DiscountPercent int             `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// Detail is the full view of a cart returned to clients
type Detail struct {
	SessionID string         `json:"-"`
	Lines     []Line         `json:"items"`
	Coupon    *coupon.Coupon `json:"coupon"`
	Totals    Totals         `json:"totals"`
}
