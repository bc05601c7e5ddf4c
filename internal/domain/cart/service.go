// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
	"github.com/your-org/storefront-cart/internal/domain/product"
	"github.com/your-org/storefront-cart/internal/domain/session"
)

// Cart is a view over the cart mapping held in a session. Every mutation is
// written straight back to the session, which marks it modified.
type Cart struct {
	sess     *session.Session
	keys     Keys
	items    map[string]Item
	couponID *uint
}

// New reads the cart from sess, storing an empty one when the session has none
func New(sess *session.Session, keys Keys) (*Cart, error) {
	c := &Cart{
		sess:  sess,
		keys:  keys,
		items: make(map[string]Item),
	}

	found, err := sess.Get(keys.Cart, &c.items)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if !found || c.items == nil {
		c.items = make(map[string]Item)
		if err := c.save(); err != nil {
			return nil, err
		}
	}

	var id uint
	found, err = sess.Get(keys.Coupon, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart coupon: %w", err)
	}
	if found {
		c.couponID = &id
	}

	return c, nil
}

func itemKey(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}

func (c *Cart) save() error {
	if err := c.sess.Set(c.keys.Cart, c.items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Add puts a product in the cart or updates its quantity. A new entry caches
// price; an existing entry keeps the price it was added with. With override
// the quantity is replaced, otherwise it is added to. A resulting quantity
// outside [0, MaxQuantity] leaves the cart untouched and returns
// ErrInvalidQuantity.
func (c *Cart) Add(productID uint, price decimal.Decimal, quantity int, override bool) error {
	key := itemKey(productID)
	item, ok := c.items[key]
	if !ok {
		item = Item{Quantity: 0, Price: price}
	}
	next := quantity
	if !override {
		if quantity > 0 && item.Quantity > math.MaxInt-quantity {
			return fmt.Errorf("%w: product %d", ErrInvalidQuantity, productID)
		}
		next = item.Quantity + quantity
	}
	if next < 0 || next > MaxQuantity {
		return fmt.Errorf("%w: %d for product %d", ErrInvalidQuantity, next, productID)
	}
	item.Quantity = next
	c.items[key] = item
	return c.save()
}

// Remove drops a product from the cart. Removing an absent product is a no-op
// and leaves the session unmodified.
func (c *Cart) Remove(productID uint) error {
	key := itemKey(productID)
	if _, ok := c.items[key]; !ok {
		return nil
	}
	delete(c.items, key)
	return c.save()
}

// Item returns the stored entry for a product
func (c *Cart) Item(productID uint) (Item, bool) {
	item, ok := c.items[itemKey(productID)]
	return item, ok
}

// ProductIDs returns the ids in the cart in ascending order. Keys that are
// not numeric ids are skipped.
func (c *Cart) ProductIDs() []uint {
	ids := make([]uint, 0, len(c.items))
	for key := range c.items {
		id, err := strconv.ParseUint(key, 10, 0)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lines fetches the cart's products in one call and returns one line per
// entry, ordered by product id.
func (c *Cart) Lines(ctx context.Context, catalog product.Catalog) ([]Line, error) {
	ids := c.ProductIDs()
	products, err := catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	byID := make(map[uint]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		item := c.items[itemKey(id)]
		line := Line{
			ProductID: id,
			Quantity:  item.Quantity,
			Price:     item.Price,
			CartPrice: item.Price,
		}
		if p, ok := byID[id]; ok {
			line.Product = p
			line.Price = p.Price
		}
		line.TotalPrice = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lines = append(lines, line)
	}
	return lines, nil
}

// Len returns the total quantity across all entries
func (c *Cart) Len() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// TotalPrice sums cached price x quantity
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// Clear removes the cart from the session
func (c *Cart) Clear() {
	c.items = make(map[string]Item)
	c.sess.Delete(c.keys.Cart)
	c.sess.MarkModified()
}

// SetCoupon stores the coupon id in the session
func (c *Cart) SetCoupon(id uint) error {
	if err := c.sess.Set(c.keys.Coupon, id); err != nil {
		return fmt.Errorf("failed to save cart coupon: %w", err)
	}
	c.couponID = &id
	return nil
}

// RemoveCoupon clears the coupon id from the session
func (c *Cart) RemoveCoupon() {
	c.sess.Delete(c.keys.Coupon)
	c.couponID = nil
}

// CouponID returns the coupon id stored in the session, if any
func (c *Cart) CouponID() (uint, bool) {
	if c.couponID == nil {
		return 0, false
	}
	return *c.couponID, true
}

// Coupon resolves the session coupon id. A missing id or a coupon that no
// longer exists yields ok == false. The validity window and the active flag
// are not checked here.
func (c *Cart) Coupon(ctx context.Context, finder coupon.Finder) (*coupon.Coupon, bool, error) {
	id, ok := c.CouponID()
	if !ok {
		return nil, false, nil
	}
	cp, err := finder.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return cp, true, nil
}

// Discount returns discount/100 x TotalPrice, or zero without a coupon
func (c *Cart) Discount(ctx context.Context, finder coupon.Finder) (decimal.Decimal, error) {
	cp, ok, err := c.Coupon(ctx, finder)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return cp.Rate().Mul(c.TotalPrice()), nil
}

// TotalPriceAfterDiscount returns TotalPrice minus Discount
func (c *Cart) TotalPriceAfterDiscount(ctx context.Context, finder coupon.Finder) (decimal.Decimal, error) {
	discount, err := c.Discount(ctx, finder)
	if err != nil {
		return decimal.Zero, err
	}
	return c.TotalPrice().Sub(discount), nil
}

// Detail assembles lines, the resolved coupon and totals in one view
func (c *Cart) Detail(ctx context.Context, catalog product.Catalog, finder coupon.Finder) (*Detail, error) {
	lines, err := c.Lines(ctx, catalog)
	if err != nil {
		return nil, err
	}

	cp, ok, err := c.Coupon(ctx, finder)
	if err != nil {
		return nil, err
	}

	subTotal := c.TotalPrice()
	totals := Totals{
		ItemCount:      len(c.items),
		TotalQuantity:  c.Len(),
		SubTotal:       subTotal,
		DiscountAmount: decimal.Zero,
		TotalAmount:    subTotal,
	}
	if ok {
		totals.DiscountPercent = cp.Discount
		totals.DiscountAmount = cp.Rate().Mul(subTotal)
		totals.TotalAmount = subTotal.Sub(totals.DiscountAmount)
	} else {
		cp = nil
	}

	return &Detail{
		SessionID: c.sess.ID,
		Lines:     lines,
		Coupon:    cp,
		Totals:    totals,
	}, nil
}
