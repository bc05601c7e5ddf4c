// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/domain/cart"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
	"github.com/your-org/storefront-cart/internal/domain/product"
)

// ProductReader is what the cart endpoints need from the catalog
type ProductReader interface {
	product.Catalog
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
}

// QuoteRenderer turns a cart into a printable document
type QuoteRenderer interface {
	GenerateQuote(detail *cart.Detail, now time.Time) (*bytes.Buffer, error)
}

// CartHandler handles cart endpoints
type CartHandler struct {
	products ProductReader
	coupons  coupon.Finder
	quotes   QuoteRenderer
	keys     cart.Keys
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewCartHandler creates a new cart handler
func NewCartHandler(products ProductReader, coupons coupon.Finder, quotes QuoteRenderer, keys cart.Keys, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		products: products,
		coupons:  coupons,
		quotes:   quotes,
		keys:     keys,
		log:      log,
		now:      time.Now,
	}
}

// AddItemRequest represents add to cart request. Quantity defaults to 1.
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1,max=1000"`
	Override  bool `json:"override"`
}

// CartIssue describes a line that no longer matches the catalog
type CartIssue struct {
	ProductID    uint             `json:"product_id"`
	Issue        string           `json:"issue"`
	CartPrice    decimal.Decimal  `json:"cart_price"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

const (
	issueMissing      = "missing"
	issueUnavailable  = "unavailable"
	issuePriceChanged = "price_changed"
)

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}
	h.respondWithCart(c, crt, http.StatusOK, "Cart retrieved successfully")
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		internalError(c, h.log, "Failed to retrieve product", err)
		return
	}
	if !p.IsAvailable() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product is not available",
		})
		return
	}

	if err := crt.Add(p.ID, p.Price, req.Quantity, req.Override); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid quantity",
				"details": fmt.Sprintf("quantity per product must stay between 0 and %d", cart.MaxQuantity),
			})
			return
		}
		internalError(c, h.log, "Failed to update cart", err)
		return
	}

	h.respondWithCart(c, crt, http.StatusOK, "Item added to cart successfully")
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	if err := crt.Remove(productID); err != nil {
		internalError(c, h.log, "Failed to update cart", err)
		return
	}

	h.respondWithCart(c, crt, http.StatusOK, "Item removed from cart successfully")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	crt.Clear()

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data":    gin.H{"count": crt.Len()},
	})
}

// ValidateCart handles POST /cart/validate. It reports lines whose product
// is gone, inactive or repriced without changing the cart.
func (h *CartHandler) ValidateCart(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	lines, err := crt.Lines(c.Request.Context(), h.products)
	if err != nil {
		internalError(c, h.log, "Failed to validate cart", err)
		return
	}

	issues := make([]CartIssue, 0)
	for _, line := range lines {
		issue := CartIssue{ProductID: line.ProductID, CartPrice: line.CartPrice}
		switch {
		case line.Product == nil:
			issue.Issue = issueMissing
		case !line.Product.IsAvailable():
			issue.Issue = issueUnavailable
		case line.PriceChanged():
			issue.Issue = issuePriceChanged
			current := line.Price
			issue.CurrentPrice = &current
		default:
			continue
		}
		issues = append(issues, issue)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart validated",
		"data": gin.H{
			"valid":  len(issues) == 0,
			"issues": issues,
		},
	})
}

// DownloadQuote handles GET /cart/quote.pdf
func (h *CartHandler) DownloadQuote(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	detail, err := crt.Detail(c.Request.Context(), h.products, h.coupons)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve cart", err)
		return
	}

	now := h.now()
	buf, err := h.quotes.GenerateQuote(detail, now)
	if err != nil {
		internalError(c, h.log, "Failed to generate quote", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quote-%s.pdf"`, now.Format("20060102")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *CartHandler) respondWithCart(c *gin.Context, crt *cart.Cart, status int, message string) {
	detail, err := crt.Detail(c.Request.Context(), h.products, h.coupons)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve cart", err)
		return
	}

	c.JSON(status, gin.H{
		"message": message,
		"data":    detail,
	})
}
