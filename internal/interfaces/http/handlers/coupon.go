// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/domain/cart"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
)

// CouponStore covers redemption lookups and back-office management
type CouponStore interface {
	coupon.Finder
	FindRedeemable(ctx context.Context, code string, now time.Time) (*coupon.Coupon, error)
	ListCoupons(ctx context.Context, page, limit int) (*coupon.CouponList, error)
	CreateCoupon(ctx context.Context, req *coupon.CreateCouponRequest) (*coupon.Coupon, error)
	UpdateCoupon(ctx context.Context, id uint, req *coupon.UpdateCouponRequest) (*coupon.Coupon, error)
	DeleteCoupon(ctx context.Context, id uint) error
}

// CouponHandler handles coupon endpoints
type CouponHandler struct {
	coupons CouponStore
	keys    cart.Keys
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(coupons CouponStore, keys cart.Keys, log logrus.FieldLogger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		keys:    keys,
		log:     log,
		now:     time.Now,
	}
}

// ApplyCouponRequest represents a coupon code submitted by the shopper
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,max=50"`
}

// ListCouponsRequest represents admin list query parameters
type ListCouponsRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// ApplyCoupon handles POST /coupons/apply. A code that is unknown, inactive
// or outside its window clears any coupon already on the session.
func (h *CouponHandler) ApplyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	cp, err := h.coupons.FindRedeemable(c.Request.Context(), req.Code, h.now().UTC())
	if err != nil {
		if errors.Is(err, coupon.ErrCouponNotFound) {
			crt.RemoveCoupon()
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Invalid or expired coupon",
			})
			return
		}
		internalError(c, h.log, "Failed to apply coupon", err)
		return
	}

	if err := crt.SetCoupon(cp.ID); err != nil {
		internalError(c, h.log, "Failed to apply coupon", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied successfully",
		"data":    cp,
	})
}

// RemoveCoupon handles DELETE /coupons/apply
func (h *CouponHandler) RemoveCoupon(c *gin.Context) {
	crt, ok := loadCart(c, h.keys, h.log)
	if !ok {
		return
	}

	crt.RemoveCoupon()

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed successfully",
	})
}

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	var req ListCouponsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	list, err := h.coupons.ListCoupons(c.Request.Context(), req.Page, req.Limit)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve coupons", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupons retrieved successfully",
		"data":    list,
	})
}

// GetCoupon handles GET /admin/coupons/:id
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "coupon")
	if !ok {
		return
	}

	cp, err := h.coupons.FindByID(c.Request.Context(), id)
	if err != nil {
		h.writeCouponError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon retrieved successfully",
		"data":    cp,
	})
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cp, err := h.coupons.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		h.writeCouponError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon created successfully",
		"data":    cp,
	})
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "coupon")
	if !ok {
		return
	}

	var req coupon.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cp, err := h.coupons.UpdateCoupon(c.Request.Context(), id, &req)
	if err != nil {
		h.writeCouponError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon updated successfully",
		"data":    cp,
	})
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "coupon")
	if !ok {
		return
	}

	if err := h.coupons.DeleteCoupon(c.Request.Context(), id); err != nil {
		h.writeCouponError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully",
	})
}

func (h *CouponHandler) writeCouponError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Coupon not found",
		})
	case errors.Is(err, coupon.ErrInvalidCoupon):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid coupon data",
			"details": err.Error(),
		})
	case errors.Is(err, coupon.ErrDuplicateCode):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		internalError(c, h.log, "Coupon operation failed", err)
	}
}
