// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Finder resolves a coupon by primary key
type Finder interface {
	FindByID(ctx context.Context, id uint) (*Coupon, error)
}

// Service handles coupon persistence and lookups
type Service struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: log,
	}
}

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code      string    `json:"code" binding:"required,max=50"`
	ValidFrom time.Time `json:"valid_from" binding:"required"`
	ValidTo   time.Time `json:"valid_to" binding:"required"`
	Discount  *int      `json:"discount" binding:"required,min=0,max=100"`
	Active    *bool     `json:"active"`
}

// UpdateCouponRequest represents coupon update data
type UpdateCouponRequest struct {
	Code      *string    `json:"code" binding:"omitempty,max=50"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
	Discount  *int       `json:"discount" binding:"omitempty,min=0,max=100"`
	Active    *bool      `json:"active"`
}

// CouponList represents a page of coupons
type CouponList struct {
	Coupons []Coupon `json:"coupons"`
	Total   int64    `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// FindByID retrieves a coupon by primary key
func (s *Service) FindByID(ctx context.Context, id uint) (*Coupon, error) {
	var c Coupon
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &c, nil
}

// FindByCode retrieves a coupon by code, case-insensitively
func (s *Service) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := s.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &c, nil
}

// FindRedeemable retrieves an active coupon by code whose validity window
// contains now
func (s *Service) FindRedeemable(ctx context.Context, code string, now time.Time) (*Coupon, error) {
	var c Coupon
	err := s.db.WithContext(ctx).
		Where("LOWER(code) = ? AND valid_from <= ? AND valid_to >= ? AND active = ?",
			strings.ToLower(strings.TrimSpace(code)), now, now, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &c, nil
}

// ListCoupons returns coupons newest first
func (s *Service) ListCoupons(ctx context.Context, page, limit int) (*CouponList, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var coupons []Coupon
	var total int64

	query := s.db.WithContext(ctx).Model(&Coupon{})
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count coupons: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	return &CouponList{Coupons: coupons, Total: total, Page: page, Limit: limit}, nil
}

// CreateCoupon validates and stores a new coupon
func (s *Service) CreateCoupon(ctx context.Context, req *CreateCouponRequest) (*Coupon, error) {
	c := Coupon{
		Code:      strings.TrimSpace(req.Code),
		ValidFrom: req.ValidFrom.UTC(),
		ValidTo:   req.ValidTo.UTC(),
		Active:    true,
	}
	if req.Discount != nil {
		c.Discount = *req.Discount
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.FindByCode(ctx, c.Code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, ErrCouponNotFound) {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"coupon_id": c.ID,
		"code":      c.Code,
		"discount":  c.Discount,
	}).Info("Coupon created")

	return &c, nil
}

// UpdateCoupon applies a partial update and revalidates the result
func (s *Service) UpdateCoupon(ctx context.Context, id uint, req *UpdateCouponRequest) (*Coupon, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if !strings.EqualFold(code, c.Code) {
			if _, err := s.FindByCode(ctx, code); err == nil {
				return nil, ErrDuplicateCode
			} else if !errors.Is(err, ErrCouponNotFound) {
				return nil, err
			}
		}
		c.Code = code
	}
	if req.ValidFrom != nil {
		c.ValidFrom = req.ValidFrom.UTC()
	}
	if req.ValidTo != nil {
		c.ValidTo = req.ValidTo.UTC()
	}
	if req.Discount != nil {
		c.Discount = *req.Discount
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	s.log.WithField("coupon_id", c.ID).Info("Coupon updated")
	return c, nil
}

// DeleteCoupon removes a coupon. Sessions still pointing at it resolve to no
// coupon afterwards.
func (s *Service) DeleteCoupon(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Coupon{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}

	s.log.WithField("coupon_id", id).Info("Coupon deleted")
	return nil
}
