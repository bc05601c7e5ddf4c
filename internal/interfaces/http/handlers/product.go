// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/domain/product"
)

// ProductStore covers catalog reads and back-office management
type ProductStore interface {
	GetProduct(ctx context.Context, id uint) (*product.Product, error)
	GetProducts(ctx context.Context, req *product.ProductListRequest) (*product.ProductResponse, error)
	CreateProduct(ctx context.Context, req *product.ProductCreateRequest) (*product.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *product.ProductUpdateRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	products ProductStore
	log      logrus.FieldLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products ProductStore, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		products: products,
		log:      log,
	}
}

// GetProducts handles GET /products. Only active products are listed.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	active := true
	req.IsActive = &active

	h.listProducts(c, &req)
}

// AdminGetProducts handles GET /admin/products
func (h *ProductHandler) AdminGetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	h.listProducts(c, &req)
}

func (h *ProductHandler) listProducts(c *gin.Context, req *product.ProductListRequest) {
	resp, err := h.products.GetProducts(c.Request.Context(), req)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    resp,
	})
}

// GetProduct handles GET /products/:id. Inactive products are hidden.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err == nil && !p.IsAvailable() {
		err = product.ErrProductNotFound
	}
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// AdminGetProduct handles GET /admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// CreateProduct handles POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	p, err := h.products.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    p,
	})
}

// UpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	p, err := h.products.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    p,
	})
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "product")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

func (h *ProductHandler) writeProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
	case errors.Is(err, product.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid product data",
			"details": err.Error(),
		})
	case errors.Is(err, product.ErrDuplicateSKU):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		internalError(c, h.log, "Product operation failed", err)
	}
}
