// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/config"
	"github.com/your-org/storefront-cart/internal/domain/cart"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
	"github.com/your-org/storefront-cart/internal/domain/product"
	"github.com/your-org/storefront-cart/internal/domain/session"
	"github.com/your-org/storefront-cart/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-cart/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-cart/internal/pkg/auth"
	"github.com/your-org/storefront-cart/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Dependencies carries what the route setup needs to build services
type Dependencies struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	DB       *gorm.DB
	Sessions session.Store
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cfg := deps.Config
	keys := cart.Keys{Cart: cfg.Session.CartKey, Coupon: cfg.Session.CouponKey}

	productService := product.NewService(deps.DB)
	couponService := coupon.NewService(deps.DB, deps.Logger)
	jwtManager := auth.NewJWTManager(cfg)

	productHandler := handlers.NewProductHandler(productService, deps.Logger)
	couponHandler := handlers.NewCouponHandler(couponService, keys, deps.Logger)
	cartHandler := handlers.NewCartHandler(productService, couponService, pdf.NewService(cfg), keys, deps.Logger)
	authHandler := handlers.NewAuthHandler(
		auth.NewAdminAuthenticator(cfg.Admin.Email, cfg.Admin.PasswordHash, auth.NewPasswordManager(cfg.Security.BcryptCost)),
		jwtManager,
		deps.Logger,
	)

	sessions := middleware.Session(deps.Sessions, cfg.Session, deps.Logger)

	SetupAuthRoutes(rg, authHandler)
	SetupProductRoutes(rg, productHandler)
	SetupCartRoutes(rg, cartHandler, sessions)
	SetupCouponRoutes(rg, couponHandler, sessions)
	SetupAdminRoutes(rg, productHandler, couponHandler, jwtManager)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}

// SetupProductRoutes sets up public catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler) {
	products := rg.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/:id", h.GetProduct)
	}
}

// SetupCartRoutes sets up session cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, sessions gin.HandlerFunc) {
	cartGroup := rg.Group("/cart")
	cartGroup.Use(sessions)
	{
		cartGroup.GET("", h.GetCart)
		cartGroup.DELETE("", h.ClearCart)
		cartGroup.GET("/count", h.GetCartCount)
		cartGroup.POST("/items", h.AddItem)
		cartGroup.DELETE("/items/:id", h.RemoveItem)
		cartGroup.POST("/validate", h.ValidateCart)
		cartGroup.GET("/quote.pdf", h.DownloadQuote)
	}
}

// SetupCouponRoutes sets up coupon redemption routes
func SetupCouponRoutes(rg *gin.RouterGroup, h *handlers.CouponHandler, sessions gin.HandlerFunc) {
	coupons := rg.Group("/coupons")
	coupons.Use(sessions)
	{
		coupons.POST("/apply", h.ApplyCoupon)
		coupons.DELETE("/apply", h.RemoveCoupon)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, productHandler *handlers.ProductHandler, couponHandler *handlers.CouponHandler, jwtManager *auth.JWTManager) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager))
	admin.Use(middleware.AdminMiddleware())
	{
		products := admin.Group("/products")
		{
			products.GET("", productHandler.AdminGetProducts)
			products.POST("", productHandler.CreateProduct)
			products.GET("/:id", productHandler.AdminGetProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}

		coupons := admin.Group("/coupons")
		{
			coupons.GET("", couponHandler.ListCoupons)
			coupons.POST("", couponHandler.CreateCoupon)
			coupons.GET("/:id", couponHandler.GetCoupon)
			coupons.PUT("/:id", couponHandler.UpdateCoupon)
			coupons.DELETE("/:id", couponHandler.DeleteCoupon)
		}
	}
}
