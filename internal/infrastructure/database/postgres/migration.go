// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/domain/coupon"
	"github.com/your-org/storefront-cart/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	models := []interface{}{
		&product.Product{},
		&coupon.Coupon{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

var indexStatements = []string{
	// Product indexes
	"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
	"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug)",

	// Coupon indexes
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code_lower ON coupons(LOWER(code))",
	"CREATE INDEX IF NOT EXISTS idx_coupons_window ON coupons(active, valid_from, valid_to)",
}

// CreateIndexes creates indexes AutoMigrate cannot express. Failures are
// logged and counted, not returned.
func (m *Migration) CreateIndexes() error {
	m.log.Info("Creating additional database indexes")

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexStatements {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("statement", indexSQL).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": successCount,
		"failed":  failCount,
	}).Info("Index creation finished")
	return nil
}

// SeedInitialData inserts development products and coupons
func (m *Migration) SeedInitialData() error {
	m.log.Info("Seeding initial data")

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	if err := m.seedCoupons(time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	m.log.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedProducts() error {
	products := []product.Product{
		{
			SKU:         "DEV-MUG-001",
			Name:        "Stoneware Coffee Mug",
			Slug:        "stoneware-coffee-mug-dev-mug-001",
			Description: "Hand-glazed 350ml mug.",
			Price:       decimal.RequireFromString("12.50"),
			IsActive:    true,
		},
		{
			SKU:         "DEV-TEE-002",
			Name:        "Organic Cotton T-Shirt",
			Slug:        "organic-cotton-t-shirt-dev-tee-002",
			Description: "Unisex crew neck tee.",
			Price:       decimal.RequireFromString("24.00"),
			IsActive:    true,
		},
		{
			SKU:         "DEV-BAG-003",
			Name:        "Canvas Tote Bag",
			Slug:        "canvas-tote-bag-dev-bag-003",
			Description: "Heavy canvas tote with inner pocket.",
			Price:       decimal.RequireFromString("18.75"),
			IsActive:    true,
		},
	}

	for _, p := range products {
		var existing product.Product
		if err := m.db.Where("sku = ?", p.SKU).First(&existing).Error; err == nil {
			m.log.WithField("sku", p.SKU).Debug("Product already exists")
			continue
		}
		if err := m.db.Create(&p).Error; err != nil {
			m.log.WithError(err).WithField("sku", p.SKU).Warn("Failed to create seed product")
			continue
		}
		m.log.WithField("sku", p.SKU).Info("Created seed product")
	}

	return nil
}

func (m *Migration) seedCoupons(now time.Time) error {
	coupons := []coupon.Coupon{
		{Code: "WELCOME10", ValidFrom: now, ValidTo: now.AddDate(1, 0, 0), Discount: 10, Active: true},
		{Code: "EXPIRED50", ValidFrom: now.AddDate(-1, 0, 0), ValidTo: now.AddDate(0, -1, 0), Discount: 50, Active: true},
	}

	for _, c := range coupons {
		if err := c.Validate(); err != nil {
			return err
		}
		var existing coupon.Coupon
		if err := m.db.Where("code = ?", c.Code).First(&existing).Error; err == nil {
			m.log.WithField("code", c.Code).Debug("Coupon already exists")
			continue
		}
		if err := m.db.Create(&c).Error; err != nil {
			m.log.WithError(err).WithField("code", c.Code).Warn("Failed to create seed coupon")
			continue
		}
		m.log.WithField("code", c.Code).Info("Created seed coupon")
	}

	return nil
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	var total int64
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			m.log.WithError(err).WithField("table", table).Warn("Failed to count rows")
			continue
		}
		total += count
		m.log.WithFields(logrus.Fields{"table": table, "records": count}).Info("Table info")
	}

	m.log.WithFields(logrus.Fields{"tables": len(tables), "records": total}).Info("Database summary")
	return nil
}
