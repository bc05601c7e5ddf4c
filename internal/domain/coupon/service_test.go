package coupon

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var couponColumns = []string{"id", "code", "valid_from", "valid_to", "discount", "active", "created_at", "updated_at"}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewService(db, log), mock
}

func TestService_FindByID(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(couponColumns).
			AddRow(3, "SUMMER", now.Add(-time.Hour), now.Add(time.Hour), 20, true, now, now))

	c, err := svc.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.ID)
	assert.Equal(t, "SUMMER", c.Code)
	assert.Equal(t, 20, c.Discount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_FindByID_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(couponColumns))

	_, err := svc.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestService_FindByID_DatabaseError(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT \* FROM "coupons"`).WillReturnError(errors.New("connection refused"))

	_, err := svc.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCouponNotFound)
}

func TestService_FindRedeemable_FiltersWindowAndActive(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE LOWER\(code\) = \$1 AND valid_from <= \$2 AND valid_to >= \$3 AND active = \$4`).
		WithArgs("summer", now, now, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(couponColumns).
			AddRow(1, "Summer", now.Add(-time.Hour), now.Add(time.Hour), 10, true, now, now))

	c, err := svc.FindRedeemable(context.Background(), "  SUMMER ", now)
	require.NoError(t, err)
	assert.Equal(t, "Summer", c.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_FindRedeemable_Miss(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE LOWER\(code\)`).
		WillReturnRows(sqlmock.NewRows(couponColumns))

	_, err := svc.FindRedeemable(context.Background(), "expired", time.Now())
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestService_CreateCoupon(t *testing.T) {
	svc, mock := newMockService(t)
	from := time.Now().UTC()
	discount := 25

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE LOWER\(code\) = \$1`).
		WillReturnRows(sqlmock.NewRows(couponColumns))
	mock.ExpectQuery(`INSERT INTO "coupons"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	c, err := svc.CreateCoupon(context.Background(), &CreateCouponRequest{
		Code:      " WINTER ",
		ValidFrom: from,
		ValidTo:   from.Add(24 * time.Hour),
		Discount:  &discount,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.ID)
	assert.Equal(t, "WINTER", c.Code)
	assert.True(t, c.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateCoupon_DuplicateCode(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now().UTC()
	discount := 5

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE LOWER\(code\) = \$1`).
		WillReturnRows(sqlmock.NewRows(couponColumns).
			AddRow(1, "winter", now, now.Add(time.Hour), 5, true, now, now))

	_, err := svc.CreateCoupon(context.Background(), &CreateCouponRequest{
		Code:      "WINTER",
		ValidFrom: now,
		ValidTo:   now.Add(time.Hour),
		Discount:  &discount,
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateCoupon_InvalidSkipsDatabase(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now().UTC()
	discount := 150

	_, err := svc.CreateCoupon(context.Background(), &CreateCouponRequest{
		Code:      "TOOMUCH",
		ValidFrom: now,
		ValidTo:   now.Add(time.Hour),
		Discount:  &discount,
	})
	assert.ErrorIs(t, err, ErrInvalidCoupon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateCoupon_RevalidatesWindow(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(couponColumns).
			AddRow(4, "SPRING", now, now.Add(time.Hour), 10, true, now, now))

	before := now.Add(-time.Hour)
	_, err := svc.UpdateCoupon(context.Background(), 4, &UpdateCouponRequest{ValidTo: &before})
	assert.ErrorIs(t, err, ErrInvalidCoupon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteCoupon(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec(`DELETE FROM "coupons" WHERE id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.DeleteCoupon(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteCoupon_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec(`DELETE FROM "coupons"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteCoupon(context.Background(), 5)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}
