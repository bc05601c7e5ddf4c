package postgres

import (
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockMigration(t *testing.T) (*Migration, sqlmock.Sqlmock) {
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
	return NewMigration(db, log), mock
}

func TestCreateIndexes_ContinuesPastFailures(t *testing.T) {
	m, mock := newMockMigration(t)

	for i, stmt := range indexStatements {
		exp := mock.ExpectExec(regexp.QuoteMeta(stmt))
		if i == 1 {
			exp.WillReturnError(errors.New("permission denied"))
		} else {
			exp.WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	assert.NoError(t, m.CreateIndexes())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndexStatements_CoverCouponCodeLookup(t *testing.T) {
	found := false
	for _, stmt := range indexStatements {
		if regexp.MustCompile(`coupons\(LOWER\(code\)\)`).MatchString(stmt) {
			found = true
		}
	}
	assert.True(t, found)
}
