package dana

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kasdana/models"
)

// newTestDB opens a throwaway sqlite database with the ledger schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dana.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.FundAccount{},
		&models.LedgerEntry{},
		&models.Pembelian{},
		&models.PembelianItem{},
	))
	return db
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// mustAccount creates a plain named account for tests.
func mustAccount(t *testing.T, db *gorm.DB, name string) *models.FundAccount {
	t.Helper()
	acc, err := CreateAccount(db, NewAccount{Name: name})
	require.NoError(t, err)
	return acc
}

// balanceOf re-reads an account balance from the database.
func balanceOf(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	acc, err := FindAccount(db, id)
	require.NoError(t, err)
	return acc.Balance
}

// requireAmount asserts a decimal equals an integer rupiah value.
func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(d(want)), "want %d got %s", want, got)
}
