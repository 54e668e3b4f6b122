package dana

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kasdana/models"
)

func TestRecordIncomeSnapshots(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas Operasional")

	_, err := SeedInitialCapital(db, acc.ID, d(1000000), nil)
	require.NoError(t, err)

	entry, err := RecordIncome(db, acc.ID, d(500000), "penjualan tunai", nil)
	require.NoError(t, err)
	require.Equal(t, models.EntryPemasukan, entry.Kind)
	require.Equal(t, models.EntryFinal, entry.Status)
	requireAmount(t, 1000000, entry.BalanceBefore)
	requireAmount(t, 1500000, entry.BalanceAfter)
	requireAmount(t, 1500000, balanceOf(t, db, acc.ID))
}

func TestRecordExpenseSnapshots(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas Operasional")
	_, err := SeedInitialCapital(db, acc.ID, d(800000), nil)
	require.NoError(t, err)

	entry, err := RecordExpense(db, acc.ID, d(300000), "beli ATK", nil)
	require.NoError(t, err)
	requireAmount(t, 800000, entry.BalanceBefore)
	requireAmount(t, 500000, entry.BalanceAfter)
	requireAmount(t, 500000, balanceOf(t, db, acc.ID))
}

func TestRecordExpenseInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas Kecil")
	_, err := SeedInitialCapital(db, acc.ID, d(100000), nil)
	require.NoError(t, err)

	_, err = RecordExpense(db, acc.ID, d(100001), "terlalu besar", nil)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// nothing committed: balance and entry count untouched
	requireAmount(t, 100000, balanceOf(t, db, acc.ID))
	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).
		Where("account_id = ?", acc.ID).Count(&count).Error)
	require.EqualValues(t, 1, count) // only the modal awal entry
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas")

	_, err := RecordIncome(db, acc.ID, d(0), "nol", nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = RecordExpense(db, acc.ID, d(-5), "negatif", nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSeedInitialCapitalOnce(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas")

	entry, err := SeedInitialCapital(db, acc.ID, d(250000), nil)
	require.NoError(t, err)
	require.Equal(t, models.EntryModalAwal, entry.Kind)
	requireAmount(t, 250000, balanceOf(t, db, acc.ID))

	_, err = SeedInitialCapital(db, acc.ID, d(1), nil)
	require.ErrorIs(t, err, ErrAlreadyCapitalized)
	requireAmount(t, 250000, balanceOf(t, db, acc.ID))
}

// Conservation: for any sequence of movements on one account the final
// balance is the initial capital plus incomes minus expenses, and consecutive
// snapshots chain without gaps.
func TestConservationOverSequence(t *testing.T) {
	db := newTestDB(t)
	acc := mustAccount(t, db, "Kas")
	_, err := SeedInitialCapital(db, acc.ID, d(1000000), nil)
	require.NoError(t, err)

	incomes := []int64{250000, 10000, 99999}
	expenses := []int64{400000, 1, 59998}
	for _, v := range incomes {
		_, err := RecordIncome(db, acc.ID, d(v), "in", nil)
		require.NoError(t, err)
	}
	for _, v := range expenses {
		_, err := RecordExpense(db, acc.ID, d(v), "out", nil)
		require.NoError(t, err)
	}

	want := int64(1000000)
	for _, v := range incomes {
		want += v
	}
	for _, v := range expenses {
		want -= v
	}
	requireAmount(t, want, balanceOf(t, db, acc.ID))

	// snapshots chain: each entry's after equals the next entry's before
	var entries []models.LedgerEntry
	require.NoError(t, db.Where("account_id = ?", acc.ID).
		Order("id asc").Find(&entries).Error)
	for i := 1; i < len(entries); i++ {
		require.True(t, entries[i-1].BalanceAfter.Equal(entries[i].BalanceBefore),
			"gap between entry %d and %d", entries[i-1].ID, entries[i].ID)
	}
}
