package dana

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kasdana/models"
)

func TestGetOrCreateSingletonIdempotent(t *testing.T) {
	db := newTestDB(t)

	tunai, err := GetOrCreateSingleton(db, models.FundTunai)
	require.NoError(t, err)
	require.Equal(t, "Kas Tunai", tunai.Name)

	again, err := GetOrCreateSingleton(db, models.FundTunai)
	require.NoError(t, err)
	require.Equal(t, tunai.ID, again.ID)

	bank, err := GetOrCreateSingleton(db, models.FundBank)
	require.NoError(t, err)
	require.NotEqual(t, tunai.ID, bank.ID)

	var count int64
	require.NoError(t, db.Model(&models.FundAccount{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestGetOrCreateSingletonRejectsLainnya(t *testing.T) {
	db := newTestDB(t)
	_, err := GetOrCreateSingleton(db, models.FundLainnya)
	require.Error(t, err)
}

func TestFindAccountNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := FindAccount(db, 999)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateAccountRequiresName(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateAccount(db, NewAccount{Name: "   "})
	require.Error(t, err)
}

func TestListAccountsFilter(t *testing.T) {
	db := newTestDB(t)
	_, err := GetOrCreateSingleton(db, models.FundTunai)
	require.NoError(t, err)
	kasKecil := mustAccount(t, db, "Kas Kecil")
	require.NoError(t, db.Model(&models.FundAccount{}).
		Where("id = ?", kasKecil.ID).Update("active", false).Error)

	all, err := ListAccounts(db, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	tunaiOnly, err := ListAccounts(db, AccountFilter{Kind: models.FundTunai})
	require.NoError(t, err)
	require.Len(t, tunaiOnly, 1)
	require.Equal(t, models.FundTunai, tunaiOnly[0].Kind)

	active, err := ListAccounts(db, AccountFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
}
