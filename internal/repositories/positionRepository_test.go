package repositories

import (
	"TradeSimulator/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLot(id string, quantity float64) *models.Position {
	return &models.Position{ID: id, Mode: models.TradeModeSpotBuy, Quantity: quantity, EntryPrice: 100, Leverage: 1}
}

func TestPositionRepositoryKeepsInsertionOrder(t *testing.T) {
	repo := NewPositionRepository()
	require.NoError(t, repo.Create(newLot("b", 1)))
	require.NoError(t, repo.Create(newLot("a", 2)))
	require.NoError(t, repo.Create(newLot("c", 3)))

	require.NoError(t, repo.Delete("a"))

	all := repo.FindAll()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
}

func TestPositionRepositoryRejectsInvalidLots(t *testing.T) {
	repo := NewPositionRepository()
	assert.Error(t, repo.Create(nil))
	assert.Error(t, repo.Create(newLot("", 1)))
	assert.Error(t, repo.Create(newLot("x", 0)))

	require.NoError(t, repo.Create(newLot("x", 1)))
	assert.Error(t, repo.Create(newLot("x", 1)))
}

func TestPositionRepositoryFindByIDReturnsCopy(t *testing.T) {
	repo := NewPositionRepository()
	require.NoError(t, repo.Create(newLot("x", 5)))

	found, err := repo.FindByID("x")
	require.NoError(t, err)
	require.NotNil(t, found)
	found.Quantity = 1

	again, err := repo.FindByID("x")
	require.NoError(t, err)
	assert.Equal(t, 5.0, again.Quantity)

	missing, err := repo.FindByID("nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPositionRepositoryUpdate(t *testing.T) {
	repo := NewPositionRepository()
	require.NoError(t, repo.Create(newLot("x", 5)))

	lot, _ := repo.FindByID("x")
	lot.Quantity = 2
	lot.StopLoss = 90
	require.NoError(t, repo.Update(lot))

	stored, _ := repo.FindByID("x")
	assert.Equal(t, 2.0, stored.Quantity)
	assert.Equal(t, 90.0, stored.StopLoss)

	lot.Quantity = 0
	assert.Error(t, repo.Update(lot))
	assert.ErrorIs(t, repo.Update(newLot("ghost", 1)), models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete("ghost"), models.ErrNotFound)
}

func TestPositionRepositoryFindByMode(t *testing.T) {
	repo := NewPositionRepository()
	short := newLot("s", 1)
	short.Mode = models.TradeModeMarginShort
	require.NoError(t, repo.Create(newLot("a", 1)))
	require.NoError(t, repo.Create(short))

	assert.Len(t, repo.FindByMode(models.TradeModeMarginShort), 1)
	assert.Len(t, repo.FindByMode(models.TradeModeMarginLong), 0)
	assert.Equal(t, 2, repo.Count())
}
