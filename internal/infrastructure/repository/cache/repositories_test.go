package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	inventorymock "github.com/riskibarqy/evidence-portal/internal/mocks/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const steamID = "76561198000000001"

func TestInventoryValuationRepository_CachesLookups(t *testing.T) {
	next := inventorymock.NewRepository(t)
	next.On("GetBySteamID", mock.Anything, steamID).Return(inventory.Valuation{SteamID64: steamID, ItemCount: 3}, true, nil).Once()

	repo := NewInventoryValuationRepository(next, time.Minute)
	for i := 0; i < 3; i++ {
		got, ok, err := repo.GetBySteamID(context.Background(), steamID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, got.ItemCount)
	}
}

func TestInventoryValuationRepository_CachesMisses(t *testing.T) {
	next := inventorymock.NewRepository(t)
	next.On("GetBySteamID", mock.Anything, steamID).Return(inventory.Valuation{}, false, nil).Once()

	repo := NewInventoryValuationRepository(next, time.Minute)
	_, ok, err := repo.GetBySteamID(context.Background(), steamID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = repo.GetBySteamID(context.Background(), steamID)
	assert.False(t, ok)
}

func TestInventoryValuationRepository_UpsertRefreshesEntry(t *testing.T) {
	next := inventorymock.NewRepository(t)
	next.On("GetBySteamID", mock.Anything, steamID).Return(inventory.Valuation{}, false, nil).Once()
	next.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	repo := NewInventoryValuationRepository(next, time.Minute)
	_, _, _ = repo.GetBySteamID(context.Background(), steamID)
	require.NoError(t, repo.Upsert(context.Background(), inventory.Valuation{SteamID64: steamID, ItemCount: 7}))

	got, ok, err := repo.GetBySteamID(context.Background(), steamID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, got.ItemCount)
}

func TestInventoryValuationRepository_FailedUpsertDropsEntry(t *testing.T) {
	next := inventorymock.NewRepository(t)
	next.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	next.On("GetBySteamID", mock.Anything, steamID).Return(inventory.Valuation{SteamID64: steamID}, true, nil).Once()

	repo := NewInventoryValuationRepository(next, time.Minute)
	require.Error(t, repo.Upsert(context.Background(), inventory.Valuation{SteamID64: steamID}))
	_, ok, err := repo.GetBySteamID(context.Background(), steamID)
	require.NoError(t, err)
	assert.True(t, ok)
}
