package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "predictions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntry(providerID string, at time.Time) *domain.PredictionEntry {
	return &domain.PredictionEntry{
		ProviderID:    providerID,
		ProcedureCode: "323",
		Label:         domain.LabelNotFraud,
		FraudScore:    0.07,
		Fallbacks:     0,
		CreatedAt:     at,
	}
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	first := testEntry("1124007489", base.Add(-2*time.Minute))
	second := testEntry("1234567890", base.Add(-time.Minute))
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	assert.NotZero(t, first.ID)
	assert.NotZero(t, second.ID)

	entries, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, "1234567890", entries[0].ProviderID)
	assert.Equal(t, "1124007489", entries[1].ProviderID)
	assert.Equal(t, domain.LabelNotFraud, entries[0].Label)
	assert.InDelta(t, 0.07, entries[0].FraudScore, 1e-9)
}

func TestSQLiteStore_ListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		entry := testEntry("1124007489", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.Save(ctx, entry))
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestSQLiteStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	require.NoError(t, store.Save(ctx, testEntry("1124007489", time.Now().UTC())))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSQLiteStore_SaveFillsCreatedAt(t *testing.T) {
	store := newTestStore(t)

	entry := testEntry("1124007489", time.Time{})
	require.NoError(t, store.Save(context.Background(), entry))
	assert.False(t, entry.CreatedAt.IsZero())
}
