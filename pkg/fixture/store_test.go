package fixture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeaseStorePutGetDelete(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	rec := LeaseRecord{Owner: "test-1", ConnID: "conn-a", Depth: 2, Cycle: 0}
	require.NoError(t, store.PutLease(rec))

	got, err := store.GetLease("test-1")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	require.NoError(t, store.DeleteLease("test-1"))
	_, err = store.GetLease("test-1")
	require.ErrorIs(t, err, ErrLeaseNotFound)
}

func TestLeaseStoreIncrementCycleResumesAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.IncrementCycle("soak-owner", "conn-a")
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.IncrementCycle("soak-owner", "conn-a")
	require.NoError(t, err)
	require.Equal(t, 4, rec.Cycle)
}
