package relstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

func newTestStore(fake *dataaccess.Fake) *Store {
	return New(fake, config.StoreConfig{MaxEntries: 64}, logger.New("error", "text"))
}

// seedShotWithAsset creates a project shot with one linked asset and returns
// the shot id and link id
func seedShotWithAsset(fake *dataaccess.Fake) (uuid.UUID, uuid.UUID, uuid.UUID) {
	ctx := context.Background()
	projectID := uuid.New()

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: projectID, Name: "sh010"})
	assetID, _ := fake.CreateAsset(ctx, &models.Asset{ProjectID: projectID, Name: "hero", AssetType: "character"})
	linkID := fake.SeedAssetShotLink(assetID, shotID)
	return shotID, assetID, linkID
}

func TestGet_UnloadedSentinel(t *testing.T) {
	store := newTestStore(dataaccess.NewFake())

	entry := store.Get(Key{Kind: KindShotAssets, OwnerID: uuid.New()})
	assert.Equal(t, StateUnloaded, entry.State)
	assert.Empty(t, entry.Value.Assets)
}

func TestEnsureLoaded_FetchesOnce(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, assetID, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	require.NoError(t, store.EnsureLoaded(context.Background(), key))
	require.NoError(t, store.EnsureLoaded(context.Background(), key))

	assert.Equal(t, 1, fake.Calls("FetchShotAssets"))

	entry := store.Get(key)
	assert.Equal(t, StateReady, entry.State)
	require.Len(t, entry.Value.Assets, 1)
	assert.Equal(t, assetID, entry.Value.Assets[0].AssetID)
}

func TestRefresh_ReplacesWholesale(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	require.NoError(t, store.Refresh(context.Background(), key))
	require.Len(t, store.Get(key).Value.Assets, 1)

	other, _ := fake.CreateAsset(context.Background(), &models.Asset{Name: "tree", AssetType: "prop"})
	fake.SeedAssetShotLink(other, shotID)

	// Cached value is untouched until the next refresh
	require.Len(t, store.Get(key).Value.Assets, 1)

	require.NoError(t, store.Refresh(context.Background(), key))
	assert.Len(t, store.Get(key).Value.Assets, 2)
}

func TestInvalidate_MarksStaleKeepsValue(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	require.NoError(t, store.Refresh(context.Background(), key))
	store.Invalidate(key)

	entry := store.Get(key)
	assert.Equal(t, StateStale, entry.State)
	assert.Len(t, entry.Value.Assets, 1, "stale value stays visible")

	// EnsureLoaded sees staleness and refetches
	require.NoError(t, store.EnsureLoaded(context.Background(), key))
	assert.Equal(t, StateReady, store.Get(key).State)
	assert.Equal(t, 2, fake.Calls("FetchShotAssets"))
}

func TestRefresh_ErrorKeepsPreviousValue(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	require.NoError(t, store.Refresh(context.Background(), key))

	fake.FailNext("FetchShotAssets", &dataaccess.TransportError{Op: "FetchShotAssets", Err: context.DeadlineExceeded})
	err := store.Refresh(context.Background(), key)
	require.Error(t, err)
	assert.True(t, dataaccess.IsTransport(err))

	entry := store.Get(key)
	assert.Equal(t, StateError, entry.State)
	assert.Len(t, entry.Value.Assets, 1, "stale-but-visible beats blanking")

	// Retry transitions back through loading to ready
	require.NoError(t, store.Refresh(context.Background(), key))
	assert.Equal(t, StateReady, store.Get(key).State)
}

func TestRefresh_SequenceShotsMissingVsChildless(t *testing.T) {
	fake := dataaccess.NewFake()
	store := newTestStore(fake)

	missing := Key{Kind: KindSequenceShots, OwnerID: uuid.New()}
	require.NoError(t, store.Refresh(context.Background(), missing))
	assert.True(t, store.Get(missing).Value.Missing)

	seqID, _ := fake.CreateSequence(context.Background(), &models.Sequence{Name: "seq01"})
	childless := Key{Kind: KindSequenceShots, OwnerID: seqID}
	require.NoError(t, store.Refresh(context.Background(), childless))
	entry := store.Get(childless)
	assert.False(t, entry.Value.Missing)
	assert.Empty(t, entry.Value.Shots)
}

func TestRefresh_ConcurrentCallsCoalesce(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake.OnFetch = func(op string) {
		once.Do(func() {
			close(started)
			<-release
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Refresh(context.Background(), key)
	}()

	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Refresh(context.Background(), key)
	}()

	// Give the second refresh a moment to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, fake.Calls("FetchShotAssets"))
	assert.Equal(t, StateReady, store.Get(key).State)
}

func TestRefresh_StaleResponseRejected(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, linkID := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var fetches int32
	fake.OnFetch = func(op string) {
		// Only the first flight stalls; later fetches pass straight through
		if atomic.AddInt32(&fetches, 1) == 1 {
			close(firstStarted)
			<-releaseFirst
		}
	}

	// Flight one reads the old state (one linked asset) and stalls
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Refresh(context.Background(), key)
	}()
	<-firstStarted

	// The edge is removed and the key invalidated while flight one hangs
	require.NoError(t, fake.UnlinkAssetShot(context.Background(), linkID))
	store.Invalidate(key)

	// Flight two completes with the new state
	require.NoError(t, store.Refresh(context.Background(), key))
	require.Empty(t, store.Get(key).Value.Assets)

	// Flight one finally resolves; its response must be discarded
	close(releaseFirst)
	wg.Wait()

	entry := store.Get(key)
	assert.Equal(t, StateReady, entry.State)
	assert.Empty(t, entry.Value.Assets, "older response must not clobber newer data")
}

func TestEvict_SparesKeyWithFlightInProgress(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, linkID := seedShotWithAsset(fake)
	store := New(fake, config.StoreConfig{MaxEntries: 1}, logger.New("error", "text"))
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	started := make(chan struct{})
	release := make(chan struct{})
	var fetches int32
	fake.OnFetch = func(op string) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			close(started)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Refresh(context.Background(), key)
	}()
	<-started

	// The edge disappears and the key is invalidated while the fetch hangs
	require.NoError(t, fake.UnlinkAssetShot(context.Background(), linkID))
	store.Invalidate(key)

	// A new key pushes the map past the watermark. Were the invalidated
	// entry evicted here, recreation would reset its sequence counter and
	// the hanging flight's pre-removal response would land as fresh.
	cancel := store.Subscribe(Key{Kind: KindShotAssets, OwnerID: uuid.New()}, func(Entry) {})
	defer cancel()

	close(release)
	wg.Wait()

	entry := store.Get(key)
	assert.Equal(t, StateStale, entry.State, "superseded response must not resurrect as ready")
	assert.Empty(t, entry.Value.Assets)
}

func TestSubscribe_NotifiedOnTransitions(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	var mu sync.Mutex
	var states []State
	cancel := store.Subscribe(key, func(e Entry) {
		mu.Lock()
		states = append(states, e.State)
		mu.Unlock()
	})
	defer cancel()

	require.NoError(t, store.Refresh(context.Background(), key))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 2)
	assert.Equal(t, StateLoading, states[0])
	assert.Equal(t, StateReady, states[1])
}

func TestSubscribe_TwoViewsSameKeyObserveSameValue(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, linkID := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	var mu sync.Mutex
	var shotTab, detailPanel Entry
	cancelA := store.Subscribe(key, func(e Entry) {
		mu.Lock()
		shotTab = e
		mu.Unlock()
	})
	defer cancelA()
	cancelB := store.Subscribe(key, func(e Entry) {
		mu.Lock()
		detailPanel = e
		mu.Unlock()
	})
	defer cancelB()

	require.NoError(t, store.Refresh(context.Background(), key))

	// A mutation elsewhere removes the link and invalidates; both surfaces
	// converge on the same refreshed value
	require.NoError(t, fake.UnlinkAssetShot(context.Background(), linkID))
	store.Invalidate(key)
	require.NoError(t, store.Refresh(context.Background(), key))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StateReady, shotTab.State)
	assert.Empty(t, shotTab.Value.Assets)
	assert.Equal(t, shotTab.Value, detailPanel.Value)
}

func TestSubscribe_CancelStopsNotifications(t *testing.T) {
	fake := dataaccess.NewFake()
	shotID, _, _ := seedShotWithAsset(fake)
	store := newTestStore(fake)
	key := Key{Kind: KindShotAssets, OwnerID: shotID}

	calls := 0
	cancel := store.Subscribe(key, func(Entry) { calls++ })
	cancel()
	cancel() // idempotent

	require.NoError(t, store.Refresh(context.Background(), key))
	assert.Zero(t, calls)
}

func TestRefresh_UnknownKindRejected(t *testing.T) {
	store := newTestStore(dataaccess.NewFake())

	err := store.Refresh(context.Background(), Key{Kind: Kind("bogus"), OwnerID: uuid.New()})
	require.Error(t, err)
	assert.True(t, dataaccess.IsValidation(err))
}
