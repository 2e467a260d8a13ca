package views

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
	"github.com/framewell/tracker/linkmut"
	"github.com/framewell/tracker/relstore"
)

type recordingAdapter struct {
	keys []relstore.Key

	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingAdapter) Declared() []relstore.Key { return r.keys }

func (r *recordingAdapter) Render(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recordingAdapter) last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil, false
	}
	return r.snaps[len(r.snaps)-1], true
}

func (r *recordingAdapter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func newViewFixture(t *testing.T) (*dataaccess.Fake, *relstore.Store, *logger.Logger) {
	t.Helper()
	fake := dataaccess.NewFake()
	log := logger.New("error", "text")
	store := relstore.New(fake, config.StoreConfig{MaxEntries: 64}, log)
	return fake, store, log
}

func TestBinding_InitialLoadRendersReady(t *testing.T) {
	ctx := context.Background()
	fake, store, log := newViewFixture(t)

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	assetID, _ := fake.CreateAsset(ctx, &models.Asset{ProjectID: uuid.New(), Name: "hero", AssetType: "character"})
	fake.SeedAssetShotLink(assetID, shotID)

	adapter := &recordingAdapter{keys: ShotTabKeys(shotID)}
	binding := NewBinding(store, adapter, log)
	require.NoError(t, binding.Bind(ctx))
	defer binding.Close()

	snap, ok := adapter.last()
	require.True(t, ok)

	entry := snap[relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}]
	assert.Equal(t, relstore.StateReady, entry.State)
	require.Len(t, entry.Value.Assets, 1)
	assert.Equal(t, assetID, entry.Value.Assets[0].AssetID)
}

func TestBinding_RerendersOnInvalidateAndRefresh(t *testing.T) {
	ctx := context.Background()
	fake, store, log := newViewFixture(t)

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	key := relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}

	adapter := &recordingAdapter{keys: []relstore.Key{key}}
	binding := NewBinding(store, adapter, log)
	require.NoError(t, binding.Bind(ctx))
	defer binding.Close()

	before := adapter.count()
	store.Invalidate(key)

	snap, _ := adapter.last()
	assert.Equal(t, relstore.StateStale, snap[key].State)
	assert.Greater(t, adapter.count(), before, "invalidate notifies without polling")

	require.NoError(t, store.Refresh(ctx, key))
	snap, _ = adapter.last()
	assert.Equal(t, relstore.StateReady, snap[key].State)
}

func TestBinding_CloseStopsRenders(t *testing.T) {
	ctx := context.Background()
	fake, store, log := newViewFixture(t)

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	key := relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}

	adapter := &recordingAdapter{keys: []relstore.Key{key}}
	binding := NewBinding(store, adapter, log)
	require.NoError(t, binding.Bind(ctx))
	binding.Close()
	binding.Close()

	count := adapter.count()
	store.Invalidate(key)
	require.NoError(t, store.Refresh(ctx, key))
	assert.Equal(t, count, adapter.count(), "no render after close")

	assert.ErrorIs(t, binding.Bind(ctx), ErrBindingClosed)
}

func TestBinding_ErrorEntryStillRendered(t *testing.T) {
	ctx := context.Background()
	fake, store, log := newViewFixture(t)

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	key := relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}

	fake.FailNext("FetchShotAssets", &dataaccess.TransportError{Op: "FetchShotAssets", Err: context.DeadlineExceeded})

	adapter := &recordingAdapter{keys: []relstore.Key{key}}
	binding := NewBinding(store, adapter, log)
	require.NoError(t, binding.Bind(ctx), "load failure is carried by the entry, not the bind")
	defer binding.Close()

	snap, ok := adapter.last()
	require.True(t, ok)
	assert.Equal(t, relstore.StateError, snap[key].State)
	assert.Error(t, snap[key].Err)
}

// Two surfaces bound to the same shot see an unlink made through the link
// service, without either reloading itself.
func TestCrossViewConsistencyThroughBindings(t *testing.T) {
	ctx := context.Background()
	fake, store, log := newViewFixture(t)
	service := linkmut.New(fake, store, true, log)

	shotID, _ := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	assetID, _ := fake.CreateAsset(ctx, &models.Asset{ProjectID: uuid.New(), Name: "hero", AssetType: "character"})
	linkID := fake.SeedAssetShotLink(assetID, shotID)

	shotTab := &recordingAdapter{keys: ShotTabKeys(shotID)}
	strip := &recordingAdapter{keys: AssetsUnderShotKeys(shotID)}

	b1 := NewBinding(store, shotTab, log)
	b2 := NewBinding(store, strip, log)
	require.NoError(t, b1.Bind(ctx))
	require.NoError(t, b2.Bind(ctx))
	defer b1.Close()
	defer b2.Close()

	conf := service.UnlinkAssetShot(linkID, assetID, shotID)
	require.NoError(t, conf.Request())
	require.NoError(t, conf.Confirm(ctx))

	key := relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}
	require.NoError(t, store.Refresh(ctx, key))

	for _, adapter := range []*recordingAdapter{shotTab, strip} {
		snap, ok := adapter.last()
		require.True(t, ok)
		assert.Empty(t, snap[key].Value.Assets)
	}
}

func TestSurfaceKeySetsCoverEveryKind(t *testing.T) {
	id := uuid.New()
	seen := map[relstore.Kind]bool{}
	for _, keys := range [][]relstore.Key{
		SequenceDetailKeys(id),
		ShotTabKeys(id),
		AssetTabKeys(id),
		ShotsUnderSequenceKeys(id),
		AssetsUnderShotKeys(id),
	} {
		for _, k := range keys {
			assert.True(t, k.Kind.Valid())
			seen[k.Kind] = true
		}
	}
	assert.Len(t, seen, 6)
}
