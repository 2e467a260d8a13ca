// Package relstore is the single shared cache of "what is linked to what".
// Every view reads relationship data from here, keyed by (kind, owner id),
// so a mutation invalidating a key is observed by every surface rendering
// it. Entries move through unloaded/loading/ready/stale/error; refreshes
// replace values wholesale and out-of-order responses are discarded.
package relstore

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/dataaccess"
	"github.com/framewell/tracker/normalize"
)

// Store is the unified relationship cache
type Store struct {
	client dataaccess.Client
	cfg    config.StoreConfig
	log    *logger.Logger

	mu      sync.Mutex
	entries map[Key]*entry

	group singleflight.Group

	bus *Bus
}

// New creates a relationship store backed by the given collaborator
func New(client dataaccess.Client, cfg config.StoreConfig, log *logger.Logger) *Store {
	return &Store{
		client:  client,
		cfg:     cfg,
		log:     log,
		entries: make(map[Key]*entry),
	}
}

// AttachBus wires the cross-process invalidation bus. Local invalidations
// are published; remote ones are applied without re-publishing.
func (s *Store) AttachBus(bus *Bus) {
	s.bus = bus
}

// Get returns the current entry snapshot. It never triggers a fetch; a key
// that was never loaded reports StateUnloaded.
func (s *Store) Get(key Key) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{State: StateUnloaded}
	}
	return e.snapshot()
}

// EnsureLoaded fetches the key only if it is not currently Ready
func (s *Store) EnsureLoaded(ctx context.Context, key Key) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	ready := ok && e.state == StateReady
	s.mu.Unlock()

	if ready {
		return nil
	}
	return s.Refresh(ctx, key)
}

// Refresh always goes to the collaborator and replaces the entry wholesale.
// Concurrent refreshes of the same key coalesce into one in-flight request;
// a response belonging to a flight that was superseded by an invalidation or
// a newer flight is discarded, so an earlier response can never clobber a
// later one.
func (s *Store) Refresh(ctx context.Context, key Key) error {
	if !key.Kind.Valid() {
		return &dataaccess.ValidationError{Field: "kind", Message: "unknown relationship kind: " + string(key.Kind)}
	}

	_, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		seq := s.beginFlight(key)

		fetchCtx := ctx
		if s.cfg.RefreshTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.RefreshTimeout)
			defer cancel()
		}

		value, err := s.fetch(fetchCtx, key)
		return nil, s.completeFlight(key, seq, value, err)
	})
	return err
}

// Invalidate marks the entry stale without refetching. A later Get observes
// StateStale; a later Refresh replaces the value. The invalidation is
// broadcast to other processes when a bus is attached.
func (s *Store) Invalidate(key Key) {
	s.invalidate(key, true)
}

// InvalidateAll marks several keys stale; the mutation service uses it to
// hit both sides of an edge
func (s *Store) InvalidateAll(keys ...Key) {
	for _, key := range keys {
		s.invalidate(key, true)
	}
}

// Subscribe registers fn to run after every state transition of key. The
// returned cancel detaches fn; it is idempotent and safe to call while a
// refresh is in flight, after which fn is never called again.
func (s *Store) Subscribe(key Key, fn func(Entry)) func() {
	s.mu.Lock()
	e := s.ensureEntry(key)
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if e, ok := s.entries[key]; ok {
				delete(e.subs, id)
			}
			s.mu.Unlock()
		})
	}
}

// invalidate marks stale and optionally publishes. Entries mid-flight get
// their sequence bumped so the in-flight response lands in the discard path.
func (s *Store) invalidate(key Key, publish bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		e.latestSeq++
		switch e.state {
		case StateReady, StateError, StateLoading:
			e.state = StateStale
		}
	}
	s.mu.Unlock()

	// A coalesced flight for this key is now suspect; the next Refresh must
	// start a fresh one
	s.group.Forget(key.String())

	if ok {
		s.notify(key)
	}

	if publish && s.bus != nil {
		s.bus.Publish(key)
	}

	s.log.Debug("relationship invalidated", "key", key.String())
}

// beginFlight transitions to Loading and stamps the flight's sequence.
// The entry is pinned against eviction until the flight completes, so its
// sequence counter survives an invalidation that lands mid-flight.
func (s *Store) beginFlight(key Key) uint64 {
	s.mu.Lock()
	e := s.ensureEntry(key)
	e.flights++
	e.latestSeq++
	seq := e.latestSeq
	e.state = StateLoading
	s.mu.Unlock()

	s.notify(key)
	return seq
}

// completeFlight applies the flight's outcome unless a newer flight or an
// invalidation superseded it
func (s *Store) completeFlight(key Key, seq uint64, value Value, err error) error {
	if err != nil {
		err = asDataAccessError(err)
	}

	s.mu.Lock()
	e := s.ensureEntry(key)
	e.flights--

	if seq < e.latestSeq {
		s.mu.Unlock()
		s.log.Debug("discarding superseded response", "key", key.String(), "seq", seq)
		return err
	}

	if err != nil {
		// Keep the previous value: stale-but-visible beats blanking the view
		e.state = StateError
		e.err = err
	} else {
		e.state = StateReady
		e.value = value
		e.err = nil
		e.updatedAt = time.Now()
	}
	s.mu.Unlock()

	s.notify(key)
	return err
}

// fetch resolves a key through the collaborator and the normalizer
func (s *Store) fetch(ctx context.Context, key Key) (Value, error) {
	switch key.Kind {
	case KindSequenceShots:
		rows, err := s.client.FetchSequenceDetail(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		tree := normalize.SequenceDetail(rows)
		if tree == nil {
			return Value{Missing: true}, nil
		}
		return Value{Shots: tree.Shots}, nil

	case KindSequenceAssets:
		rows, err := s.client.FetchSequenceAssets(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		return Value{Assets: normalize.LinkedAssets(rows)}, nil

	case KindShotAssets:
		rows, err := s.client.FetchShotAssets(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		return Value{Assets: normalize.LinkedAssets(rows)}, nil

	case KindAssetShots:
		rows, err := s.client.FetchAssetUsage(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		return Value{Refs: normalize.Usage(key.OwnerID, rows).Shots}, nil

	case KindAssetSequences:
		rows, err := s.client.FetchAssetUsage(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		return Value{Refs: normalize.Usage(key.OwnerID, rows).Sequences}, nil

	case KindShotSequence:
		seq, err := s.client.FetchShotSequence(ctx, key.OwnerID)
		if err != nil {
			return Value{}, err
		}
		return Value{Sequence: seq}, nil

	default:
		return Value{}, &dataaccess.ValidationError{Field: "kind", Message: "unknown relationship kind: " + string(key.Kind)}
	}
}

// notify calls subscribers outside the store lock
func (s *Store) notify(key Key) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	snap := e.snapshot()
	fns := make([]func(Entry), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// ensureEntry returns the entry for key, creating it and evicting cold
// entries past the watermark. Caller holds s.mu.
func (s *Store) ensureEntry(key Key) *entry {
	e, ok := s.entries[key]
	if ok {
		return e
	}

	if len(s.entries) >= s.cfg.MaxEntries {
		s.evictLocked()
	}

	e = &entry{
		state: StateUnloaded,
		subs:  make(map[int]func(Entry)),
	}
	s.entries[key] = e
	return e
}

// evictLocked drops unobserved stale/unloaded entries. Observed entries and
// entries with a refresh in flight are never evicted regardless of the
// watermark: recreating a mid-flight entry would reset its sequence counter
// and let a superseded response land as fresh.
func (s *Store) evictLocked() {
	for key, e := range s.entries {
		if len(e.subs) > 0 || e.flights > 0 {
			continue
		}
		if e.state == StateStale || e.state == StateUnloaded {
			delete(s.entries, key)
		}
	}
}

// asDataAccessError keeps the taxonomy closed: anything the collaborator
// leaked raw becomes a TransportError
func asDataAccessError(err error) error {
	if dataaccess.IsNotFound(err) || dataaccess.IsConflict(err) ||
		dataaccess.IsValidation(err) || dataaccess.IsTransport(err) ||
		dataaccess.IsAuthorization(err) {
		return err
	}
	return &dataaccess.TransportError{Op: "fetch", Err: err}
}
