package views

import (
	"context"
	"sync"

	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/relstore"
)

// Binding connects one Adapter to the relationship store for its lifetime.
// It subscribes to every declared key on Bind and triggers the initial loads,
// so the adapter re-renders on each entry transition without polling. Close
// cancels the subscriptions; no Render runs after Close returns from the
// binding's point of view (a Render already in flight may still finish).
type Binding struct {
	store   *relstore.Store
	adapter Adapter
	log     *logger.Logger

	mu      sync.Mutex
	cancels []func()
	closed  bool
}

func NewBinding(store *relstore.Store, adapter Adapter, log *logger.Logger) *Binding {
	return &Binding{
		store:   store,
		adapter: adapter,
		log:     log,
	}
}

// Bind subscribes and kicks off loading for every declared key, then renders
// the initial snapshot. Binding twice is an error.
func (b *Binding) Bind(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBindingClosed
	}
	if b.cancels != nil {
		b.mu.Unlock()
		return ErrAlreadyBound
	}
	keys := b.adapter.Declared()
	b.cancels = make([]func(), 0, len(keys))
	for _, key := range keys {
		cancel := b.store.Subscribe(key, func(relstore.Entry) {
			b.render()
		})
		b.cancels = append(b.cancels, cancel)
	}
	b.mu.Unlock()

	for _, key := range keys {
		if err := b.store.EnsureLoaded(ctx, key); err != nil {
			// The entry itself carries the error state; the adapter
			// renders it like any other transition.
			b.log.Warn("initial load failed", "key", key.String(), "error", err)
		}
	}

	b.render()
	return nil
}

// Close cancels every subscription. Idempotent.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// render assembles the snapshot and hands it to the adapter, unless the
// binding is closed.
func (b *Binding) render() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	snap := make(Snapshot, len(b.adapter.Declared()))
	for _, key := range b.adapter.Declared() {
		snap[key] = b.store.Get(key)
	}
	b.mu.Unlock()

	b.adapter.Render(snap)
}
