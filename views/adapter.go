package views

import (
	"github.com/framewell/tracker/relstore"
)

// Snapshot is the state of every relationship key a surface declared, as of
// one notification. Entries carry their own Loading/Error markers, so a
// renderer has everything it needs to draw loading and stale states.
type Snapshot map[relstore.Key]relstore.Entry

// Adapter is what a surface implements to be driven by the relationship
// store. Declared keys are fixed for the adapter's lifetime; a surface whose
// owner changes closes its binding and opens a new one. Render is called on
// the goroutine that completed the triggering state change and must not
// block.
type Adapter interface {
	Declared() []relstore.Key
	Render(Snapshot)
}

// AdapterFunc adapts a render function over a fixed key set.
type AdapterFunc struct {
	Keys []relstore.Key
	Fn   func(Snapshot)
}

func (a AdapterFunc) Declared() []relstore.Key { return a.Keys }
func (a AdapterFunc) Render(s Snapshot)        { a.Fn(s) }
