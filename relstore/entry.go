package relstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/normalize"
)

// Kind names one tracked relationship. Kinds are independent even where they
// describe overlapping edges of the same graph; the store never infers one
// from another.
type Kind string

const (
	KindSequenceShots  Kind = "sequence_shots"
	KindSequenceAssets Kind = "sequence_assets"
	KindShotAssets     Kind = "shot_assets"
	KindAssetShots     Kind = "asset_shots"
	KindAssetSequences Kind = "asset_sequences"
	KindShotSequence   Kind = "shot_sequence"
)

// Valid reports whether k is a tracked relationship kind
func (k Kind) Valid() bool {
	switch k {
	case KindSequenceShots, KindSequenceAssets, KindShotAssets,
		KindAssetShots, KindAssetSequences, KindShotSequence:
		return true
	}
	return false
}

// Key addresses one cache entry: one relationship kind of one owning entity
type Key struct {
	Kind    Kind
	OwnerID uuid.UUID
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.OwnerID.String()
}

// State is the lifecycle of a cache entry
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateStale
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// Value is what a relationship key resolves to. Which field is populated
// depends on the kind; the others stay zero.
type Value struct {
	// KindSequenceShots: the sequence's shots with their nested assets.
	// Missing reports that the owning sequence itself was not found,
	// distinct from a childless sequence.
	Shots   []normalize.ShotGroup
	Missing bool

	// KindSequenceAssets, KindShotAssets
	Assets []normalize.LinkedAsset

	// KindAssetShots, KindAssetSequences
	Refs []normalize.UsageRef

	// KindShotSequence; nil means the shot is unassigned
	Sequence *models.Sequence
}

// Entry is a point-in-time snapshot of one cache entry. The last known value
// survives Stale and Error states so views can keep rendering it.
type Entry struct {
	State     State
	Value     Value
	Err       error
	UpdatedAt time.Time
}

// entry is the store-internal mutable form
type entry struct {
	state     State
	value     Value
	err       error
	updatedAt time.Time

	// latestSeq is bumped when a refresh flight starts or the entry is
	// invalidated; a completing flight whose seq is older is discarded
	latestSeq uint64

	// flights counts refreshes currently in flight for this key; a nonzero
	// count pins the entry against watermark eviction
	flights int

	subs    map[int]func(Entry)
	nextSub int
}

func (e *entry) snapshot() Entry {
	return Entry{
		State:     e.state,
		Value:     e.value,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
}
