package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType discriminates the tables an EntityRef may point at
type EntityType string

const (
	EntitySequence EntityType = "sequence"
	EntityShot     EntityType = "shot"
	EntityAsset    EntityType = "asset"
	EntityTask     EntityType = "task"
	EntityVersion  EntityType = "version"
)

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	switch t {
	case EntitySequence, EntityShot, EntityAsset, EntityTask, EntityVersion:
		return true
	}
	return false
}

// EntityRef is a typed reference to one row of one entity table. It replaces
// the loose (entity_type string, entity_id) pair so invalid combinations are
// rejected at the boundary instead of surfacing as broken joins later.
type EntityRef struct {
	Type EntityType `db:"entity_type" json:"entity_type"`
	ID   uuid.UUID  `db:"entity_id" json:"entity_id"`
}

// Validate checks the reference is well-formed
func (r EntityRef) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown entity type: %q", r.Type)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("entity id is required")
	}
	return nil
}

func (r EntityRef) String() string {
	return string(r.Type) + "/" + r.ID.String()
}

// Sequence represents one sequence of a project
// Maps to: sequence table
type Sequence struct {
	SequenceID uuid.UUID `db:"sequence_id" json:"sequence_id"`

	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	Status Status `db:"status" json:"status"`

	// Optional storage key of the poster frame
	Thumbnail *string `db:"thumbnail" json:"thumbnail,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Shot represents one shot of a project
// Maps to: shot table
type Shot struct {
	ShotID uuid.UUID `db:"shot_id" json:"shot_id"`

	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	// Membership is exclusive: a shot belongs to at most one sequence,
	// nil means unassigned
	SequenceID *uuid.UUID `db:"sequence_id" json:"sequence_id,omitempty"`

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	Status Status `db:"status" json:"status"`

	Thumbnail *string `db:"thumbnail" json:"thumbnail,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Asset represents one reusable asset of a project
// Maps to: asset table
type Asset struct {
	AssetID uuid.UUID `db:"asset_id" json:"asset_id"`

	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	// Free-form type tag ('character', 'prop', 'environment', ...),
	// used only for grouping in asset views
	AssetType string `db:"asset_type" json:"asset_type"`

	Status Status `db:"status" json:"status"`

	Thumbnail *string `db:"thumbnail" json:"thumbnail,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
