package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetShotLink is the association row between an asset and a shot. The link
// id, not the (asset, shot) pair, is the unit of deletion: the same pair can
// be re-linked later and will receive a fresh id.
// Maps to: asset_shot_link table
type AssetShotLink struct {
	LinkID uuid.UUID `db:"link_id" json:"link_id"`

	AssetID uuid.UUID `db:"asset_id" json:"asset_id"`
	ShotID  uuid.UUID `db:"shot_id" json:"shot_id"`

	LinkedAt time.Time `db:"linked_at" json:"linked_at"`
}

// AssetSequenceLink is the association row between an asset and a sequence
// Maps to: asset_sequence_link table
type AssetSequenceLink struct {
	LinkID uuid.UUID `db:"link_id" json:"link_id"`

	AssetID    uuid.UUID `db:"asset_id" json:"asset_id"`
	SequenceID uuid.UUID `db:"sequence_id" json:"sequence_id"`

	LinkedAt time.Time `db:"linked_at" json:"linked_at"`
}
