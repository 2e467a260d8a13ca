package models

import (
	"time"

	"github.com/google/uuid"
)

// Flat rows are the denormalized projections the data layer returns: one row
// per owner/mid/leaf combination, nullable columns where a branch is absent.
// Normalization back into trees lives in the normalize package.

// SequenceDetailRow is one row of the sequence detail projection
// (sequence LEFT JOIN shot LEFT JOIN asset, plus direct-asset rows with a
// null shot branch).
type SequenceDetailRow struct {
	SequenceID   uuid.UUID `db:"sequence_id"`
	SequenceName string    `db:"sequence_name"`
	SequenceDesc string    `db:"sequence_description"`
	SequenceStat string    `db:"sequence_status"`
	SequenceThmb *string   `db:"sequence_thumbnail"`

	ShotID   *uuid.UUID `db:"shot_id"`
	ShotName *string    `db:"shot_name"`
	ShotDesc *string    `db:"shot_description"`
	ShotStat *string    `db:"shot_status"`
	ShotThmb *string    `db:"shot_thumbnail"`

	AssetID   *uuid.UUID `db:"asset_id"`
	AssetName *string    `db:"asset_name"`
	AssetDesc *string    `db:"asset_description"`
	AssetType *string    `db:"asset_type"`
	AssetStat *string    `db:"asset_status"`
	AssetThmb *string    `db:"asset_thumbnail"`

	// Association id and timestamp of the edge that produced this row,
	// nil when the asset branch is absent
	LinkID   *uuid.UUID `db:"link_id"`
	LinkedAt *time.Time `db:"linked_at"`
}

// LinkedAssetRow is one row of the "assets linked to an owner" projection
// (shot tab, direct sequence assets).
type LinkedAssetRow struct {
	OwnerID uuid.UUID `db:"owner_id"`

	LinkID   uuid.UUID `db:"link_id"`
	LinkedAt time.Time `db:"linked_at"`

	AssetID   uuid.UUID `db:"asset_id"`
	AssetName string    `db:"asset_name"`
	AssetDesc string    `db:"asset_description"`
	AssetType string    `db:"asset_type"`
	AssetStat string    `db:"asset_status"`
	AssetThmb *string   `db:"asset_thumbnail"`
}

// AssetUsageRow is one row of the "where is this asset used" projection.
// Exactly one of the shot or sequence branch is populated per row.
type AssetUsageRow struct {
	AssetID uuid.UUID `db:"asset_id"`

	LinkID   uuid.UUID `db:"link_id"`
	LinkedAt time.Time `db:"linked_at"`

	ShotID   *uuid.UUID `db:"shot_id"`
	ShotName *string    `db:"shot_name"`
	ShotStat *string    `db:"shot_status"`

	SequenceID   *uuid.UUID `db:"sequence_id"`
	SequenceName *string    `db:"sequence_name"`
	SequenceStat *string    `db:"sequence_status"`
}
