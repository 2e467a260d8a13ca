package views

import (
	"errors"

	"github.com/google/uuid"

	"github.com/framewell/tracker/relstore"
)

var (
	ErrAlreadyBound  = errors.New("binding already bound")
	ErrBindingClosed = errors.New("binding closed")
)

// Key sets for the concrete surfaces. Each surface declares exactly the
// relationships it draws; mutations go through the link service, never
// through the store directly.

// SequenceDetailKeys covers the sequence detail page: the shot list with
// nested assets plus the sequence's directly linked assets.
func SequenceDetailKeys(sequenceID uuid.UUID) []relstore.Key {
	return []relstore.Key{
		{Kind: relstore.KindSequenceShots, OwnerID: sequenceID},
		{Kind: relstore.KindSequenceAssets, OwnerID: sequenceID},
	}
}

// ShotTabKeys covers a shot's detail tab: its linked assets and the sequence
// it belongs to.
func ShotTabKeys(shotID uuid.UUID) []relstore.Key {
	return []relstore.Key{
		{Kind: relstore.KindShotAssets, OwnerID: shotID},
		{Kind: relstore.KindShotSequence, OwnerID: shotID},
	}
}

// AssetTabKeys covers an asset's cross-reference tab: every shot and every
// sequence the asset is linked into.
func AssetTabKeys(assetID uuid.UUID) []relstore.Key {
	return []relstore.Key{
		{Kind: relstore.KindAssetShots, OwnerID: assetID},
		{Kind: relstore.KindAssetSequences, OwnerID: assetID},
	}
}

// ShotsUnderSequenceKeys covers the collapsed shots strip on overview pages.
func ShotsUnderSequenceKeys(sequenceID uuid.UUID) []relstore.Key {
	return []relstore.Key{
		{Kind: relstore.KindSequenceShots, OwnerID: sequenceID},
	}
}

// AssetsUnderShotKeys covers the collapsed assets strip on overview pages.
func AssetsUnderShotKeys(shotID uuid.UUID) []relstore.Key {
	return []relstore.Key{
		{Kind: relstore.KindShotAssets, OwnerID: shotID},
	}
}
