// Package normalize reshapes the flat denormalized rows returned by the data
// layer into the nested structures views render. Everything here is a pure
// function: no I/O, deterministic, and tolerant of partial rows (missing
// branches degrade to missing fields, never to a panic or an error).
package normalize

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
)

// SequenceTree is the nested form of the sequence detail projection
type SequenceTree struct {
	SequenceID  uuid.UUID
	Name        string
	Description string
	Status      models.Status
	Thumbnail   *string

	// Shots in first-seen row order, each with its linked assets
	Shots []ShotGroup

	// Assets linked to the sequence itself, not through a shot
	DirectAssets []LinkedAsset
}

// ShotGroup is one shot of a sequence with its linked assets
type ShotGroup struct {
	ShotID      uuid.UUID
	Name        string
	Description string
	Status      models.Status
	Thumbnail   *string

	Assets []LinkedAsset
}

// LinkedAsset is an asset reached through an association row. LinkID
// identifies the edge and is the handle for unlinking.
type LinkedAsset struct {
	LinkID   uuid.UUID
	LinkedAt time.Time

	AssetID     uuid.UUID
	Name        string
	Description string
	AssetType   string
	Status      models.Status
	Thumbnail   *string
}

// UsageRef is one place an asset is used (a shot or a sequence)
type UsageRef struct {
	LinkID   uuid.UUID
	LinkedAt time.Time

	ID     uuid.UUID
	Name   string
	Status models.Status
}

// AssetUsage groups everywhere one asset is linked
type AssetUsage struct {
	AssetID   uuid.UUID
	Shots     []UsageRef
	Sequences []UsageRef
}

// TypeGroup is a set of assets sharing a type tag
type TypeGroup struct {
	AssetType string
	Assets    []models.Asset
}

// SequenceDetail builds the nested tree from flat detail rows. A nil result
// means the sequence does not exist (zero input rows); a non-nil result with
// empty children means it exists and is childless. The first row carrying a
// shot id determines that shot's fields; later rows for the same shot only
// contribute assets. Rows with a shot id and no asset id contribute the shot
// alone.
func SequenceDetail(rows []models.SequenceDetailRow) *SequenceTree {
	if len(rows) == 0 {
		return nil
	}

	first := rows[0]
	tree := &SequenceTree{
		SequenceID:  first.SequenceID,
		Name:        first.SequenceName,
		Description: first.SequenceDesc,
		Status:      models.ParseStatus(first.SequenceStat),
		Thumbnail:   first.SequenceThmb,
	}

	shotIndex := make(map[uuid.UUID]int)
	seenLinks := make(map[uuid.UUID]bool)

	for _, row := range rows {
		if row.ShotID == nil {
			// Direct-asset branch, or an owner-only row for a childless
			// sequence
			if asset, ok := assetFromDetailRow(row); ok && !seenLinks[asset.LinkID] {
				seenLinks[asset.LinkID] = true
				tree.DirectAssets = append(tree.DirectAssets, asset)
			}
			continue
		}

		idx, ok := shotIndex[*row.ShotID]
		if !ok {
			idx = len(tree.Shots)
			shotIndex[*row.ShotID] = idx
			tree.Shots = append(tree.Shots, ShotGroup{
				ShotID:      *row.ShotID,
				Name:        deref(row.ShotName),
				Description: deref(row.ShotDesc),
				Status:      models.ParseStatus(deref(row.ShotStat)),
				Thumbnail:   row.ShotThmb,
			})
		}

		if asset, ok := assetFromDetailRow(row); ok && !seenLinks[asset.LinkID] {
			seenLinks[asset.LinkID] = true
			tree.Shots[idx].Assets = append(tree.Shots[idx].Assets, asset)
		}
	}

	return tree
}

// LinkedAssets converts linked-asset rows, deduplicating by association id
// and preserving row order
func LinkedAssets(rows []models.LinkedAssetRow) []LinkedAsset {
	var assets []LinkedAsset
	seen := make(map[uuid.UUID]bool)
	for _, row := range rows {
		if seen[row.LinkID] {
			continue
		}
		seen[row.LinkID] = true
		assets = append(assets, LinkedAsset{
			LinkID:      row.LinkID,
			LinkedAt:    row.LinkedAt,
			AssetID:     row.AssetID,
			Name:        row.AssetName,
			Description: row.AssetDesc,
			AssetType:   row.AssetType,
			Status:      models.ParseStatus(row.AssetStat),
			Thumbnail:   row.AssetThmb,
		})
	}
	return assets
}

// Usage splits usage rows into shot and sequence references. Zero rows mean
// the asset has no links (or does not exist; this projection cannot tell the
// two apart, which is fine for a usage listing).
func Usage(assetID uuid.UUID, rows []models.AssetUsageRow) *AssetUsage {
	usage := &AssetUsage{AssetID: assetID}
	seen := make(map[uuid.UUID]bool)

	for _, row := range rows {
		if seen[row.LinkID] {
			continue
		}
		seen[row.LinkID] = true

		switch {
		case row.ShotID != nil:
			usage.Shots = append(usage.Shots, UsageRef{
				LinkID:   row.LinkID,
				LinkedAt: row.LinkedAt,
				ID:       *row.ShotID,
				Name:     deref(row.ShotName),
				Status:   models.ParseStatus(deref(row.ShotStat)),
			})
		case row.SequenceID != nil:
			usage.Sequences = append(usage.Sequences, UsageRef{
				LinkID:   row.LinkID,
				LinkedAt: row.LinkedAt,
				ID:       *row.SequenceID,
				Name:     deref(row.SequenceName),
				Status:   models.ParseStatus(deref(row.SequenceStat)),
			})
		}
		// Rows with neither branch are malformed; skip them
	}

	return usage
}

// GroupAssetsByType buckets assets by their type tag. Groups are ordered by
// tag name; assets keep their input order within a group. Assets with an
// empty tag land in a trailing "" group.
func GroupAssetsByType(assets []models.Asset) []TypeGroup {
	byType := make(map[string][]models.Asset)
	for _, asset := range assets {
		byType[asset.AssetType] = append(byType[asset.AssetType], asset)
	}

	names := make([]string, 0, len(byType))
	for name := range byType {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := byType[""]; ok {
		names = append(names, "")
	}

	groups := make([]TypeGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, TypeGroup{AssetType: name, Assets: byType[name]})
	}
	return groups
}

func assetFromDetailRow(row models.SequenceDetailRow) (LinkedAsset, bool) {
	if row.AssetID == nil || row.LinkID == nil {
		return LinkedAsset{}, false
	}
	return LinkedAsset{
		LinkID:      *row.LinkID,
		LinkedAt:    derefTime(row.LinkedAt),
		AssetID:     *row.AssetID,
		Name:        deref(row.AssetName),
		Description: deref(row.AssetDesc),
		AssetType:   deref(row.AssetType),
		Status:      models.ParseStatus(deref(row.AssetStat)),
		Thumbnail:   row.AssetThmb,
	}, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
