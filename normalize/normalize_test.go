package normalize

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewell/tracker/common/models"
)

func strPtr(s string) *string        { return &s }
func idPtr(id uuid.UUID) *uuid.UUID  { return &id }
func timePtr(t time.Time) *time.Time { return &t }

type detailFixture struct {
	seqID  uuid.UUID
	shot1  uuid.UUID
	shot2  uuid.UUID
	assetA uuid.UUID
	assetB uuid.UUID
	assetC uuid.UUID
	linkA  uuid.UUID
	linkB  uuid.UUID
	linkC  uuid.UUID
	rows   []models.SequenceDetailRow
}

// newDetailFixture builds the canonical grouping input: sequence S1 with
// Shot1 carrying assets A and B, Shot2 with no assets, and direct asset C.
func newDetailFixture() detailFixture {
	f := detailFixture{
		seqID:  uuid.New(),
		shot1:  uuid.New(),
		shot2:  uuid.New(),
		assetA: uuid.New(),
		assetB: uuid.New(),
		assetC: uuid.New(),
		linkA:  uuid.New(),
		linkB:  uuid.New(),
		linkC:  uuid.New(),
	}

	base := models.SequenceDetailRow{
		SequenceID:   f.seqID,
		SequenceName: "S1",
		SequenceStat: "in_progress",
	}

	rowA := base
	rowA.ShotID = idPtr(f.shot1)
	rowA.ShotName = strPtr("Shot1")
	rowA.ShotStat = strPtr("waiting")
	rowA.AssetID = idPtr(f.assetA)
	rowA.AssetName = strPtr("AssetA")
	rowA.AssetDesc = strPtr("hero prop")
	rowA.AssetStat = strPtr("final")
	rowA.LinkID = idPtr(f.linkA)
	rowA.LinkedAt = timePtr(time.Now())

	rowB := rowA
	rowB.AssetID = idPtr(f.assetB)
	rowB.AssetName = strPtr("AssetB")
	rowB.LinkID = idPtr(f.linkB)

	rowShot2 := base
	rowShot2.ShotID = idPtr(f.shot2)
	rowShot2.ShotName = strPtr("Shot2")
	rowShot2.ShotStat = strPtr("waiting")

	rowC := base
	rowC.AssetID = idPtr(f.assetC)
	rowC.AssetName = strPtr("AssetC")
	rowC.AssetDesc = strPtr("set dressing")
	rowC.AssetStat = strPtr("waiting")
	rowC.LinkID = idPtr(f.linkC)
	rowC.LinkedAt = timePtr(time.Now())

	f.rows = []models.SequenceDetailRow{rowA, rowB, rowShot2, rowC}
	return f
}

func TestSequenceDetail_Grouping(t *testing.T) {
	f := newDetailFixture()

	tree := SequenceDetail(f.rows)
	require.NotNil(t, tree)

	assert.Equal(t, f.seqID, tree.SequenceID)
	assert.Equal(t, "S1", tree.Name)
	assert.Equal(t, models.StatusInProgress, tree.Status)

	require.Len(t, tree.Shots, 2)
	assert.Equal(t, f.shot1, tree.Shots[0].ShotID)
	assert.Equal(t, f.shot2, tree.Shots[1].ShotID)

	require.Len(t, tree.Shots[0].Assets, 2)
	assert.Equal(t, "AssetA", tree.Shots[0].Assets[0].Name)
	assert.Equal(t, "hero prop", tree.Shots[0].Assets[0].Description)
	assert.Equal(t, "AssetB", tree.Shots[0].Assets[1].Name)

	assert.Empty(t, tree.Shots[1].Assets)

	require.Len(t, tree.DirectAssets, 1)
	assert.Equal(t, f.assetC, tree.DirectAssets[0].AssetID)
	assert.Equal(t, f.linkC, tree.DirectAssets[0].LinkID)
	assert.Equal(t, "set dressing", tree.DirectAssets[0].Description)
}

func TestSequenceDetail_Idempotent(t *testing.T) {
	f := newDetailFixture()

	first := SequenceDetail(f.rows)
	second := SequenceDetail(f.rows)

	assert.Equal(t, first, second)
}

func TestSequenceDetail_NotFoundVsChildless(t *testing.T) {
	// Zero rows: the sequence does not exist
	assert.Nil(t, SequenceDetail(nil))
	assert.Nil(t, SequenceDetail([]models.SequenceDetailRow{}))

	// One owner-only row: the sequence exists with no children
	tree := SequenceDetail([]models.SequenceDetailRow{{
		SequenceID:   uuid.New(),
		SequenceName: "empty",
		SequenceStat: "waiting",
	}})
	require.NotNil(t, tree)
	assert.Empty(t, tree.Shots)
	assert.Empty(t, tree.DirectAssets)
}

func TestSequenceDetail_FirstOccurrenceWinsShotFields(t *testing.T) {
	f := newDetailFixture()

	// A later row repeats Shot1 with different field values; only its asset
	// may contribute
	extraLink := uuid.New()
	extraAsset := uuid.New()
	row := f.rows[0]
	row.ShotName = strPtr("renamed")
	row.AssetID = idPtr(extraAsset)
	row.AssetName = strPtr("AssetX")
	row.LinkID = idPtr(extraLink)
	rows := append(f.rows, row)

	tree := SequenceDetail(rows)
	require.NotNil(t, tree)
	assert.Equal(t, "Shot1", tree.Shots[0].Name)
	require.Len(t, tree.Shots[0].Assets, 3)
	assert.Equal(t, "AssetX", tree.Shots[0].Assets[2].Name)
}

func TestSequenceDetail_DuplicateLinkRowsDedup(t *testing.T) {
	f := newDetailFixture()
	rows := append(f.rows, f.rows[0]) // same link id twice

	tree := SequenceDetail(rows)
	require.NotNil(t, tree)
	assert.Len(t, tree.Shots[0].Assets, 2)
}

func TestSequenceDetail_UnknownStatusDegrades(t *testing.T) {
	tree := SequenceDetail([]models.SequenceDetailRow{{
		SequenceID:   uuid.New(),
		SequenceName: "S",
		SequenceStat: "on fire",
	}})
	require.NotNil(t, tree)
	assert.Equal(t, models.StatusUnlabeled, tree.Status)
}

func TestLinkedAssets_OrderAndDedup(t *testing.T) {
	linkX := uuid.New()
	linkY := uuid.New()
	rows := []models.LinkedAssetRow{
		{LinkID: linkX, AssetID: uuid.New(), AssetName: "X", AssetStat: "waiting"},
		{LinkID: linkY, AssetID: uuid.New(), AssetName: "Y", AssetStat: "final"},
		{LinkID: linkX, AssetID: uuid.New(), AssetName: "X-dup", AssetStat: "waiting"},
	}

	assets := LinkedAssets(rows)
	require.Len(t, assets, 2)
	assert.Equal(t, "X", assets[0].Name)
	assert.Equal(t, "Y", assets[1].Name)
}

func TestLinkedAssets_Empty(t *testing.T) {
	assert.Empty(t, LinkedAssets(nil))
}

func TestUsage_SplitsBranches(t *testing.T) {
	assetID := uuid.New()
	shotID := uuid.New()
	seqID := uuid.New()
	rows := []models.AssetUsageRow{
		{AssetID: assetID, LinkID: uuid.New(), ShotID: idPtr(shotID), ShotName: strPtr("sh010"), ShotStat: strPtr("waiting")},
		{AssetID: assetID, LinkID: uuid.New(), SequenceID: idPtr(seqID), SequenceName: strPtr("seq01"), SequenceStat: strPtr("final")},
		{AssetID: assetID, LinkID: uuid.New()}, // malformed: neither branch
	}

	usage := Usage(assetID, rows)
	require.NotNil(t, usage)
	require.Len(t, usage.Shots, 1)
	require.Len(t, usage.Sequences, 1)
	assert.Equal(t, shotID, usage.Shots[0].ID)
	assert.Equal(t, seqID, usage.Sequences[0].ID)
	assert.Equal(t, models.StatusFinal, usage.Sequences[0].Status)
}

func TestGroupAssetsByType(t *testing.T) {
	assets := []models.Asset{
		{AssetID: uuid.New(), Name: "tree", AssetType: "prop"},
		{AssetID: uuid.New(), Name: "hero", AssetType: "character"},
		{AssetID: uuid.New(), Name: "rock", AssetType: "prop"},
		{AssetID: uuid.New(), Name: "misc", AssetType: ""},
	}

	groups := GroupAssetsByType(assets)
	require.Len(t, groups, 3)
	assert.Equal(t, "character", groups[0].AssetType)
	assert.Equal(t, "prop", groups[1].AssetType)
	assert.Equal(t, "", groups[2].AssetType)
	require.Len(t, groups[1].Assets, 2)
	assert.Equal(t, "tree", groups[1].Assets[0].Name)
	assert.Equal(t, "rock", groups[1].Assets[1].Name)
}
