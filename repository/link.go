package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

// LinkAssetShot creates an asset-shot association and returns its id. The
// unique index on (asset_id, shot_id) turns a duplicate pair into a
// ConflictError; a vanished asset or shot surfaces as NotFound via the
// foreign keys.
func (r *Repository) LinkAssetShot(ctx context.Context, assetID, shotID uuid.UUID) (uuid.UUID, error) {
	query := `
		INSERT INTO asset_shot_link (link_id, asset_id, shot_id, linked_at)
		VALUES ($1, $2, $3, now())
	`

	linkID := uuid.New()
	_, err := r.db.Exec(ctx, query, linkID, assetID, shotID)
	if err != nil {
		return uuid.Nil, mapErr("LinkAssetShot", "asset "+assetID.String()+" to shot "+shotID.String(), err)
	}

	r.log.Info("asset linked to shot", "link_id", linkID, "asset_id", assetID, "shot_id", shotID)
	return linkID, nil
}

// LinkAssetSequence creates an asset-sequence association
func (r *Repository) LinkAssetSequence(ctx context.Context, assetID, sequenceID uuid.UUID) (uuid.UUID, error) {
	query := `
		INSERT INTO asset_sequence_link (link_id, asset_id, sequence_id, linked_at)
		VALUES ($1, $2, $3, now())
	`

	linkID := uuid.New()
	_, err := r.db.Exec(ctx, query, linkID, assetID, sequenceID)
	if err != nil {
		return uuid.Nil, mapErr("LinkAssetSequence", "asset "+assetID.String()+" to sequence "+sequenceID.String(), err)
	}

	r.log.Info("asset linked to sequence", "link_id", linkID, "asset_id", assetID, "sequence_id", sequenceID)
	return linkID, nil
}

// UnlinkAssetShot deletes an asset-shot association by its own id. A
// vanished id is NotFound; the caller decides whether that is benign.
func (r *Repository) UnlinkAssetShot(ctx context.Context, linkID uuid.UUID) error {
	return r.unlink(ctx, "UnlinkAssetShot", "asset_shot_link", linkID)
}

// UnlinkAssetSequence deletes an asset-sequence association by its own id
func (r *Repository) UnlinkAssetSequence(ctx context.Context, linkID uuid.UUID) error {
	return r.unlink(ctx, "UnlinkAssetSequence", "asset_sequence_link", linkID)
}

func (r *Repository) unlink(ctx context.Context, op, table string, linkID uuid.UUID) error {
	query := `DELETE FROM ` + table + ` WHERE link_id = $1`

	tag, err := r.db.Exec(ctx, query, linkID)
	if err != nil {
		return mapErr(op, "link "+linkID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return &dataaccess.NotFoundError{Target: "link " + linkID.String()}
	}

	r.log.Info("association removed", "table", table, "link_id", linkID)
	return nil
}

// linkedAssets runs a one-owner linked-asset projection query
func (r *Repository) linkedAssets(ctx context.Context, op, query string, ownerID uuid.UUID) ([]models.LinkedAssetRow, error) {
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapErr(op, "owner "+ownerID.String(), err)
	}
	defer rows.Close()

	var out []models.LinkedAssetRow
	for rows.Next() {
		var row models.LinkedAssetRow
		err := rows.Scan(
			&row.OwnerID,
			&row.LinkID,
			&row.LinkedAt,
			&row.AssetID,
			&row.AssetName,
			&row.AssetDesc,
			&row.AssetType,
			&row.AssetStat,
			&row.AssetThmb,
		)
		if err != nil {
			return nil, mapErr(op, "owner "+ownerID.String(), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, "owner "+ownerID.String(), err)
	}

	return out, nil
}
