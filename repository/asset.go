package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
)

// FetchAssetUsage returns every shot and sequence one asset is linked to,
// one row per association, shot branch first.
func (r *Repository) FetchAssetUsage(ctx context.Context, assetID uuid.UUID) ([]models.AssetUsageRow, error) {
	query := `
		SELECT l.asset_id,
		       l.link_id,
		       l.linked_at,
		       sh.shot_id,
		       sh.name   AS shot_name,
		       sh.status AS shot_status,
		       NULL::uuid,
		       NULL::text,
		       NULL::text
		FROM asset_shot_link l
		JOIN shot sh ON sh.shot_id = l.shot_id
		WHERE l.asset_id = $1

		UNION ALL

		SELECT l.asset_id,
		       l.link_id,
		       l.linked_at,
		       NULL::uuid,
		       NULL::text,
		       NULL::text,
		       s.sequence_id,
		       s.name   AS sequence_name,
		       s.status AS sequence_status
		FROM asset_sequence_link l
		JOIN sequence s ON s.sequence_id = l.sequence_id
		WHERE l.asset_id = $1

		ORDER BY linked_at, link_id
	`

	rows, err := r.db.Query(ctx, query, assetID)
	if err != nil {
		return nil, mapErr("FetchAssetUsage", "asset "+assetID.String(), err)
	}
	defer rows.Close()

	var out []models.AssetUsageRow
	for rows.Next() {
		var row models.AssetUsageRow
		err := rows.Scan(
			&row.AssetID,
			&row.LinkID,
			&row.LinkedAt,
			&row.ShotID,
			&row.ShotName,
			&row.ShotStat,
			&row.SequenceID,
			&row.SequenceName,
			&row.SequenceStat,
		)
		if err != nil {
			return nil, mapErr("FetchAssetUsage", "asset "+assetID.String(), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("FetchAssetUsage", "asset "+assetID.String(), err)
	}

	return out, nil
}

// FetchProjectAssets lists all assets of a project
func (r *Repository) FetchProjectAssets(ctx context.Context, projectID uuid.UUID) ([]models.Asset, error) {
	query := `
		SELECT asset_id, project_id, name, description, asset_type, status, thumbnail
		FROM asset
		WHERE project_id = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapErr("FetchProjectAssets", "project "+projectID.String(), err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		err := rows.Scan(
			&asset.AssetID,
			&asset.ProjectID,
			&asset.Name,
			&asset.Description,
			&asset.AssetType,
			&asset.Status,
			&asset.Thumbnail,
		)
		if err != nil {
			return nil, mapErr("FetchProjectAssets", "project "+projectID.String(), err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("FetchProjectAssets", "project "+projectID.String(), err)
	}

	return assets, nil
}

// CreateAsset inserts an asset
func (r *Repository) CreateAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error) {
	query := `
		INSERT INTO asset (asset_id, project_id, name, description, asset_type, status, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`

	id := uuid.New()
	status := asset.Status
	if status == "" {
		status = models.StatusWaiting
	}

	_, err := r.db.Exec(ctx, query, id, asset.ProjectID, asset.Name, asset.Description, asset.AssetType, status, asset.Thumbnail)
	if err != nil {
		return uuid.Nil, mapErr("CreateAsset", "asset "+asset.Name, err)
	}

	r.log.Info("asset created", "asset_id", id, "name", asset.Name)
	return id, nil
}
