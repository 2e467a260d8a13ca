package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
)

// FetchSequenceDetail returns the flat sequence x shot x asset projection.
// The first branch walks shots (with their linked assets, if any); the
// second adds the sequence's directly linked assets with a null shot branch.
// A missing sequence yields zero rows.
func (r *Repository) FetchSequenceDetail(ctx context.Context, sequenceID uuid.UUID) ([]models.SequenceDetailRow, error) {
	query := `
		SELECT s.sequence_id,
		       s.name        AS sequence_name,
		       s.description AS sequence_description,
		       s.status      AS sequence_status,
		       s.thumbnail   AS sequence_thumbnail,
		       sh.shot_id,
		       sh.name        AS shot_name,
		       sh.description AS shot_description,
		       sh.status      AS shot_status,
		       sh.thumbnail   AS shot_thumbnail,
		       a.asset_id,
		       a.name        AS asset_name,
		       a.description AS asset_description,
		       a.asset_type  AS asset_type,
		       a.status      AS asset_status,
		       a.thumbnail   AS asset_thumbnail,
		       l.link_id,
		       l.linked_at
		FROM sequence s
		LEFT JOIN shot sh ON sh.sequence_id = s.sequence_id
		LEFT JOIN asset_shot_link l ON l.shot_id = sh.shot_id
		LEFT JOIN asset a ON a.asset_id = l.asset_id
		WHERE s.sequence_id = $1

		UNION ALL

		SELECT s.sequence_id,
		       s.name,
		       s.description,
		       s.status,
		       s.thumbnail,
		       NULL::uuid,
		       NULL::text,
		       NULL::text,
		       NULL::text,
		       NULL::text,
		       a.asset_id,
		       a.name,
		       a.description,
		       a.asset_type,
		       a.status,
		       a.thumbnail,
		       l.link_id,
		       l.linked_at
		FROM sequence s
		JOIN asset_sequence_link l ON l.sequence_id = s.sequence_id
		JOIN asset a ON a.asset_id = l.asset_id
		WHERE s.sequence_id = $1

		ORDER BY shot_name NULLS LAST, linked_at NULLS FIRST
	`

	rows, err := r.db.Query(ctx, query, sequenceID)
	if err != nil {
		return nil, mapErr("FetchSequenceDetail", "sequence "+sequenceID.String(), err)
	}
	defer rows.Close()

	var out []models.SequenceDetailRow
	for rows.Next() {
		var row models.SequenceDetailRow
		err := rows.Scan(
			&row.SequenceID,
			&row.SequenceName,
			&row.SequenceDesc,
			&row.SequenceStat,
			&row.SequenceThmb,
			&row.ShotID,
			&row.ShotName,
			&row.ShotDesc,
			&row.ShotStat,
			&row.ShotThmb,
			&row.AssetID,
			&row.AssetName,
			&row.AssetDesc,
			&row.AssetType,
			&row.AssetStat,
			&row.AssetThmb,
			&row.LinkID,
			&row.LinkedAt,
		)
		if err != nil {
			return nil, mapErr("FetchSequenceDetail", "sequence "+sequenceID.String(), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("FetchSequenceDetail", "sequence "+sequenceID.String(), err)
	}

	return out, nil
}

// FetchSequenceAssets returns the assets linked directly to one sequence
func (r *Repository) FetchSequenceAssets(ctx context.Context, sequenceID uuid.UUID) ([]models.LinkedAssetRow, error) {
	query := `
		SELECT l.sequence_id AS owner_id,
		       l.link_id,
		       l.linked_at,
		       a.asset_id,
		       a.name        AS asset_name,
		       a.description AS asset_description,
		       a.asset_type,
		       a.status      AS asset_status,
		       a.thumbnail   AS asset_thumbnail
		FROM asset_sequence_link l
		JOIN asset a ON a.asset_id = l.asset_id
		WHERE l.sequence_id = $1
		ORDER BY l.linked_at, l.link_id
	`

	return r.linkedAssets(ctx, "FetchSequenceAssets", query, sequenceID)
}

// CreateSequence inserts a sequence with a fresh id and defaulted status
func (r *Repository) CreateSequence(ctx context.Context, seq *models.Sequence) (uuid.UUID, error) {
	query := `
		INSERT INTO sequence (sequence_id, project_id, name, description, status, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`

	id := uuid.New()
	status := seq.Status
	if status == "" {
		status = models.StatusWaiting
	}

	_, err := r.db.Exec(ctx, query, id, seq.ProjectID, seq.Name, seq.Description, status, seq.Thumbnail)
	if err != nil {
		return uuid.Nil, mapErr("CreateSequence", "sequence "+seq.Name, err)
	}

	r.log.Info("sequence created", "sequence_id", id, "name", seq.Name)
	return id, nil
}
