package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

// FetchShotAssets returns the assets linked to one shot
func (r *Repository) FetchShotAssets(ctx context.Context, shotID uuid.UUID) ([]models.LinkedAssetRow, error) {
	query := `
		SELECT l.shot_id AS owner_id,
		       l.link_id,
		       l.linked_at,
		       a.asset_id,
		       a.name        AS asset_name,
		       a.description AS asset_description,
		       a.asset_type,
		       a.status      AS asset_status,
		       a.thumbnail   AS asset_thumbnail
		FROM asset_shot_link l
		JOIN asset a ON a.asset_id = l.asset_id
		WHERE l.shot_id = $1
		ORDER BY l.linked_at, l.link_id
	`

	return r.linkedAssets(ctx, "FetchShotAssets", query, shotID)
}

// FetchShotSequence returns the sequence a shot belongs to, nil when the
// shot is unassigned. A missing shot also reads as unassigned; point
// operations are where absence turns into NotFound.
func (r *Repository) FetchShotSequence(ctx context.Context, shotID uuid.UUID) (*models.Sequence, error) {
	query := `
		SELECT s.sequence_id, s.project_id, s.name, s.description, s.status, s.thumbnail
		FROM shot sh
		JOIN sequence s ON s.sequence_id = sh.sequence_id
		WHERE sh.shot_id = $1
	`

	seq := &models.Sequence{}
	err := r.db.QueryRow(ctx, query, shotID).Scan(
		&seq.SequenceID,
		&seq.ProjectID,
		&seq.Name,
		&seq.Description,
		&seq.Status,
		&seq.Thumbnail,
	)
	if err != nil {
		mapped := mapErr("FetchShotSequence", "shot "+shotID.String(), err)
		if dataaccess.IsNotFound(mapped) {
			return nil, nil
		}
		return nil, mapped
	}

	return seq, nil
}

// FetchUnassignedShots lists a project's shots with no sequence
func (r *Repository) FetchUnassignedShots(ctx context.Context, projectID uuid.UUID) ([]models.Shot, error) {
	query := `
		SELECT shot_id, project_id, sequence_id, name, description, status, thumbnail
		FROM shot
		WHERE project_id = $1 AND sequence_id IS NULL
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, mapErr("FetchUnassignedShots", "project "+projectID.String(), err)
	}
	defer rows.Close()

	var shots []models.Shot
	for rows.Next() {
		var shot models.Shot
		err := rows.Scan(
			&shot.ShotID,
			&shot.ProjectID,
			&shot.SequenceID,
			&shot.Name,
			&shot.Description,
			&shot.Status,
			&shot.Thumbnail,
		)
		if err != nil {
			return nil, mapErr("FetchUnassignedShots", "project "+projectID.String(), err)
		}
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("FetchUnassignedShots", "project "+projectID.String(), err)
	}

	return shots, nil
}

// ReassignShotSequence supersedes the shot's prior membership in one
// statement; nil clears it
func (r *Repository) ReassignShotSequence(ctx context.Context, shotID uuid.UUID, sequenceID *uuid.UUID) error {
	query := `
		UPDATE shot
		SET sequence_id = $2
		WHERE shot_id = $1
	`

	tag, err := r.db.Exec(ctx, query, shotID, sequenceID)
	if err != nil {
		return mapErr("ReassignShotSequence", "shot "+shotID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return &dataaccess.NotFoundError{Target: "shot " + shotID.String()}
	}

	return nil
}

// CreateShot inserts a shot, optionally pre-assigned to a sequence
func (r *Repository) CreateShot(ctx context.Context, shot *models.Shot) (uuid.UUID, error) {
	query := `
		INSERT INTO shot (shot_id, project_id, sequence_id, name, description, status, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`

	id := uuid.New()
	status := shot.Status
	if status == "" {
		status = models.StatusWaiting
	}

	_, err := r.db.Exec(ctx, query, id, shot.ProjectID, shot.SequenceID, shot.Name, shot.Description, status, shot.Thumbnail)
	if err != nil {
		return uuid.Nil, mapErr("CreateShot", "shot "+shot.Name, err)
	}

	r.log.Info("shot created", "shot_id", id, "name", shot.Name)
	return id, nil
}
