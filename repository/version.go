package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

// FetchVersions lists a task's versions ordered by version number
func (r *Repository) FetchVersions(ctx context.Context, taskID uuid.UUID) ([]models.Version, error) {
	query := `
		SELECT version_id, task_id, version_number, name, status, file, uploaded_by, created_at
		FROM version
		WHERE task_id = $1
		ORDER BY version_number
	`

	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, mapErr("FetchVersions", "task "+taskID.String(), err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var v models.Version
		err := rows.Scan(
			&v.VersionID,
			&v.TaskID,
			&v.VersionNumber,
			&v.Name,
			&v.Status,
			&v.File,
			&v.UploadedBy,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, mapErr("FetchVersions", "task "+taskID.String(), err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("FetchVersions", "task "+taskID.String(), err)
	}

	return versions, nil
}

// AddVersion inserts a version. The number is assigned here as max+1 within
// the task; gaps left by deletes are never reused backwards.
func (r *Repository) AddVersion(ctx context.Context, version *models.Version) (models.Version, error) {
	query := `
		INSERT INTO version (version_id, task_id, version_number, name, status, file, uploaded_by, created_at)
		SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5, $6, now()
		FROM version
		WHERE task_id = $2
		RETURNING version_number, created_at
	`

	created := *version
	created.VersionID = uuid.New()
	if created.Status == "" {
		created.Status = models.StatusWaiting
	}

	err := r.db.QueryRow(
		ctx,
		query,
		created.VersionID,
		created.TaskID,
		created.Name,
		created.Status,
		created.File,
		created.UploadedBy,
	).Scan(&created.VersionNumber, &created.CreatedAt)
	if err != nil {
		return models.Version{}, mapErr("AddVersion", "task "+created.TaskID.String(), err)
	}

	r.log.Info("version added", "version_id", created.VersionID, "version_number", created.VersionNumber)
	return created, nil
}

// DeleteVersion removes a version by id. The baseline version is refused
// with a ConflictError.
func (r *Repository) DeleteVersion(ctx context.Context, versionID uuid.UUID) error {
	query := `
		DELETE FROM version
		WHERE version_id = $1 AND version_number <> $2
	`

	tag, err := r.db.Exec(ctx, query, versionID, models.BaselineVersionNumber)
	if err != nil {
		return mapErr("DeleteVersion", "version "+versionID.String(), err)
	}
	if tag.RowsAffected() > 0 {
		r.log.Info("version deleted", "version_id", versionID)
		return nil
	}

	// Nothing deleted: either the id is gone or it names the baseline
	var number int
	err = r.db.QueryRow(ctx, `SELECT version_number FROM version WHERE version_id = $1`, versionID).Scan(&number)
	if err != nil {
		return mapErr("DeleteVersion", "version "+versionID.String(), err)
	}
	if number == models.BaselineVersionNumber {
		return &dataaccess.ConflictError{Target: "baseline version"}
	}
	return &dataaccess.NotFoundError{Target: "version " + versionID.String()}
}
