// Package dataaccess defines the contract between the tracker core and its
// backing data layer. The core never reaches a database or a wire directly;
// it talks to a Client and branches on the error taxonomy in errors.go.
package dataaccess

import (
	"context"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
)

// Client is the data-access collaborator. The repository package provides
// the postgres implementation; tests use Fake.
type Client interface {
	// FetchSequenceDetail returns the full flat projection for one sequence:
	// sequence x shot x linked asset rows plus direct-asset rows with a null
	// shot branch. A missing sequence yields zero rows, not an error.
	FetchSequenceDetail(ctx context.Context, sequenceID uuid.UUID) ([]models.SequenceDetailRow, error)

	// FetchShotAssets returns the assets linked to one shot
	FetchShotAssets(ctx context.Context, shotID uuid.UUID) ([]models.LinkedAssetRow, error)

	// FetchSequenceAssets returns the assets linked directly to one sequence
	FetchSequenceAssets(ctx context.Context, sequenceID uuid.UUID) ([]models.LinkedAssetRow, error)

	// FetchAssetUsage returns every shot and sequence one asset is linked to
	FetchAssetUsage(ctx context.Context, assetID uuid.UUID) ([]models.AssetUsageRow, error)

	// FetchShotSequence returns the sequence a shot belongs to, nil when the
	// shot is unassigned
	FetchShotSequence(ctx context.Context, shotID uuid.UUID) (*models.Sequence, error)

	// FetchUnassignedShots lists a project's shots with no sequence
	FetchUnassignedShots(ctx context.Context, projectID uuid.UUID) ([]models.Shot, error)

	// FetchProjectAssets lists all assets of a project
	FetchProjectAssets(ctx context.Context, projectID uuid.UUID) ([]models.Asset, error)

	// LinkAssetShot creates an asset-shot association and returns its id.
	// An identical active pair is a ConflictError.
	LinkAssetShot(ctx context.Context, assetID, shotID uuid.UUID) (uuid.UUID, error)

	// LinkAssetSequence creates an asset-sequence association
	LinkAssetSequence(ctx context.Context, assetID, sequenceID uuid.UUID) (uuid.UUID, error)

	// UnlinkAssetShot deletes an asset-shot association by its own id.
	// A vanished id is a NotFoundError; callers decide whether that is benign.
	UnlinkAssetShot(ctx context.Context, linkID uuid.UUID) error

	// UnlinkAssetSequence deletes an asset-sequence association by its own id
	UnlinkAssetSequence(ctx context.Context, linkID uuid.UUID) error

	// ReassignShotSequence supersedes the shot's prior membership in one
	// statement. A nil sequence id clears membership.
	ReassignShotSequence(ctx context.Context, shotID uuid.UUID, sequenceID *uuid.UUID) error

	// UpdateField writes one scalar field of one entity. Unknown fields and
	// rejected values are ValidationErrors.
	UpdateField(ctx context.Context, ref models.EntityRef, field, value string) error

	// CreateSequence inserts a sequence with defaulted status and returns its id
	CreateSequence(ctx context.Context, seq *models.Sequence) (uuid.UUID, error)

	// CreateShot inserts a shot, optionally pre-assigned to a sequence
	CreateShot(ctx context.Context, shot *models.Shot) (uuid.UUID, error)

	// CreateAsset inserts an asset
	CreateAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error)

	// DeleteEntity removes one sequence, shot or asset and its association
	// rows
	DeleteEntity(ctx context.Context, ref models.EntityRef) error

	// FetchVersions lists a task's versions ordered by version number
	FetchVersions(ctx context.Context, taskID uuid.UUID) ([]models.Version, error)

	// AddVersion inserts a version; the server assigns id and version number
	AddVersion(ctx context.Context, version *models.Version) (models.Version, error)

	// DeleteVersion removes a version by id. The baseline version is
	// rejected server-side; clients must not attempt it.
	DeleteVersion(ctx context.Context, versionID uuid.UUID) error
}
