package fieldedit

import (
	"context"

	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
	"github.com/framewell/tracker/linkmut"
	"github.com/framewell/tracker/relstore"
)

// Deleter runs destructive entity and version deletes through the shared
// two-step confirmation machine. Callers pass the relationship keys their
// surface holds for the doomed entity; those are invalidated once the
// collaborator confirms, so every open view drops it on its next read.
type Deleter struct {
	client dataaccess.Client
	store  *relstore.Store
	log    *logger.Logger
}

func NewDeleter(client dataaccess.Client, store *relstore.Store, log *logger.Logger) *Deleter {
	return &Deleter{
		client: client,
		store:  store,
		log:    log,
	}
}

// DeleteEntity returns a pending confirmation for deleting ref. An entity
// that is already gone counts as deleted. Affected keys are invalidated only
// after the collaborator confirms.
func (d *Deleter) DeleteEntity(ref models.EntityRef, affected []relstore.Key) (*linkmut.Confirmation, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	log := d.log.WithEntity(string(ref.Type), ref.ID.String())
	return linkmut.NewConfirmation(func(ctx context.Context) error {
		if err := d.client.DeleteEntity(ctx, ref); err != nil {
			if !dataaccess.IsNotFound(err) {
				return err
			}
			log.Debug("entity already gone, treating delete as done")
		}
		d.invalidate(affected)
		log.Info("entity deleted", "affected_keys", len(affected))
		return nil
	}), nil
}

// DeleteVersion returns a pending confirmation for deleting a version, or a
// ValidationError without touching the collaborator when v is the baseline.
func (d *Deleter) DeleteVersion(v *models.Version, affected []relstore.Key) (*linkmut.Confirmation, error) {
	if v.IsBaseline() {
		return nil, &dataaccess.ValidationError{
			Field:   "version_number",
			Message: "version 1 is the protected baseline and cannot be deleted",
		}
	}

	versionID := v.VersionID
	log := d.log.WithEntity(string(models.EntityVersion), versionID.String())
	return linkmut.NewConfirmation(func(ctx context.Context) error {
		if err := d.client.DeleteVersion(ctx, versionID); err != nil {
			if !dataaccess.IsNotFound(err) {
				return err
			}
			log.Debug("version already gone, treating delete as done")
		}
		d.invalidate(affected)
		log.Info("version deleted", "version_number", v.VersionNumber)
		return nil
	}), nil
}

func (d *Deleter) invalidate(keys []relstore.Key) {
	for _, key := range keys {
		d.store.Invalidate(key)
	}
}

// EntityKeys lists the relationship keys that can hold the entity, by type.
// Surfaces with extra context (the shot's sequence, linked owners) append
// more specific keys on top.
func EntityKeys(ref models.EntityRef) []relstore.Key {
	switch ref.Type {
	case models.EntitySequence:
		return []relstore.Key{
			{Kind: relstore.KindSequenceShots, OwnerID: ref.ID},
			{Kind: relstore.KindSequenceAssets, OwnerID: ref.ID},
		}
	case models.EntityShot:
		return []relstore.Key{
			{Kind: relstore.KindShotAssets, OwnerID: ref.ID},
			{Kind: relstore.KindShotSequence, OwnerID: ref.ID},
		}
	case models.EntityAsset:
		return []relstore.Key{
			{Kind: relstore.KindAssetShots, OwnerID: ref.ID},
			{Kind: relstore.KindAssetSequences, OwnerID: ref.ID},
		}
	default:
		return nil
	}
}
