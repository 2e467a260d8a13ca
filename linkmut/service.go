// Package linkmut performs every association write: linking and unlinking
// assets, and moving shots between sequences. Each successful write
// invalidates the relationship store entries on both sides of the touched
// edge; a failed write leaves the store untouched. Destructive operations
// are gated behind the Confirmation flow.
package linkmut

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/dataaccess"
	"github.com/framewell/tracker/relstore"
)

// ErrInFlight reports a duplicate submission while the same link request is
// still pending. The triggering control should be disabled; this guard
// covers the case where it was not.
var ErrInFlight = errors.New("link request already in flight")

// Service is the link mutation service
type Service struct {
	client dataaccess.Client
	store  *relstore.Store
	strict bool
	log    *logger.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a link mutation service writing through client and
// invalidating store. With strict set, linking an already-linked pair
// surfaces the collaborator's conflict; without it the pair being linked is
// the desired end state, so the conflict is swallowed and both sides are
// invalidated to reconcile.
func New(client dataaccess.Client, store *relstore.Store, strict bool, log *logger.Logger) *Service {
	return &Service{
		client:   client,
		store:    store,
		strict:   strict,
		log:      log,
		inflight: make(map[string]bool),
	}
}

// LinkAssetShot creates an asset-shot association and returns its id.
// An existing active pair is a ConflictError from the collaborator; the
// store is only invalidated on success.
func (s *Service) LinkAssetShot(ctx context.Context, assetID, shotID uuid.UUID) (uuid.UUID, error) {
	guard := "asset_shot:" + assetID.String() + ":" + shotID.String()
	release, err := s.acquire(guard)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	keys := []relstore.Key{
		{Kind: relstore.KindShotAssets, OwnerID: shotID},
		{Kind: relstore.KindAssetShots, OwnerID: assetID},
	}

	linkID, err := s.client.LinkAssetShot(ctx, assetID, shotID)
	if err != nil {
		if s.strict || !dataaccess.IsConflict(err) {
			return uuid.Nil, err
		}
		s.log.Info("asset already linked to shot", "asset_id", assetID, "shot_id", shotID)
		s.store.InvalidateAll(keys...)
		return uuid.Nil, nil
	}

	s.store.InvalidateAll(keys...)

	s.log.Info("linked asset to shot",
		"asset_id", assetID,
		"shot_id", shotID,
		"link_id", linkID,
	)
	return linkID, nil
}

// LinkAssetSequence creates an asset-sequence association
func (s *Service) LinkAssetSequence(ctx context.Context, assetID, sequenceID uuid.UUID) (uuid.UUID, error) {
	guard := "asset_sequence:" + assetID.String() + ":" + sequenceID.String()
	release, err := s.acquire(guard)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	keys := []relstore.Key{
		{Kind: relstore.KindSequenceAssets, OwnerID: sequenceID},
		{Kind: relstore.KindAssetSequences, OwnerID: assetID},
	}

	linkID, err := s.client.LinkAssetSequence(ctx, assetID, sequenceID)
	if err != nil {
		if s.strict || !dataaccess.IsConflict(err) {
			return uuid.Nil, err
		}
		s.log.Info("asset already linked to sequence", "asset_id", assetID, "sequence_id", sequenceID)
		s.store.InvalidateAll(keys...)
		return uuid.Nil, nil
	}

	s.store.InvalidateAll(keys...)

	s.log.Info("linked asset to sequence",
		"asset_id", assetID,
		"sequence_id", sequenceID,
		"link_id", linkID,
	)
	return linkID, nil
}

// UnlinkAssetShot returns a confirmation flow that deletes the association
// by id. A not-found from the collaborator means another actor already
// removed it; that is the desired end state, so it succeeds. Both sides are
// still invalidated so readers reconcile.
func (s *Service) UnlinkAssetShot(linkID, assetID, shotID uuid.UUID) *Confirmation {
	return NewConfirmation(func(ctx context.Context) error {
		err := s.client.UnlinkAssetShot(ctx, linkID)
		if err != nil && !dataaccess.IsNotFound(err) {
			return err
		}
		if dataaccess.IsNotFound(err) {
			s.log.Info("asset-shot link already removed", "link_id", linkID)
		}

		s.store.InvalidateAll(
			relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID},
			relstore.Key{Kind: relstore.KindAssetShots, OwnerID: assetID},
		)
		return nil
	})
}

// UnlinkAssetSequence returns a confirmation flow for an asset-sequence
// association
func (s *Service) UnlinkAssetSequence(linkID, assetID, sequenceID uuid.UUID) *Confirmation {
	return NewConfirmation(func(ctx context.Context) error {
		err := s.client.UnlinkAssetSequence(ctx, linkID)
		if err != nil && !dataaccess.IsNotFound(err) {
			return err
		}
		if dataaccess.IsNotFound(err) {
			s.log.Info("asset-sequence link already removed", "link_id", linkID)
		}

		s.store.InvalidateAll(
			relstore.Key{Kind: relstore.KindSequenceAssets, OwnerID: sequenceID},
			relstore.Key{Kind: relstore.KindAssetSequences, OwnerID: assetID},
		)
		return nil
	})
}

// ReassignShotSequence moves a shot into a sequence, superseding any prior
// membership; nil clears it. The old sequence's shot list, the new one's,
// and the shot's own membership key are invalidated.
func (s *Service) ReassignShotSequence(ctx context.Context, shotID uuid.UUID, newSequenceID *uuid.UUID) error {
	// Resolve the prior membership first so its key can be invalidated
	oldSeq, err := s.client.FetchShotSequence(ctx, shotID)
	if err != nil {
		return err
	}

	if err := s.client.ReassignShotSequence(ctx, shotID, newSequenceID); err != nil {
		return err
	}

	keys := []relstore.Key{
		{Kind: relstore.KindShotSequence, OwnerID: shotID},
	}
	if oldSeq != nil {
		keys = append(keys, relstore.Key{Kind: relstore.KindSequenceShots, OwnerID: oldSeq.SequenceID})
	}
	if newSequenceID != nil {
		keys = append(keys, relstore.Key{Kind: relstore.KindSequenceShots, OwnerID: *newSequenceID})
	}
	s.store.InvalidateAll(keys...)

	s.log.Info("reassigned shot sequence",
		"shot_id", shotID,
		"new_sequence_id", newSequenceID,
	)
	return nil
}

func (s *Service) acquire(guard string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[guard] {
		return nil, ErrInFlight
	}
	s.inflight[guard] = true

	return func() {
		s.mu.Lock()
		delete(s.inflight, guard)
		s.mu.Unlock()
	}, nil
}
