package dataaccess

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framewell/tracker/common/models"
)

// Fake is an in-memory Client for tests. It enforces the same contract as
// the postgres repository: link ids are the unit of deletion, duplicate
// active pairs conflict, fetches of a missing owner return zero rows.
type Fake struct {
	mu sync.Mutex

	Sequences map[uuid.UUID]models.Sequence
	Shots     map[uuid.UUID]models.Shot
	Assets    map[uuid.UUID]models.Asset
	ShotLinks map[uuid.UUID]models.AssetShotLink
	SeqLinks  map[uuid.UUID]models.AssetSequenceLink
	Versions  map[uuid.UUID]models.Version

	// OnFetch, when set, runs at the start of every Fetch* call. Tests use
	// it to hold a fetch open and force out-of-order responses.
	OnFetch func(op string)

	failures map[string][]error
	calls    map[string]int
}

// NewFake creates an empty fake collaborator
func NewFake() *Fake {
	return &Fake{
		Sequences: make(map[uuid.UUID]models.Sequence),
		Shots:     make(map[uuid.UUID]models.Shot),
		Assets:    make(map[uuid.UUID]models.Asset),
		ShotLinks: make(map[uuid.UUID]models.AssetShotLink),
		SeqLinks:  make(map[uuid.UUID]models.AssetSequenceLink),
		Versions:  make(map[uuid.UUID]models.Version),
		failures:  make(map[string][]error),
		calls:     make(map[string]int),
	}
}

// FailNext queues err to be returned by the next call of op
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// begin records the call, fires the fetch hook for read ops and pops any
// queued failure. It must be called without f.mu held.
func (f *Fake) begin(op string, fetch bool) error {
	if fetch && f.OnFetch != nil {
		f.OnFetch(op)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		err := q[0]
		f.failures[op] = q[1:]
		return err
	}
	return nil
}

// SeedAssetShotLink inserts an association row directly, bypassing conflict
// checks, and returns its id
func (f *Fake) SeedAssetShotLink(assetID, shotID uuid.UUID) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.ShotLinks[id] = models.AssetShotLink{
		LinkID:   id,
		AssetID:  assetID,
		ShotID:   shotID,
		LinkedAt: time.Now(),
	}
	return id
}

// SeedAssetSequenceLink inserts an association row directly
func (f *Fake) SeedAssetSequenceLink(assetID, sequenceID uuid.UUID) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.SeqLinks[id] = models.AssetSequenceLink{
		LinkID:     id,
		AssetID:    assetID,
		SequenceID: sequenceID,
		LinkedAt:   time.Now(),
	}
	return id
}

func (f *Fake) FetchSequenceDetail(ctx context.Context, sequenceID uuid.UUID) ([]models.SequenceDetailRow, error) {
	if err := f.begin("FetchSequenceDetail", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	seq, ok := f.Sequences[sequenceID]
	if !ok {
		return nil, nil
	}

	base := models.SequenceDetailRow{
		SequenceID:   seq.SequenceID,
		SequenceName: seq.Name,
		SequenceDesc: seq.Description,
		SequenceStat: string(seq.Status),
		SequenceThmb: seq.Thumbnail,
	}

	var rows []models.SequenceDetailRow

	for _, shot := range f.sortedShots() {
		if shot.SequenceID == nil || *shot.SequenceID != sequenceID {
			continue
		}
		links := f.sortedShotLinksFor(shot.ShotID)
		if len(links) == 0 {
			row := base
			row.ShotID = ptr(shot.ShotID)
			row.ShotName = ptr(shot.Name)
			row.ShotDesc = ptr(shot.Description)
			row.ShotStat = ptr(string(shot.Status))
			row.ShotThmb = shot.Thumbnail
			rows = append(rows, row)
			continue
		}
		for _, link := range links {
			asset := f.Assets[link.AssetID]
			row := base
			row.ShotID = ptr(shot.ShotID)
			row.ShotName = ptr(shot.Name)
			row.ShotDesc = ptr(shot.Description)
			row.ShotStat = ptr(string(shot.Status))
			row.ShotThmb = shot.Thumbnail
			row.AssetID = ptr(asset.AssetID)
			row.AssetName = ptr(asset.Name)
			row.AssetDesc = ptr(asset.Description)
			row.AssetType = ptr(asset.AssetType)
			row.AssetStat = ptr(string(asset.Status))
			row.AssetThmb = asset.Thumbnail
			row.LinkID = ptr(link.LinkID)
			row.LinkedAt = ptr(link.LinkedAt)
			rows = append(rows, row)
		}
	}

	for _, link := range f.sortedSeqLinksFor(sequenceID) {
		asset := f.Assets[link.AssetID]
		row := base
		row.AssetID = ptr(asset.AssetID)
		row.AssetName = ptr(asset.Name)
		row.AssetDesc = ptr(asset.Description)
		row.AssetType = ptr(asset.AssetType)
		row.AssetStat = ptr(string(asset.Status))
		row.AssetThmb = asset.Thumbnail
		row.LinkID = ptr(link.LinkID)
		row.LinkedAt = ptr(link.LinkedAt)
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		// Found but childless: a single owner-only row
		rows = append(rows, base)
	}

	return rows, nil
}

func (f *Fake) FetchShotAssets(ctx context.Context, shotID uuid.UUID) ([]models.LinkedAssetRow, error) {
	if err := f.begin("FetchShotAssets", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []models.LinkedAssetRow
	for _, link := range f.sortedShotLinksFor(shotID) {
		asset := f.Assets[link.AssetID]
		rows = append(rows, models.LinkedAssetRow{
			OwnerID:   shotID,
			LinkID:    link.LinkID,
			LinkedAt:  link.LinkedAt,
			AssetID:   asset.AssetID,
			AssetName: asset.Name,
			AssetDesc: asset.Description,
			AssetType: asset.AssetType,
			AssetStat: string(asset.Status),
			AssetThmb: asset.Thumbnail,
		})
	}
	return rows, nil
}

func (f *Fake) FetchSequenceAssets(ctx context.Context, sequenceID uuid.UUID) ([]models.LinkedAssetRow, error) {
	if err := f.begin("FetchSequenceAssets", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []models.LinkedAssetRow
	for _, link := range f.sortedSeqLinksFor(sequenceID) {
		asset := f.Assets[link.AssetID]
		rows = append(rows, models.LinkedAssetRow{
			OwnerID:   sequenceID,
			LinkID:    link.LinkID,
			LinkedAt:  link.LinkedAt,
			AssetID:   asset.AssetID,
			AssetName: asset.Name,
			AssetDesc: asset.Description,
			AssetType: asset.AssetType,
			AssetStat: string(asset.Status),
			AssetThmb: asset.Thumbnail,
		})
	}
	return rows, nil
}

func (f *Fake) FetchAssetUsage(ctx context.Context, assetID uuid.UUID) ([]models.AssetUsageRow, error) {
	if err := f.begin("FetchAssetUsage", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []models.AssetUsageRow
	for _, link := range f.sortedShotLinks() {
		if link.AssetID != assetID {
			continue
		}
		shot := f.Shots[link.ShotID]
		rows = append(rows, models.AssetUsageRow{
			AssetID:  assetID,
			LinkID:   link.LinkID,
			LinkedAt: link.LinkedAt,
			ShotID:   ptr(shot.ShotID),
			ShotName: ptr(shot.Name),
			ShotStat: ptr(string(shot.Status)),
		})
	}
	for _, link := range f.sortedSeqLinks() {
		if link.AssetID != assetID {
			continue
		}
		seq := f.Sequences[link.SequenceID]
		rows = append(rows, models.AssetUsageRow{
			AssetID:      assetID,
			LinkID:       link.LinkID,
			LinkedAt:     link.LinkedAt,
			SequenceID:   ptr(seq.SequenceID),
			SequenceName: ptr(seq.Name),
			SequenceStat: ptr(string(seq.Status)),
		})
	}
	return rows, nil
}

func (f *Fake) FetchShotSequence(ctx context.Context, shotID uuid.UUID) (*models.Sequence, error) {
	if err := f.begin("FetchShotSequence", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	shot, ok := f.Shots[shotID]
	if !ok || shot.SequenceID == nil {
		return nil, nil
	}
	seq, ok := f.Sequences[*shot.SequenceID]
	if !ok {
		return nil, nil
	}
	return &seq, nil
}

func (f *Fake) FetchUnassignedShots(ctx context.Context, projectID uuid.UUID) ([]models.Shot, error) {
	if err := f.begin("FetchUnassignedShots", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var shots []models.Shot
	for _, shot := range f.sortedShots() {
		if shot.ProjectID == projectID && shot.SequenceID == nil {
			shots = append(shots, shot)
		}
	}
	return shots, nil
}

func (f *Fake) FetchProjectAssets(ctx context.Context, projectID uuid.UUID) ([]models.Asset, error) {
	if err := f.begin("FetchProjectAssets", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var assets []models.Asset
	for _, asset := range f.sortedAssets() {
		if asset.ProjectID == projectID {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (f *Fake) LinkAssetShot(ctx context.Context, assetID, shotID uuid.UUID) (uuid.UUID, error) {
	if err := f.begin("LinkAssetShot", false); err != nil {
		return uuid.Nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.ShotLinks {
		if link.AssetID == assetID && link.ShotID == shotID {
			return uuid.Nil, &ConflictError{Target: "asset-shot link"}
		}
	}
	id := uuid.New()
	f.ShotLinks[id] = models.AssetShotLink{
		LinkID:   id,
		AssetID:  assetID,
		ShotID:   shotID,
		LinkedAt: time.Now(),
	}
	return id, nil
}

func (f *Fake) LinkAssetSequence(ctx context.Context, assetID, sequenceID uuid.UUID) (uuid.UUID, error) {
	if err := f.begin("LinkAssetSequence", false); err != nil {
		return uuid.Nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.SeqLinks {
		if link.AssetID == assetID && link.SequenceID == sequenceID {
			return uuid.Nil, &ConflictError{Target: "asset-sequence link"}
		}
	}
	id := uuid.New()
	f.SeqLinks[id] = models.AssetSequenceLink{
		LinkID:     id,
		AssetID:    assetID,
		SequenceID: sequenceID,
		LinkedAt:   time.Now(),
	}
	return id, nil
}

func (f *Fake) UnlinkAssetShot(ctx context.Context, linkID uuid.UUID) error {
	if err := f.begin("UnlinkAssetShot", false); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ShotLinks[linkID]; !ok {
		return &NotFoundError{Target: "asset-shot link " + linkID.String()}
	}
	delete(f.ShotLinks, linkID)
	return nil
}

func (f *Fake) UnlinkAssetSequence(ctx context.Context, linkID uuid.UUID) error {
	if err := f.begin("UnlinkAssetSequence", false); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.SeqLinks[linkID]; !ok {
		return &NotFoundError{Target: "asset-sequence link " + linkID.String()}
	}
	delete(f.SeqLinks, linkID)
	return nil
}

func (f *Fake) ReassignShotSequence(ctx context.Context, shotID uuid.UUID, sequenceID *uuid.UUID) error {
	if err := f.begin("ReassignShotSequence", false); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	shot, ok := f.Shots[shotID]
	if !ok {
		return &NotFoundError{Target: "shot " + shotID.String()}
	}
	if sequenceID != nil {
		if _, ok := f.Sequences[*sequenceID]; !ok {
			return &NotFoundError{Target: "sequence " + sequenceID.String()}
		}
	}
	shot.SequenceID = sequenceID
	f.Shots[shotID] = shot
	return nil
}

func (f *Fake) UpdateField(ctx context.Context, ref models.EntityRef, field, value string) error {
	if err := f.begin("UpdateField", false); err != nil {
		return err
	}

	if err := ref.Validate(); err != nil {
		return &ValidationError{Field: "entity", Message: err.Error()}
	}
	if field == "name" && value == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch ref.Type {
	case models.EntitySequence:
		seq, ok := f.Sequences[ref.ID]
		if !ok {
			return &NotFoundError{Target: ref.String()}
		}
		if err := applyScalar(field, value, &seq.Name, &seq.Description, &seq.Status); err != nil {
			return err
		}
		f.Sequences[ref.ID] = seq
	case models.EntityShot:
		shot, ok := f.Shots[ref.ID]
		if !ok {
			return &NotFoundError{Target: ref.String()}
		}
		if err := applyScalar(field, value, &shot.Name, &shot.Description, &shot.Status); err != nil {
			return err
		}
		f.Shots[ref.ID] = shot
	case models.EntityAsset:
		asset, ok := f.Assets[ref.ID]
		if !ok {
			return &NotFoundError{Target: ref.String()}
		}
		if field == "asset_type" {
			asset.AssetType = value
		} else if err := applyScalar(field, value, &asset.Name, &asset.Description, &asset.Status); err != nil {
			return err
		}
		f.Assets[ref.ID] = asset
	case models.EntityVersion:
		version, ok := f.Versions[ref.ID]
		if !ok {
			return &NotFoundError{Target: ref.String()}
		}
		var desc string
		if err := applyScalar(field, value, &version.Name, &desc, &version.Status); err != nil {
			return err
		}
		f.Versions[ref.ID] = version
	default:
		return &ValidationError{Field: "entity", Message: "unsupported entity type: " + string(ref.Type)}
	}
	return nil
}

func applyScalar(field, value string, name, description *string, status *models.Status) error {
	switch field {
	case "name":
		*name = value
	case "description":
		*description = value
	case "status":
		if !models.Status(value).Valid() {
			return &ValidationError{Field: "status", Message: "unknown status: " + value}
		}
		*status = models.Status(value)
	default:
		return &ValidationError{Field: field, Message: "field is not editable"}
	}
	return nil
}

func (f *Fake) CreateSequence(ctx context.Context, seq *models.Sequence) (uuid.UUID, error) {
	if err := f.begin("CreateSequence", false); err != nil {
		return uuid.Nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := *seq
	created.SequenceID = uuid.New()
	if created.Status == "" {
		created.Status = models.StatusWaiting
	}
	created.CreatedAt = time.Now()
	f.Sequences[created.SequenceID] = created
	return created.SequenceID, nil
}

func (f *Fake) CreateShot(ctx context.Context, shot *models.Shot) (uuid.UUID, error) {
	if err := f.begin("CreateShot", false); err != nil {
		return uuid.Nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := *shot
	created.ShotID = uuid.New()
	if created.Status == "" {
		created.Status = models.StatusWaiting
	}
	created.CreatedAt = time.Now()
	f.Shots[created.ShotID] = created
	return created.ShotID, nil
}

func (f *Fake) CreateAsset(ctx context.Context, asset *models.Asset) (uuid.UUID, error) {
	if err := f.begin("CreateAsset", false); err != nil {
		return uuid.Nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := *asset
	created.AssetID = uuid.New()
	if created.Status == "" {
		created.Status = models.StatusWaiting
	}
	created.CreatedAt = time.Now()
	f.Assets[created.AssetID] = created
	return created.AssetID, nil
}

func (f *Fake) DeleteEntity(ctx context.Context, ref models.EntityRef) error {
	if err := f.begin("DeleteEntity", false); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch ref.Type {
	case models.EntitySequence:
		if _, ok := f.Sequences[ref.ID]; !ok {
			return &NotFoundError{Target: ref.String()}
		}
		delete(f.Sequences, ref.ID)
		for id, link := range f.SeqLinks {
			if link.SequenceID == ref.ID {
				delete(f.SeqLinks, id)
			}
		}
		for id, shot := range f.Shots {
			if shot.SequenceID != nil && *shot.SequenceID == ref.ID {
				shot.SequenceID = nil
				f.Shots[id] = shot
			}
		}
	case models.EntityShot:
		if _, ok := f.Shots[ref.ID]; !ok {
			return &NotFoundError{Target: ref.String()}
		}
		delete(f.Shots, ref.ID)
		for id, link := range f.ShotLinks {
			if link.ShotID == ref.ID {
				delete(f.ShotLinks, id)
			}
		}
	case models.EntityAsset:
		if _, ok := f.Assets[ref.ID]; !ok {
			return &NotFoundError{Target: ref.String()}
		}
		delete(f.Assets, ref.ID)
		for id, link := range f.ShotLinks {
			if link.AssetID == ref.ID {
				delete(f.ShotLinks, id)
			}
		}
		for id, link := range f.SeqLinks {
			if link.AssetID == ref.ID {
				delete(f.SeqLinks, id)
			}
		}
	default:
		return &ValidationError{Field: "entity", Message: "unsupported entity type: " + string(ref.Type)}
	}
	return nil
}

func (f *Fake) FetchVersions(ctx context.Context, taskID uuid.UUID) ([]models.Version, error) {
	if err := f.begin("FetchVersions", true); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var versions []models.Version
	for _, v := range f.Versions {
		if v.TaskID == taskID {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})
	return versions, nil
}

func (f *Fake) AddVersion(ctx context.Context, version *models.Version) (models.Version, error) {
	if err := f.begin("AddVersion", false); err != nil {
		return models.Version{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := *version
	created.VersionID = uuid.New()
	created.VersionNumber = 0
	for _, v := range f.Versions {
		if v.TaskID == created.TaskID && v.VersionNumber > created.VersionNumber {
			created.VersionNumber = v.VersionNumber
		}
	}
	created.VersionNumber++
	if created.Status == "" {
		created.Status = models.StatusWaiting
	}
	created.CreatedAt = time.Now()
	f.Versions[created.VersionID] = created
	return created, nil
}

func (f *Fake) DeleteVersion(ctx context.Context, versionID uuid.UUID) error {
	if err := f.begin("DeleteVersion", false); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	version, ok := f.Versions[versionID]
	if !ok {
		return &NotFoundError{Target: "version " + versionID.String()}
	}
	if version.IsBaseline() {
		return &ConflictError{Target: "baseline version"}
	}
	delete(f.Versions, versionID)
	return nil
}

// Sorted accessors keep fetch results deterministic despite map iteration

func (f *Fake) sortedShots() []models.Shot {
	shots := make([]models.Shot, 0, len(f.Shots))
	for _, s := range f.Shots {
		shots = append(shots, s)
	}
	sort.Slice(shots, func(i, j int) bool {
		if shots[i].Name != shots[j].Name {
			return shots[i].Name < shots[j].Name
		}
		return shots[i].ShotID.String() < shots[j].ShotID.String()
	})
	return shots
}

func (f *Fake) sortedAssets() []models.Asset {
	assets := make([]models.Asset, 0, len(f.Assets))
	for _, a := range f.Assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Name != assets[j].Name {
			return assets[i].Name < assets[j].Name
		}
		return assets[i].AssetID.String() < assets[j].AssetID.String()
	})
	return assets
}

func (f *Fake) sortedShotLinks() []models.AssetShotLink {
	links := make([]models.AssetShotLink, 0, len(f.ShotLinks))
	for _, l := range f.ShotLinks {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].LinkedAt.Equal(links[j].LinkedAt) {
			return links[i].LinkedAt.Before(links[j].LinkedAt)
		}
		return links[i].LinkID.String() < links[j].LinkID.String()
	})
	return links
}

func (f *Fake) sortedShotLinksFor(shotID uuid.UUID) []models.AssetShotLink {
	var links []models.AssetShotLink
	for _, l := range f.sortedShotLinks() {
		if l.ShotID == shotID {
			links = append(links, l)
		}
	}
	return links
}

func (f *Fake) sortedSeqLinks() []models.AssetSequenceLink {
	links := make([]models.AssetSequenceLink, 0, len(f.SeqLinks))
	for _, l := range f.SeqLinks {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].LinkedAt.Equal(links[j].LinkedAt) {
			return links[i].LinkedAt.Before(links[j].LinkedAt)
		}
		return links[i].LinkID.String() < links[j].LinkID.String()
	})
	return links
}

func (f *Fake) sortedSeqLinksFor(sequenceID uuid.UUID) []models.AssetSequenceLink {
	var links []models.AssetSequenceLink
	for _, l := range f.sortedSeqLinks() {
		if l.SequenceID == sequenceID {
			links = append(links, l)
		}
	}
	return links
}

func ptr[T any](v T) *T { return &v }
