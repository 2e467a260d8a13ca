package fieldedit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewell/tracker/common/config"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
	"github.com/framewell/tracker/relstore"
)

func newEditorFixture(t *testing.T) (*dataaccess.Fake, *Editor, models.EntityRef) {
	t.Helper()
	ctx := context.Background()

	fake := dataaccess.NewFake()
	shotID, err := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010", Description: "opening"})
	require.NoError(t, err)

	rules, err := DefaultRules()
	require.NoError(t, err)

	ref := models.EntityRef{Type: models.EntityShot, ID: shotID}
	shot := &models.Shot{ShotID: shotID, Name: "sh010", Description: "opening", Status: models.StatusWaiting}

	ed, err := NewEditor(fake, rules, logger.New("error", "text"), ref, shot)
	require.NoError(t, err)
	return fake, ed, ref
}

func TestCommit_PatchesDocumentOnSuccess(t *testing.T) {
	_, ed, _ := newEditorFixture(t)

	require.NoError(t, ed.Begin("name"))
	require.NoError(t, ed.Commit(context.Background(), "name", "sh010_v2"))

	assert.Equal(t, "sh010_v2", ed.FieldValue("name"))
	assert.False(t, ed.Editing("name"))
}

func TestCommit_ValidationFailureRestoresSnapshot(t *testing.T) {
	_, ed, _ := newEditorFixture(t)

	require.NoError(t, ed.Begin("name"))
	err := ed.Commit(context.Background(), "name", "")
	require.Error(t, err)
	assert.True(t, dataaccess.IsValidation(err))

	assert.Equal(t, "sh010", ed.FieldValue("name"), "displayed value equals pre-edit value")
	assert.False(t, ed.Editing("name"))
}

func TestCommit_CollaboratorRejectionRestoresSnapshot(t *testing.T) {
	fake, ed, _ := newEditorFixture(t)

	fake.FailNext("UpdateField", &dataaccess.ValidationError{Field: "name", Message: "duplicate name"})

	require.NoError(t, ed.Begin("name"))
	err := ed.Commit(context.Background(), "name", "sh020")
	require.Error(t, err)
	assert.Equal(t, "name: duplicate name", err.Error(), "message surfaced verbatim")
	assert.Equal(t, "sh010", ed.FieldValue("name"))
}

func TestCancel_NoNetworkCall(t *testing.T) {
	fake, ed, _ := newEditorFixture(t)

	require.NoError(t, ed.Begin("description"))
	ed.Cancel("description")

	assert.Equal(t, "opening", ed.FieldValue("description"))
	assert.Zero(t, fake.Calls("UpdateField"))
}

func TestCommit_UnchangedValueSkipsNetwork(t *testing.T) {
	fake, ed, _ := newEditorFixture(t)

	require.NoError(t, ed.Begin("name"))
	require.NoError(t, ed.Commit(context.Background(), "name", "sh010"))
	assert.Zero(t, fake.Calls("UpdateField"))
}

func TestIndependentFieldsCommitOutOfOrder(t *testing.T) {
	_, ed, _ := newEditorFixture(t)
	ctx := context.Background()

	require.NoError(t, ed.Begin("name"))
	require.NoError(t, ed.Begin("description"))

	require.NoError(t, ed.Commit(ctx, "description", "revised opening"))
	require.NoError(t, ed.Commit(ctx, "name", "sh011"))

	assert.Equal(t, "sh011", ed.FieldValue("name"))
	assert.Equal(t, "revised opening", ed.FieldValue("description"))
}

func TestBegin_ReadOnlyAndDoubleOpenRejected(t *testing.T) {
	_, ed, _ := newEditorFixture(t)

	err := ed.Begin("version_number")
	require.Error(t, err)
	assert.True(t, dataaccess.IsValidation(err))

	require.NoError(t, ed.Begin("name"))
	assert.Error(t, ed.Begin("name"))
}

func TestCommit_WithoutBeginRejected(t *testing.T) {
	_, ed, _ := newEditorFixture(t)
	assert.Error(t, ed.Commit(context.Background(), "name", "x"))
}

func TestCommitOnEnter_Policy(t *testing.T) {
	_, ed, _ := newEditorFixture(t)

	assert.True(t, ed.CommitOnEnter("name"))
	assert.True(t, ed.CommitOnEnter("status"))
	assert.False(t, ed.CommitOnEnter("description"))
}

func TestStatusRule_RejectsUnknownLabel(t *testing.T) {
	_, ed, _ := newEditorFixture(t)

	require.NoError(t, ed.Begin("status"))
	err := ed.Commit(context.Background(), "status", "omitted")
	require.Error(t, err)
	assert.True(t, dataaccess.IsValidation(err))

	require.NoError(t, ed.Begin("status"))
	require.NoError(t, ed.Commit(context.Background(), "status", "final"))
	assert.Equal(t, "final", ed.FieldValue("status"))
}

func TestVersionEditor_BaselineLocked(t *testing.T) {
	fake := dataaccess.NewFake()
	rules, err := DefaultRules()
	require.NoError(t, err)

	baseline := &models.Version{VersionID: uuid.New(), VersionNumber: models.BaselineVersionNumber, Name: "v001"}
	ed, err := NewVersionEditor(fake, rules, logger.New("error", "text"), baseline)
	require.NoError(t, err)

	err = ed.Begin("name")
	require.Error(t, err)
	assert.True(t, dataaccess.IsValidation(err))
	assert.Zero(t, fake.Calls("UpdateField"), "rejected before any collaborator call")

	later := &models.Version{VersionID: uuid.New(), VersionNumber: 2, Name: "v002"}
	ed2, err := NewVersionEditor(fake, rules, logger.New("error", "text"), later)
	require.NoError(t, err)
	assert.NoError(t, ed2.Begin("name"))
}

func TestDeleter_VersionBaselineRejectedLocally(t *testing.T) {
	fake := dataaccess.NewFake()
	log := logger.New("error", "text")
	store := relstore.New(fake, config.StoreConfig{MaxEntries: 16}, log)
	d := NewDeleter(fake, store, log)

	baseline := &models.Version{VersionID: uuid.New(), VersionNumber: 1}
	conf, err := d.DeleteVersion(baseline, nil)
	require.Error(t, err)
	assert.Nil(t, conf)
	assert.True(t, dataaccess.IsValidation(err))
	assert.Zero(t, fake.Calls("DeleteVersion"))
}

func TestDeleter_EntityConfirmFlowInvalidates(t *testing.T) {
	ctx := context.Background()
	fake := dataaccess.NewFake()
	log := logger.New("error", "text")
	store := relstore.New(fake, config.StoreConfig{MaxEntries: 16}, log)
	d := NewDeleter(fake, store, log)

	shotID, err := fake.CreateShot(ctx, &models.Shot{ProjectID: uuid.New(), Name: "sh010"})
	require.NoError(t, err)
	ref := models.EntityRef{Type: models.EntityShot, ID: shotID}

	key := relstore.Key{Kind: relstore.KindShotAssets, OwnerID: shotID}
	require.NoError(t, store.Refresh(ctx, key))

	conf, err := d.DeleteEntity(ref, EntityKeys(ref))
	require.NoError(t, err)
	require.NoError(t, conf.Request())

	// Cancel leaves everything alone
	require.NoError(t, conf.Cancel())
	assert.Equal(t, relstore.StateReady, store.Get(key).State)
	assert.Zero(t, fake.Calls("DeleteEntity"))

	require.NoError(t, conf.Request())
	require.NoError(t, conf.Confirm(ctx))
	assert.Equal(t, relstore.StateStale, store.Get(key).State)

	err = fake.UpdateField(ctx, ref, "name", "sh011")
	assert.True(t, dataaccess.IsNotFound(err), "entity is gone")
}

func TestDeleter_AlreadyGoneIsBenign(t *testing.T) {
	ctx := context.Background()
	fake := dataaccess.NewFake()
	log := logger.New("error", "text")
	store := relstore.New(fake, config.StoreConfig{MaxEntries: 16}, log)
	d := NewDeleter(fake, store, log)

	ref := models.EntityRef{Type: models.EntityAsset, ID: uuid.New()}
	conf, err := d.DeleteEntity(ref, nil)
	require.NoError(t, err)
	require.NoError(t, conf.Request())
	assert.NoError(t, conf.Confirm(ctx))
}
