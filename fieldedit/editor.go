package fieldedit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

// Fields the editor refuses to open a session on. Ids and server-assigned
// numbering are never editable from here.
var readOnlyFields = map[string]bool{
	"sequence_id":    true,
	"shot_id":        true,
	"asset_id":       true,
	"task_id":        true,
	"version_id":     true,
	"project_id":     true,
	"version_number": true,
	"created_at":     true,
	"updated_at":     true,
}

// Fields where Enter inserts a newline instead of committing. Presentation
// commits these on blur or an explicit action.
var multiLineFields = map[string]bool{
	"description": true,
}

// Editor drives click-to-edit commits for one entity's scalar fields. The
// entity is held as a JSON document; a successful commit merge-patches the
// one edited field into it, so the document only ever reflects values the
// collaborator has accepted. Sessions on different fields are independent
// and may commit out of order.
type Editor struct {
	client dataaccess.Client
	rules  *Rules
	log    *logger.Logger

	ref models.EntityRef

	mu       sync.Mutex
	doc      []byte
	sessions map[string]string
	locked   string
}

// NewEditor builds an editor over the entity's current server-side state.
// doc is marshalled once; pass the models struct for the entity.
func NewEditor(client dataaccess.Client, rules *Rules, log *logger.Logger, ref models.EntityRef, doc any) (*Editor, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal entity document: %w", err)
	}
	return &Editor{
		client:   client,
		rules:    rules,
		log:      log.WithEntity(string(ref.Type), ref.ID.String()),
		ref:      ref,
		doc:      raw,
		sessions: make(map[string]string),
	}, nil
}

// NewVersionEditor builds an editor for a version. The baseline version is
// immutable, so its editor opens locked and rejects every Begin without a
// collaborator call.
func NewVersionEditor(client dataaccess.Client, rules *Rules, log *logger.Logger, v *models.Version) (*Editor, error) {
	e, err := NewEditor(client, rules, log, models.EntityRef{Type: models.EntityVersion, ID: v.VersionID}, v)
	if err != nil {
		return nil, err
	}
	if v.IsBaseline() {
		e.locked = "version 1 is the protected baseline and cannot be edited"
	}
	return e, nil
}

// Document returns the current entity document. Only committed values appear
// here; open sessions do not leak in.
func (e *Editor) Document() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]byte, len(e.doc))
	copy(out, e.doc)
	return out
}

// FieldValue reads one field's committed value as a string. Missing or
// non-string fields read as "".
func (e *Editor) FieldValue(field string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fieldFromDoc(e.doc, field)
}

// CommitOnEnter reports whether a plain Enter keypress should commit the
// field. Multi-line fields need blur or an explicit commit so Enter can
// insert newlines (Shift+Enter is a presentation concern either way).
func (e *Editor) CommitOnEnter(field string) bool {
	return !multiLineFields[field]
}

// Editing reports whether a session is open on the field.
func (e *Editor) Editing(field string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[field]
	return ok
}

// Begin opens an edit session on field, snapshotting its committed value.
// One session per field; a second Begin on the same field is rejected.
func (e *Editor) Begin(field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked != "" {
		return &dataaccess.ValidationError{Field: field, Message: e.locked}
	}
	if readOnlyFields[field] {
		return &dataaccess.ValidationError{Field: field, Message: "field is read only"}
	}
	if _, open := e.sessions[field]; open {
		return fmt.Errorf("edit already in progress on %q", field)
	}

	e.sessions[field] = fieldFromDoc(e.doc, field)
	return nil
}

// Cancel discards the session. No network call; the committed document was
// never touched, so there is nothing to restore beyond closing the session.
func (e *Editor) Cancel(field string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, field)
}

// Commit validates value, sends it to the collaborator, and on success
// patches the local document and closes the session. On any failure the
// session closes with the document unchanged, so the displayed value is the
// pre-edit snapshot, and the error is returned for inline display.
func (e *Editor) Commit(ctx context.Context, field, value string) error {
	e.mu.Lock()
	snapshot, open := e.sessions[field]
	e.mu.Unlock()

	if !open {
		return fmt.Errorf("no edit in progress on %q", field)
	}

	if value == snapshot {
		e.Cancel(field)
		return nil
	}

	if err := e.rules.Validate(field, value); err != nil {
		e.Cancel(field)
		return err
	}

	if err := e.client.UpdateField(ctx, e.ref, field, value); err != nil {
		e.Cancel(field)
		e.log.Warn("field commit rejected", "field", field, "error", err)
		return err
	}

	patch, err := json.Marshal(map[string]string{field: value})
	if err != nil {
		e.Cancel(field)
		return fmt.Errorf("build merge patch: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	patched, err := jsonpatch.MergePatch(e.doc, patch)
	if err != nil {
		delete(e.sessions, field)
		return fmt.Errorf("apply merge patch: %w", err)
	}
	e.doc = patched
	delete(e.sessions, field)

	e.log.Debug("field committed", "field", field)
	return nil
}

func fieldFromDoc(doc []byte, field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return ""
	}
	raw, ok := m[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
