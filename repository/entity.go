package repository

import (
	"context"
	"fmt"

	"github.com/framewell/tracker/common/models"
	"github.com/framewell/tracker/dataaccess"
)

type tableInfo struct {
	table string
	idCol string

	// Columns UpdateField may touch. Everything else is a ValidationError.
	editable map[string]bool
}

var entityTables = map[models.EntityType]tableInfo{
	models.EntitySequence: {
		table:    "sequence",
		idCol:    "sequence_id",
		editable: map[string]bool{"name": true, "description": true, "status": true, "thumbnail": true},
	},
	models.EntityShot: {
		table:    "shot",
		idCol:    "shot_id",
		editable: map[string]bool{"name": true, "description": true, "status": true, "thumbnail": true},
	},
	models.EntityAsset: {
		table:    "asset",
		idCol:    "asset_id",
		editable: map[string]bool{"name": true, "description": true, "status": true, "thumbnail": true, "asset_type": true},
	},
	models.EntityVersion: {
		table:    "version",
		idCol:    "version_id",
		editable: map[string]bool{"name": true, "status": true},
	},
}

// UpdateField writes one scalar field of one entity. The column is taken
// from the whitelist above, never from the input, so the query text cannot
// be steered by a caller.
func (r *Repository) UpdateField(ctx context.Context, ref models.EntityRef, field, value string) error {
	if err := ref.Validate(); err != nil {
		return &dataaccess.ValidationError{Field: "entity", Message: err.Error()}
	}

	info, ok := entityTables[ref.Type]
	if !ok {
		return &dataaccess.ValidationError{Field: "entity", Message: "unsupported entity type: " + string(ref.Type)}
	}
	if !info.editable[field] {
		return &dataaccess.ValidationError{Field: field, Message: "field is not editable"}
	}
	if field == "name" && value == "" {
		return &dataaccess.ValidationError{Field: "name", Message: "name is required"}
	}
	if field == "status" && !models.Status(value).Valid() {
		return &dataaccess.ValidationError{Field: "status", Message: "unknown status: " + value}
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, info.table, field, info.idCol)

	tag, err := r.db.Exec(ctx, query, ref.ID, value)
	if err != nil {
		return mapErr("UpdateField", ref.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return &dataaccess.NotFoundError{Target: ref.String()}
	}

	r.log.Info("field updated", "entity", ref.String(), "field", field)
	return nil
}

// DeleteEntity removes one sequence, shot or asset together with its
// association rows, in one transaction. Deleting a sequence unassigns its
// shots rather than deleting them.
func (r *Repository) DeleteEntity(ctx context.Context, ref models.EntityRef) error {
	if err := ref.Validate(); err != nil {
		return &dataaccess.ValidationError{Field: "entity", Message: err.Error()}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapErr("DeleteEntity", ref.String(), err)
	}
	defer tx.Rollback(ctx)

	switch ref.Type {
	case models.EntitySequence:
		steps := []string{
			`DELETE FROM asset_sequence_link WHERE sequence_id = $1`,
			`UPDATE shot SET sequence_id = NULL WHERE sequence_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.Exec(ctx, q, ref.ID); err != nil {
				return mapErr("DeleteEntity", ref.String(), err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM sequence WHERE sequence_id = $1`, ref.ID)
		if err != nil {
			return mapErr("DeleteEntity", ref.String(), err)
		}
		if tag.RowsAffected() == 0 {
			return &dataaccess.NotFoundError{Target: ref.String()}
		}

	case models.EntityShot:
		if _, err := tx.Exec(ctx, `DELETE FROM asset_shot_link WHERE shot_id = $1`, ref.ID); err != nil {
			return mapErr("DeleteEntity", ref.String(), err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM shot WHERE shot_id = $1`, ref.ID)
		if err != nil {
			return mapErr("DeleteEntity", ref.String(), err)
		}
		if tag.RowsAffected() == 0 {
			return &dataaccess.NotFoundError{Target: ref.String()}
		}

	case models.EntityAsset:
		steps := []string{
			`DELETE FROM asset_shot_link WHERE asset_id = $1`,
			`DELETE FROM asset_sequence_link WHERE asset_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.Exec(ctx, q, ref.ID); err != nil {
				return mapErr("DeleteEntity", ref.String(), err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM asset WHERE asset_id = $1`, ref.ID)
		if err != nil {
			return mapErr("DeleteEntity", ref.String(), err)
		}
		if tag.RowsAffected() == 0 {
			return &dataaccess.NotFoundError{Target: ref.String()}
		}

	default:
		return &dataaccess.ValidationError{Field: "entity", Message: "unsupported entity type: " + string(ref.Type)}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapErr("DeleteEntity", ref.String(), err)
	}

	r.log.Info("entity deleted", "entity", ref.String())
	return nil
}
