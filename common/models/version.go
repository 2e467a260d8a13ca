package models

import (
	"time"

	"github.com/google/uuid"
)

// BaselineVersionNumber is the protected first version of a task. The server
// rejects deleting it; clients must not offer the affordance at all.
const BaselineVersionNumber = 1

// Task represents a unit of pipeline work attached to a sequence, shot or
// asset. Beyond parenting versions it is managed elsewhere.
// Maps to: task table
type Task struct {
	TaskID uuid.UUID `db:"task_id" json:"task_id"`

	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	// Parent entity (sequence, shot or asset)
	Parent EntityRef `json:"parent"`

	Name   string `db:"name" json:"name"`
	Status Status `db:"status" json:"status"`

	// Pipeline step ('layout', 'anim', 'comp', ...)
	Step string `db:"step" json:"step"`

	Assignees []uuid.UUID `db:"assignees" json:"assignees"`
	Reviewers []uuid.UUID `db:"reviewers" json:"reviewers"`

	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
}

// Version represents one iteration delivered against a task.
// VersionNumber is assigned server-side (max+1 per task, gaps permitted
// after deletes) and is read-only for clients.
// Maps to: version table
type Version struct {
	VersionID uuid.UUID `db:"version_id" json:"version_id"`

	TaskID uuid.UUID `db:"task_id" json:"task_id"`

	VersionNumber int `db:"version_number" json:"version_number"`

	Name   string `db:"name" json:"name"`
	Status Status `db:"status" json:"status"`

	// Storage key of the delivered media
	File *string `db:"file" json:"file,omitempty"`

	UploadedBy uuid.UUID `db:"uploaded_by" json:"uploaded_by"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsBaseline reports whether v is the protected first version
func (v *Version) IsBaseline() bool {
	return v.VersionNumber == BaselineVersionNumber
}
