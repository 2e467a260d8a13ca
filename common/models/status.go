package models

// Status is the production state of a sequence, shot, asset, task or version
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinal      Status = "final"

	// StatusUnlabeled is the neutral rendering for values outside the
	// closed enum. It is never written back to the database.
	StatusUnlabeled Status = "unlabeled"
)

// ParseStatus maps a raw status value into the closed enum. Unknown values
// degrade to StatusUnlabeled instead of failing.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusWaiting, StatusInProgress, StatusFinal:
		return Status(raw)
	default:
		return StatusUnlabeled
	}
}

// Valid reports whether s is a value the server accepts on write
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusFinal:
		return true
	}
	return false
}
