package domain

import "time"

// JobKind enumerates supported generation job categories.
type JobKind string

const (
	JobKindImage JobKind = "image"
	JobKindVideo JobKind = "video"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one submitted generation request. Result fields are populated
// exactly once, when the job leaves the processing state.
type Job struct {
	ID        string
	Kind      JobKind
	Status    JobStatus
	Payload   any
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time

	Asset        string
	Files        []string
	MetadataFile string
	LatencySec   float64
	Model        string
	Error        string
}

// Clone returns a copy that shares no mutable slices with j.
func (j Job) Clone() Job {
	if j.Files != nil {
		j.Files = append([]string(nil), j.Files...)
	}
	return j
}
