package constants

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

// Stable values (stored verbatim in the job store).
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}
