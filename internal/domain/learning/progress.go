package learning

// ExerciseStatus is one row of a progress report.
type ExerciseStatus struct {
	Slug  string `json:"slug"`
	State string `json:"state"`
}

// ProgressReport groups exercise statuses by track id. Slugs within a track
// are sorted ascending.
type ProgressReport map[string][]ExerciseStatus

// TrackItems groups slugs by track id.
type TrackItems map[string][]string

// Dashboard combines the progress report with the completed and nitpicker
// groupings of one learner.
type Dashboard struct {
	Progress  ProgressReport `json:"progress"`
	Completed TrackItems     `json:"completed"`
	Nitpicker TrackItems     `json:"nitpicker"`
}
