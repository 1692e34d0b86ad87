package storage

// NotFoundError is returned when a run doesn't exist in the store.
type NotFoundError struct {
	RunID string
}

func (e NotFoundError) Error() string {
	if e.RunID == "" {
		return "run not found"
	}

	return "run not found: " + e.RunID
}
